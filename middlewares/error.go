package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"invoicing-backend/invoicing"
)

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	var stockErr *invoicing.StockError
	switch {
	case errors.As(err, &stockErr):
		return fiber.StatusBadRequest
	case errors.Is(err, invoicing.ErrValidation), errors.Is(err, invoicing.ErrInsufficientStock):
		return fiber.StatusBadRequest
	case errors.Is(err, invoicing.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, invoicing.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, invoicing.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error as {"error": message}. Messages of
// server-side failures are not exposed.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, f := range ve {
				fields[f.Field()] = f.Tag()
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": fields,
			})
		}

		status := StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("request_id", RequestID(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
		}
		return c.Status(status).JSON(fiber.Map{"error": invoicing.PublicMessage(err)})
	}
}
