package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"invoicing-backend/models"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// Idempotency makes mutating requests carrying an Idempotency-Key safe to
// retry. The first successful response is stored per organization and
// replayed for identical retries. A key is rejected while its first request
// is still running or when it is reused for a different request. Failed
// requests release the key. A key left pending for longer than staleAfter
// belongs to a request that died without releasing it and is taken over by
// the next request. Run it after ResolveTenant.
func Idempotency(db *gorm.DB, log *zap.Logger, staleAfter time.Duration) fiber.Handler {
	log = log.Named("idempotency")
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(headerIdempotencyKey))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		tenant := TenantFrom(c)
		if tenant.OrganizationID == "" || tenant.UserID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}

		path := c.OriginalURL()
		reqHash := requestHash(method, path, c.Body(), tenant.OrganizationID, tenant.UserID)
		ctx := c.UserContext()
		scoped := func() *gorm.DB {
			return db.WithContext(ctx).Where("organization_id = ? AND key = ?", tenant.OrganizationID, key)
		}

		rec := models.IdempotencyKey{
			OrganizationID: tenant.OrganizationID,
			Key:            key,
			RequestHash:    reqHash,
			Method:         method,
			Path:           path,
			UserID:         tenant.UserID,
		}
		if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Error("idempotency create failed", zap.Error(err))
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
			var existing models.IdempotencyKey
			if err := scoped().First(&existing).Error; err != nil {
				log.Error("idempotency lookup failed", zap.Error(err))
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
			}
			switch {
			case existing.ResponseStatus == 0:
				claimed, err := reclaim(db.WithContext(ctx), existing, rec, staleAfter)
				if err != nil {
					log.Error("idempotency reclaim failed", zap.Error(err))
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency reclaim failed")
				}
				if !claimed {
					return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
				}
				log.Warn("reclaimed stale idempotency key", zap.String("key", key), zap.Time("reserved_at", existing.CreatedAt))
			case existing.RequestHash != reqHash:
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			default:
				c.Set("Idempotent-Replayed", "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
			}
		}

		release := func() {
			if err := scoped().Where("response_status = 0").Delete(&models.IdempotencyKey{}).Error; err != nil {
				log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
			}
		}
		if err := c.Next(); err != nil {
			release()
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusBadRequest {
			release()
			return nil
		}

		body := c.Response().Body()
		blob := make([]byte, len(body))
		copy(blob, body)
		now := time.Now().UTC()
		err := scoped().Model(&models.IdempotencyKey{}).Updates(map[string]any{
			"response_status": status,
			"response_body":   datatypes.JSON(blob),
			"completed_at":    &now,
		}).Error
		if err != nil {
			// the response already happened; a retry will run the handler again
			log.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
			release()
		}
		return nil
	}
}

// reclaim takes over a pending key reserved before the stale cutoff. Only one
// of several concurrent callers wins the conditional update.
func reclaim(db *gorm.DB, existing, rec models.IdempotencyKey, staleAfter time.Duration) (bool, error) {
	if staleAfter <= 0 {
		return false, nil
	}
	now := time.Now().UTC()
	if now.Sub(existing.CreatedAt) < staleAfter {
		return false, nil
	}
	res := db.Model(&models.IdempotencyKey{}).
		Where("id = ? AND response_status = 0 AND created_at < ?", existing.ID, now.Add(-staleAfter)).
		Updates(map[string]any{
			"request_hash": rec.RequestHash,
			"method":       rec.Method,
			"path":         rec.Path,
			"user_id":      rec.UserID,
			"created_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func requestHash(method, path string, body []byte, orgID, userID string) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body, []byte(orgID), []byte(userID)} {
		h.Write(part)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
