package controllers

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/middlewares"
)

// WhoAmI reports the caller and the organization requests act on.
func (ctl *Controller) WhoAmI(c *fiber.Ctx) error {
	tenant := middlewares.TenantFrom(c)
	return c.JSON(fiber.Map{
		"user_id":         tenant.UserID,
		"organization_id": tenant.OrganizationID,
	})
}

type bootstrapRequest struct {
	Name string `json:"name" validate:"max=200"`
}

// Bootstrap creates the caller's organization unless they already have one.
func (ctl *Controller) Bootstrap(c *fiber.Ctx) error {
	var req bootstrapRequest
	if len(c.Body()) > 0 {
		if err := middlewares.BindAndValidate(c, &req); err != nil {
			return err
		}
	}
	tenant := middlewares.TenantFrom(c)
	orgID, err := ctl.orgs.Bootstrap(c.UserContext(), tenant.UserID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"organization_id": orgID})
}
