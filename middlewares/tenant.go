package middlewares

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"invoicing-backend/invoicing"
)

const localOrgID = "orgID"

type organizationResolver interface {
	Resolve(ctx context.Context, userID, preferred string) (string, error)
}

// ResolveTenant maps the authenticated user to an organization. Run it after
// IsAuthenticatedHeader.
func ResolveTenant(resolver organizationResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(localUserID).(string)
		preferred, _ := c.Locals(localPreferredOrg).(string)
		orgID, err := resolver.Resolve(c.UserContext(), userID, preferred)
		if err != nil {
			return err
		}
		c.Locals(localOrgID, orgID)
		return c.Next()
	}
}

// TenantFrom returns the caller resolved by the auth and tenant middlewares.
func TenantFrom(c *fiber.Ctx) invoicing.Tenant {
	userID, _ := c.Locals(localUserID).(string)
	orgID, _ := c.Locals(localOrgID).(string)
	return invoicing.Tenant{OrganizationID: orgID, UserID: userID}
}
