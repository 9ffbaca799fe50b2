package controllers

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/middlewares"
)

func (ctl *Controller) GetCustomers(c *fiber.Ctx) error {
	tenant := middlewares.TenantFrom(c)
	customers, err := ctl.catalog.ListCustomers(c.UserContext(), tenant.OrganizationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customers})
}

func (ctl *Controller) GetCustomer(c *fiber.Ctx) error {
	tenant := middlewares.TenantFrom(c)
	customer, err := ctl.catalog.FindCustomer(c.UserContext(), tenant.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(customer)
}
