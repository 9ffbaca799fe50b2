package controllers

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/utils"
)

func productView(p *models.Product) fiber.Map {
	return fiber.Map{
		"id":               p.ID,
		"name":             p.Name,
		"product_number":   p.ProductNumber,
		"sku":              p.SKU,
		"description":      p.Description,
		"unit":             p.Unit,
		"unit_price":       utils.Money(p.UnitPrice),
		"tax_rate":         p.TaxRate.String(),
		"quantity_on_hand": p.QuantityOnHand,
		"reorder_level":    p.ReorderLevel,
		"stock_tracked":    p.StockTracked(),
		"is_active":        p.IsActive,
	}
}

func (ctl *Controller) GetProducts(c *fiber.Ctx) error {
	tenant := middlewares.TenantFrom(c)
	products, err := ctl.catalog.ListProducts(c.UserContext(), tenant.OrganizationID)
	if err != nil {
		return err
	}
	data := make([]fiber.Map, 0, len(products))
	for i := range products {
		data = append(data, productView(&products[i]))
	}
	return c.JSON(fiber.Map{"data": data})
}

func (ctl *Controller) GetProduct(c *fiber.Ctx) error {
	tenant := middlewares.TenantFrom(c)
	product, err := ctl.catalog.FindProduct(c.UserContext(), tenant.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(productView(product))
}
