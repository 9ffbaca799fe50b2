package controllers

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/database"
	"invoicing-backend/invoicing"
	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/utils"
)

// CreateInvoice handles POST /api/invoices.
func (ctl *Controller) CreateInvoice(c *fiber.Ctx) error {
	var req invoicing.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := ctl.invoices.CreateInvoice(c.UserContext(), middlewares.TenantFrom(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invoice_id":     res.InvoiceID,
		"invoice_number": res.InvoiceNumber,
	})
}

func (ctl *Controller) GetInvoice(c *fiber.Ctx) error {
	tenant := middlewares.TenantFrom(c)
	inv, err := ctl.reader.FindInvoice(c.UserContext(), tenant.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(invoiceView(inv))
}

type listInvoicesQuery struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Per      int    `query:"per" validate:"omitempty,min=1,max=100"`
	Sort     string `query:"sort" validate:"omitempty,oneof=invoice_date created_at invoice_number total"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
	Status   string `query:"status" validate:"omitempty,max=20"`
	Customer string `query:"customer" validate:"omitempty,max=64"`
}

// ListInvoices handles GET /api/invoices.
func (ctl *Controller) ListInvoices(c *fiber.Ctx) error {
	q := listInvoicesQuery{Page: 1, Per: 20, Sort: "created_at", Order: "desc"}
	if err := middlewares.BindQuery(c, &q); err != nil {
		return err
	}

	tenant := middlewares.TenantFrom(c)
	invoices, total, err := ctl.reader.ListInvoices(c.UserContext(), tenant.OrganizationID, database.InvoiceQuery{
		Page:       q.Page,
		Per:        q.Per,
		Sort:       q.Sort,
		Order:      q.Order,
		Status:     q.Status,
		CustomerID: q.Customer,
	})
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(invoices))
	for i := range invoices {
		data = append(data, invoiceView(&invoices[i]))
	}
	return c.JSON(fiber.Map{
		"data":  data,
		"page":  q.Page,
		"per":   q.Per,
		"total": total,
	})
}

// invoiceView renders money at two decimals. Quantities and rates keep their
// stored precision.
func invoiceView(inv *models.Invoice) fiber.Map {
	view := fiber.Map{
		"id":                inv.ID,
		"customer_id":       inv.CustomerID,
		"invoice_number":    inv.InvoiceNumber,
		"number_sequential": inv.NumberSequential,
		"invoice_date":      inv.InvoiceDate,
		"status":            inv.Status,
		"subtotal":          utils.Money(inv.Subtotal),
		"tax_total":         utils.Money(inv.TaxTotal),
		"total":             utils.Money(inv.Total),
		"created_at":        inv.CreatedAt,
	}
	if inv.Items != nil {
		items := make([]fiber.Map, 0, len(inv.Items))
		for _, it := range inv.Items {
			items = append(items, fiber.Map{
				"id":          it.ID,
				"position":    it.Position,
				"product_id":  it.ProductID,
				"description": it.Description,
				"quantity":    it.Quantity.String(),
				"unit_price":  it.UnitPrice.String(),
				"tax_rate":    it.TaxRate.String(),
				"line_total":  utils.Money(it.LineTotal),
			})
		}
		view["line_items"] = items
	}
	return view
}
