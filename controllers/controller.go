package controllers

import (
	"context"

	"invoicing-backend/database"
	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

type invoiceCreator interface {
	CreateInvoice(ctx context.Context, tenant invoicing.Tenant, req invoicing.CreateInvoiceRequest) (*invoicing.Result, error)
}

type invoiceReader interface {
	FindInvoice(ctx context.Context, organizationID, invoiceID string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, organizationID string, q database.InvoiceQuery) ([]models.Invoice, int64, error)
}

type catalogReader interface {
	FindCustomer(ctx context.Context, organizationID, customerID string) (*models.Customer, error)
	FindProduct(ctx context.Context, organizationID, productID string) (*models.Product, error)
	ListCustomers(ctx context.Context, organizationID string) ([]models.Customer, error)
	ListProducts(ctx context.Context, organizationID string) ([]models.Product, error)
}

type organizationBootstrapper interface {
	Bootstrap(ctx context.Context, userID, name string) (string, error)
}

// Controller holds the HTTP handlers of the API.
type Controller struct {
	invoices invoiceCreator
	reader   invoiceReader
	catalog  catalogReader
	orgs     organizationBootstrapper
}

func New(invoices invoiceCreator, reader invoiceReader, catalog catalogReader, orgs organizationBootstrapper) *Controller {
	return &Controller{invoices: invoices, reader: reader, catalog: catalog, orgs: orgs}
}
