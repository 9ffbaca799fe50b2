package invoicing

import (
	"context"

	"invoicing-backend/models"
)

// Tenant is the resolved caller. OrganizationID scopes every read and write.
type Tenant struct {
	OrganizationID string
	UserID         string
}

// Store persists invoices and their line items. Implementations must insert
// a batch of line items with a single statement.
type Store interface {
	InsertInvoice(ctx context.Context, invoice *models.Invoice) error
	DeleteInvoice(ctx context.Context, organizationID, invoiceID string) error
	InsertLineItems(ctx context.Context, items []models.InvoiceLineItem) error
	DeleteLineItems(ctx context.Context, invoiceID string) error
}

// Catalog gives read access to customers and products of an organization.
// Lookups of rows owned by another organization return ErrNotFound.
type Catalog interface {
	FindCustomer(ctx context.Context, organizationID, customerID string) (*models.Customer, error)
	FindProduct(ctx context.Context, organizationID, productID string) (*models.Product, error)
}

// Sequencer hands out the next raw invoice number of an organization in one
// atomic operation.
type Sequencer interface {
	Next(ctx context.Context, organizationID string) (string, error)
}

// StockLevel is the state of a product after a ledger operation.
type StockLevel struct {
	ProductID    string
	Tracked      bool
	OnHand       int64
	ReorderLevel int64
}

// Low reports whether the product reached its reorder level.
func (l StockLevel) Low() bool {
	return l.Tracked && l.OnHand <= l.ReorderLevel
}

// Ledger applies conditional stock movements. Decrement never lets on-hand
// quantity go negative; it fails with a *StockError instead. Products without
// stock tracking are left untouched and reported with Tracked=false.
//
// A tracked decrement is recorded under reference, one movement per invoice
// line. Restore puts back the quantity of the movement recorded under
// reference and does nothing when there is none, so it may be called when the
// outcome of a Decrement is unknown.
type Ledger interface {
	Decrement(ctx context.Context, organizationID, productID, reference string, qty int64) (StockLevel, error)
	Restore(ctx context.Context, organizationID, productID, reference string) error
}

// LowStockNotifier is told about products that fell to their reorder level
// after an invoice was committed.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, organizationID, invoiceID string, levels []StockLevel) error
}
