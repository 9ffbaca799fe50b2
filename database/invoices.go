package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

// InvoiceStore persists invoices and line items for the invoicing service and
// serves the read endpoints.
type InvoiceStore struct {
	db *gorm.DB
}

func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

func (s *InvoiceStore) InsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	err := s.db.WithContext(ctx).Omit("Items").Create(invoice).Error
	return wrap("insert invoice", err)
}

func (s *InvoiceStore) DeleteInvoice(ctx context.Context, organizationID, invoiceID string) error {
	err := s.db.WithContext(ctx).Scopes(OrgScope(organizationID)).
		Where("id = ?", invoiceID).Delete(&models.Invoice{}).Error
	return wrap("delete invoice", err)
}

// InsertLineItems writes all items with one multi-row INSERT.
func (s *InvoiceStore) InsertLineItems(ctx context.Context, items []models.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&items).Error
	return wrap("insert line items", err)
}

func (s *InvoiceStore) DeleteLineItems(ctx context.Context, invoiceID string) error {
	err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceLineItem{}).Error
	return wrap("delete line items", err)
}

func (s *InvoiceStore) FindInvoice(ctx context.Context, organizationID, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Scopes(OrgScope(organizationID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", invoiceID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invoice not found: %w", invoicing.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("find invoice", err)
	}
	return &invoice, nil
}

// InvoiceQuery filters and orders an invoice listing. Sort and Order are
// expected to be validated by the caller.
type InvoiceQuery struct {
	Page       int
	Per        int
	Sort       string
	Order      string
	Status     string
	CustomerID string
}

var invoiceSortColumns = map[string]string{
	"invoice_date":   "invoice_date",
	"created_at":     "created_at",
	"invoice_number": "invoice_number",
	"total":          "total",
}

func (s *InvoiceStore) ListInvoices(ctx context.Context, organizationID string, q InvoiceQuery) ([]models.Invoice, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Per < 1 {
		q.Per = 20
	}
	column, ok := invoiceSortColumns[q.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if q.Order == "asc" {
		direction = "ASC"
	}

	filtered := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Invoice{}).Scopes(OrgScope(organizationID))
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
		if q.CustomerID != "" {
			query = query.Where("customer_id = ?", q.CustomerID)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, wrap("count invoices", err)
	}
	invoices := []models.Invoice{}
	err := filtered().Order(column + " " + direction).Order("id ASC").
		Limit(q.Per).Offset((q.Page - 1) * q.Per).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, wrap("list invoices", err)
	}
	return invoices, total, nil
}
