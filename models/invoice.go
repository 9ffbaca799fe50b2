package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const InvoiceStatusDraft = "draft"

// Invoice is created together with its line items by the invoicing service.
// Subtotal, TaxTotal and Total are the exact sums of the line items.
type Invoice struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID   string    `json:"organization_id" gorm:"size:36;not null;uniqueIndex:idx_invoices_org_number,priority:1"`
	CustomerID       string    `json:"customer_id" gorm:"size:36;not null;index"`
	InvoiceNumber    string    `json:"invoice_number" gorm:"size:64;not null;uniqueIndex:idx_invoices_org_number,priority:2"`
	NumberSequential bool      `json:"number_sequential" gorm:"not null"`
	InvoiceDate      time.Time `json:"invoice_date"`
	Status           string    `json:"status" gorm:"size:20;not null;default:draft;index"`

	Items    []InvoiceLineItem `json:"line_items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Subtotal decimal.Decimal   `json:"subtotal" gorm:"type:numeric;not null"`
	TaxTotal decimal.Decimal   `json:"tax_total" gorm:"type:numeric;not null"`
	Total    decimal.Decimal   `json:"total" gorm:"type:numeric;not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (invoice *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	return
}

type InvoiceLineItem struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	InvoiceID   string          `json:"invoice_id" gorm:"size:36;not null;index"`
	Position    int             `json:"position" gorm:"not null"`
	ProductID   *string         `json:"product_id" gorm:"size:36;index"` // nil for custom lines
	Description string          `json:"description" gorm:"not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric;not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric;not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric;not null"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:numeric;not null"`
}

func (item *InvoiceLineItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return
}

// InvoiceSequence holds the last number handed out for an organization.
type InvoiceSequence struct {
	OrganizationID string `gorm:"primaryKey;size:36"`
	LastValue      int64  `gorm:"not null;default:0"`
}
