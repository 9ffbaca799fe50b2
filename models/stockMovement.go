package models

import "time"

// StockMovement records the stock an invoice line took from a product. Its ID
// is the line item id, so a line draws stock at most once and a reversal puts
// back exactly what was taken.
type StockMovement struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID string    `json:"organization_id" gorm:"size:36;not null;index"`
	ProductID      string    `json:"product_id" gorm:"size:36;not null;index"`
	Quantity       int64     `json:"quantity" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}
