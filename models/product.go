package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. QuantityOnHand is nil for service items that
// carry no stock; only the inventory ledger mutates it.
type Product struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID string          `json:"organization_id" gorm:"size:36;not null;index"`
	Name           string          `json:"name" gorm:"not null"`
	ProductNumber  string          `json:"product_number"`
	SKU            string          `json:"sku"`
	Description    string          `json:"description"`
	Unit           string          `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:numeric;not null;default:0"`
	TaxRate        decimal.Decimal `json:"tax_rate" gorm:"type:numeric;not null;default:0"`
	QuantityOnHand *int64          `json:"quantity_on_hand"`
	ReorderLevel   int64           `json:"reorder_level" gorm:"not null;default:0"`
	IsActive       bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StockTracked reports whether invoices deduct inventory for this product.
func (product *Product) StockTracked() bool {
	return product.QuantityOnHand != nil
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	return
}
