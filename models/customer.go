package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID    string    `json:"organization_id" gorm:"size:36;not null;index"`
	Name              string    `json:"name" gorm:"not null"`
	ContactFirstName  string    `json:"contact_first_name"`
	ContactLastName   string    `json:"contact_last_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Website           string    `json:"website"`
	BillingAddress    string    `json:"billing_address"`
	BillingCity       string    `json:"billing_city"`
	BillingPostalCode string    `json:"billing_postal_code"`
	BillingCountry    string    `json:"billing_country"`
	TaxID             string    `json:"tax_id"`
	PaymentTerms      string    `json:"payment_terms"`
	Notes             string    `json:"notes"`
	IsActive          bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt         time.Time `json:"created_at"`
}

func (customer *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	return
}
