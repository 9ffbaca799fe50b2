package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant boundary. Every other row carries its id.
type Organization struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null"`
	OwnerID   string    `json:"owner_id" gorm:"size:128;not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (org *Organization) BeforeCreate(tx *gorm.DB) (err error) {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	return
}
