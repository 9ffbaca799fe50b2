package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RoleOwner = "owner"

// OrganizationMember links an external identity (the token subject) to an organization.
type OrganizationMember struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID string    `json:"organization_id" gorm:"size:36;not null;uniqueIndex:idx_org_members_org_user,priority:1"`
	UserID         string    `json:"user_id" gorm:"size:128;not null;uniqueIndex:idx_org_members_org_user,priority:2;index"`
	Role           string    `json:"role" gorm:"size:20;not null"`
	CreatedAt      time.Time `json:"created_at"`
}

func (member *OrganizationMember) BeforeCreate(tx *gorm.DB) (err error) {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	return
}
