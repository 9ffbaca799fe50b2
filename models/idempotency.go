package models

import (
	"time"

	"gorm.io/datatypes"
)

// IdempotencyKey stores the first completed response for a given request hash.
// Keys are unique per organization.
type IdempotencyKey struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	OrganizationID string         `json:"organization_id" gorm:"size:36;not null;uniqueIndex:idx_idempotency_keys_org_key,priority:1"`
	Key            string         `json:"key" gorm:"size:128;not null;uniqueIndex:idx_idempotency_keys_org_key,priority:2"`
	RequestHash    string         `json:"request_hash" gorm:"size:64"` // sha256 of method|path|body|org|user
	Method         string         `json:"method" gorm:"size:10"`
	Path           string         `json:"path" gorm:"size:255"`
	UserID         string         `json:"user_id" gorm:"size:128"`
	ResponseStatus int            `json:"response_status"` // 0 => not completed yet
	ResponseBody   datatypes.JSON `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
}
