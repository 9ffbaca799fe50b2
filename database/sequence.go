package database

import (
	"context"
	"strconv"

	"gorm.io/gorm"
)

// SequenceAllocator hands out per-organization invoice numbers from the
// invoice_sequences table. The upsert takes the row lock, so concurrent
// callers are serialized and never observe the same value.
type SequenceAllocator struct {
	db *gorm.DB
}

func NewSequenceAllocator(db *gorm.DB) *SequenceAllocator {
	return &SequenceAllocator{db: db}
}

func (s *SequenceAllocator) Next(ctx context.Context, organizationID string) (string, error) {
	var values []int64
	err := s.db.WithContext(ctx).Raw(`INSERT INTO invoice_sequences (organization_id, last_value)
VALUES (?, 1)
ON CONFLICT (organization_id) DO UPDATE SET last_value = invoice_sequences.last_value + 1
RETURNING last_value`, organizationID).Scan(&values).Error
	if err != nil {
		return "", wrap("next invoice number", err)
	}
	if len(values) == 0 {
		return "", nil
	}
	return strconv.FormatInt(values[0], 10), nil
}
