package invoicing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	invoicePrefix = "INV-"
	numberWidth   = 5
)

// InvoiceNumber is an allocated display number. Sequential is false when the
// number came from the timestamp fallback and breaks the per-organization
// sequence.
type InvoiceNumber struct {
	Value      string
	Sequential bool
}

// FormatInvoiceNumber renders a raw sequence value. Digit strings, ignoring
// surrounding blanks, become INV-00042; other identifiers are kept exactly as
// they are. Blank values and negative numbers are unusable.
func FormatInvoiceNumber(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if isDigits(trimmed) {
		v := strings.TrimLeft(trimmed, "0")
		if v == "" {
			v = "0"
		}
		if len(v) < numberWidth {
			v = strings.Repeat("0", numberWidth-len(v)) + v
		}
		return invoicePrefix + v, true
	}
	if trimmed[0] == '-' && isDigits(trimmed[1:]) {
		return "", false
	}
	return raw, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NumberAllocator turns sequencer output into invoice numbers.
type NumberAllocator struct {
	seq             Sequencer
	fallbackOnError bool
	now             func() time.Time
	log             *zap.Logger
}

func NewNumberAllocator(seq Sequencer, fallbackOnError bool, now func() time.Time, log *zap.Logger) *NumberAllocator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NumberAllocator{seq: seq, fallbackOnError: fallbackOnError, now: now, log: log}
}

// Allocate returns the next invoice number of the organization. A sequencer
// error aborts unless the allocator was built with fallbackOnError; an
// unusable value always falls back to a timestamp number.
func (a *NumberAllocator) Allocate(ctx context.Context, organizationID string) (InvoiceNumber, error) {
	raw, err := a.seq.Next(ctx, organizationID)
	if err != nil {
		if !a.fallbackOnError {
			return InvoiceNumber{}, persistenceErr("allocate invoice number", err)
		}
		return a.fallback(organizationID, zap.Error(err)), nil
	}
	value, ok := FormatInvoiceNumber(raw)
	if !ok {
		return a.fallback(organizationID, zap.String("raw", raw)), nil
	}
	return InvoiceNumber{Value: value, Sequential: true}, nil
}

func (a *NumberAllocator) fallback(organizationID string, reason zap.Field) InvoiceNumber {
	n := InvoiceNumber{
		Value:      invoicePrefix + strconv.FormatInt(a.now().UnixMilli(), 10),
		Sequential: false,
	}
	a.log.Warn("invoice number allocated outside the sequence",
		zap.String("organization_id", organizationID),
		zap.String("invoice_number", n.Value),
		reason,
	)
	return n
}
