package invoicing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by the service matches exactly one of
// them through errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError identifies bad input. Line is 1-based and zero for
// request-level problems.
type ValidationError struct {
	Line    int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Line item %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StockError is returned by a Ledger when a decrement cannot be applied.
// Err is ErrInsufficientStock or ErrNotFound.
type StockError struct {
	ProductID string
	Requested int64
	Err       error
}

func (e *StockError) Error() string {
	if errors.Is(e.Err, ErrNotFound) {
		return fmt.Sprintf("product %s not found", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

func (e *StockError) Unwrap() error { return e.Err }

// RollbackError reports a failed creation whose compensation did not complete.
// The data store may hold residue for InvoiceID that needs manual cleanup.
type RollbackError struct {
	Cause     error
	State     State
	InvoiceID string
	Failures  []error
}

func (e *RollbackError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%v (rollback of invoice %s incomplete: %s)", e.Cause, e.InvoiceID, strings.Join(msgs, "; "))
}

func (e *RollbackError) Unwrap() error { return e.Cause }

// PublicMessage returns the text shown to API callers. Rollback residue is an
// operator concern and is reported through logs only.
func PublicMessage(err error) string {
	var rb *RollbackError
	if errors.As(err, &rb) {
		return PublicMessage(rb.Cause)
	}
	return err.Error()
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

var sentinels = []error{ErrValidation, ErrUnauthenticated, ErrNotFound, ErrInsufficientStock, ErrConflict, ErrPersistence}

// classify keeps errors that already carry a sentinel and reports anything
// else as a persistence failure of op.
func classify(op string, err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}
	return persistenceErr(op, err)
}
