package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"invoicing-backend/models"
)

type memoryStore struct {
	mu       sync.Mutex
	invoices map[string]models.Invoice
	items    map[string][]models.InvoiceLineItem

	failInsertItems   error
	failDeleteItems   error
	failDeleteInvoice error
	calls             []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		invoices: make(map[string]models.Invoice),
		items:    make(map[string][]models.InvoiceLineItem),
	}
}

func (s *memoryStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *memoryStore) InsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("insert invoice")
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, inv := range s.invoices {
		if inv.OrganizationID == invoice.OrganizationID && inv.InvoiceNumber == invoice.InvoiceNumber {
			return fmt.Errorf("%w: duplicate invoice number", ErrConflict)
		}
	}
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (s *memoryStore) DeleteInvoice(ctx context.Context, organizationID, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete invoice")
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failDeleteInvoice != nil {
		return s.failDeleteInvoice
	}
	delete(s.invoices, invoiceID)
	return nil
}

func (s *memoryStore) InsertLineItems(ctx context.Context, items []models.InvoiceLineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("insert line items")
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failInsertItems != nil {
		return s.failInsertItems
	}
	for _, it := range items {
		s.items[it.InvoiceID] = append(s.items[it.InvoiceID], it)
	}
	return nil
}

func (s *memoryStore) DeleteLineItems(ctx context.Context, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete line items")
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failDeleteItems != nil {
		return s.failDeleteItems
	}
	delete(s.items, invoiceID)
	return nil
}

func (s *memoryStore) invoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices)
}

func (s *memoryStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, items := range s.items {
		n += len(items)
	}
	return n
}

type memoryCatalog struct {
	customers map[string]models.Customer
	products  map[string]models.Product
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		customers: make(map[string]models.Customer),
		products:  make(map[string]models.Product),
	}
}

func (c *memoryCatalog) FindCustomer(ctx context.Context, organizationID, customerID string) (*models.Customer, error) {
	cust, ok := c.customers[customerID]
	if !ok || cust.OrganizationID != organizationID {
		return nil, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	return &cust, nil
}

func (c *memoryCatalog) FindProduct(ctx context.Context, organizationID, productID string) (*models.Product, error) {
	p, ok := c.products[productID]
	if !ok || p.OrganizationID != organizationID {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return &p, nil
}

// memoryLedger keeps on-hand quantities per product; nil entries are service items.
type memoryLedger struct {
	mu        sync.Mutex
	org       string
	onHand    map[string]*int64
	reorder   map[string]int64
	movements map[string]int64

	onDecrement func()
	// stall makes Decrement wait for ctx to end; applied decides whether the
	// stock was taken before that.
	stall      bool
	applied    bool
	decrements []string
}

func newMemoryLedger(org string) *memoryLedger {
	return &memoryLedger{
		org:       org,
		onHand:    make(map[string]*int64),
		reorder:   make(map[string]int64),
		movements: make(map[string]int64),
	}
}

func (l *memoryLedger) stock(productID string, qty int64) {
	l.onHand[productID] = &qty
}

func (l *memoryLedger) service(productID string) {
	l.onHand[productID] = nil
}

func (l *memoryLedger) level(productID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.onHand[productID]
}

func (l *memoryLedger) movementCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.movements)
}

func (l *memoryLedger) Decrement(ctx context.Context, organizationID, productID, reference string, qty int64) (StockLevel, error) {
	if l.onDecrement != nil {
		l.onDecrement()
	}
	if l.stall {
		if l.applied {
			if _, err := l.decrement(organizationID, productID, reference, qty); err != nil {
				return StockLevel{}, err
			}
		}
		<-ctx.Done()
		return StockLevel{}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return StockLevel{}, err
	}
	return l.decrement(organizationID, productID, reference, qty)
}

func (l *memoryLedger) decrement(organizationID, productID, reference string, qty int64) (StockLevel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decrements = append(l.decrements, productID)
	onHand, ok := l.onHand[productID]
	if !ok || organizationID != l.org {
		return StockLevel{}, &StockError{ProductID: productID, Requested: qty, Err: ErrNotFound}
	}
	if onHand == nil {
		return StockLevel{ProductID: productID}, nil
	}
	if *onHand < qty {
		return StockLevel{}, &StockError{ProductID: productID, Requested: qty, Err: ErrInsufficientStock}
	}
	*onHand -= qty
	l.movements[reference] = qty
	return StockLevel{ProductID: productID, Tracked: true, OnHand: *onHand, ReorderLevel: l.reorder[productID]}, nil
}

func (l *memoryLedger) Restore(ctx context.Context, organizationID, productID, reference string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	qty, ok := l.movements[reference]
	if !ok {
		return nil
	}
	onHand := l.onHand[productID]
	if onHand == nil {
		return errors.New("restore of untracked product")
	}
	*onHand += qty
	delete(l.movements, reference)
	return nil
}

type counterSequencer struct {
	mu   sync.Mutex
	next map[string]int64
	err  error
	raw  *string
}

func newCounterSequencer() *counterSequencer {
	return &counterSequencer{next: make(map[string]int64)}
}

func (s *counterSequencer) Next(ctx context.Context, organizationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.raw != nil {
		return *s.raw, nil
	}
	s.next[organizationID]++
	return strconv.FormatInt(s.next[organizationID], 10), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	levels []StockLevel
}

func (n *recordingNotifier) NotifyLowStock(ctx context.Context, organizationID, invoiceID string, levels []StockLevel) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levels = append(n.levels, levels...)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }
