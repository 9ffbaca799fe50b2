package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"invoicing-backend/models"
)

// DefaultCommitTimeout bounds the persistence phase when Options leave it unset.
const DefaultCommitTimeout = 30 * time.Second

// CreateInvoiceRequest is the body of an invoice creation call.
type CreateInvoiceRequest struct {
	CustomerID string          `json:"customer_id"`
	LineItems  []LineItemInput `json:"line_items"`
}

// Result describes a committed invoice.
type Result struct {
	InvoiceID     string
	InvoiceNumber string
	Sequential    bool
	Quote         Quote
}

// Options tune the service. The zero value trusts client prices, aborts when
// the sequencer fails and uses DefaultCommitTimeout.
type Options struct {
	// CatalogPricing replaces the unit price and tax rate of lines that
	// reference a product with the catalog values. Custom lines keep theirs.
	CatalogPricing bool
	// FallbackOnSequenceError issues a timestamp number when the sequencer
	// fails instead of rejecting the request.
	FallbackOnSequenceError bool
	// CommitTimeout bounds persistence, which runs detached from the
	// caller's cancellation. A rollback gets a fresh budget of the same length.
	CommitTimeout time.Duration
	Notifier      LowStockNotifier
	Logger        *zap.Logger
	Now           func() time.Time
	OnTransition  func(State)
}

// Service creates invoices: it validates and prices the request, allocates a
// number, and writes invoice, line items and stock movements as a saga.
type Service struct {
	store   Store
	catalog Catalog
	ledger  Ledger
	numbers *NumberAllocator
	opts    Options
	log     *zap.Logger
}

func NewService(store Store, catalog Catalog, seq Sequencer, ledger Ledger, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	log := opts.Logger.Named("invoicing")
	return &Service{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
		numbers: NewNumberAllocator(seq, opts.FallbackOnSequenceError, opts.Now, log),
		opts:    opts,
		log:     log,
	}
}

// CreateInvoice runs the creation transaction for the tenant. On error no
// invoice or line item of this attempt remains, unless a *RollbackError
// reports residue.
func (s *Service) CreateInvoice(ctx context.Context, tenant Tenant, req CreateInvoiceRequest) (*Result, error) {
	log := s.log.With(zap.String("organization_id", tenant.OrganizationID))
	enter := func(st State) {
		log.Debug("invoice creation state", zap.String("state", string(st)))
		if s.opts.OnTransition != nil {
			s.opts.OnTransition(st)
		}
	}
	res, err := s.create(ctx, tenant, req, enter, log)
	if err != nil {
		enter(StateFailed)
		return nil, err
	}
	return res, nil
}

func (s *Service) create(ctx context.Context, tenant Tenant, req CreateInvoiceRequest, enter func(State), log *zap.Logger) (*Result, error) {
	enter(StateValidating)
	org := strings.TrimSpace(tenant.OrganizationID)
	if org == "" {
		return nil, ErrUnauthenticated
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" || customerID == "undefined" || customerID == "null" {
		return nil, &ValidationError{Field: "customer_id", Message: "customer_id is required"}
	}
	lines, err := NormalizeLineItems(req.LineItems)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.FindCustomer(ctx, org, customerID); err != nil {
		return nil, classify("find customer", err)
	}
	if s.opts.CatalogPricing {
		if err := s.applyCatalogPrices(ctx, org, lines); err != nil {
			return nil, err
		}
	}

	enter(StatePricing)
	quote := Price(lines)

	enter(StateNumbering)
	number, err := s.numbers.Allocate(ctx, org)
	if err != nil {
		return nil, err
	}

	// Nothing is written yet; a caller that already left gets nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CommitTimeout)
	defer cancel()

	invoice := &models.Invoice{
		ID:               uuid.NewString(),
		OrganizationID:   org,
		CustomerID:       customerID,
		InvoiceNumber:    number.Value,
		NumberSequential: number.Sequential,
		InvoiceDate:      s.opts.Now().UTC(),
		Status:           models.InvoiceStatusDraft,
		Subtotal:         quote.Subtotal,
		TaxTotal:         quote.TaxTotal,
		Total:            quote.Total,
	}
	log = log.With(zap.String("invoice_id", invoice.ID), zap.String("invoice_number", invoice.InvoiceNumber))

	levels := make([]StockLevel, 0, len(quote.Lines))
	sg := s.plan(org, invoice, quote, &levels)
	sg.enter = enter
	sg.log = log
	sg.undoTimeout = s.opts.CommitTimeout

	if f := sg.run(wctx); f != nil {
		f.cause = classify(f.step, f.cause)
		if len(f.residue) > 0 {
			log.Error("invoice rollback left residue",
				zap.String("state", string(f.state)),
				zap.NamedError("cause", f.cause),
				zap.Errors("failures", f.residue),
			)
			return nil, &RollbackError{Cause: f.cause, State: f.state, InvoiceID: invoice.ID, Failures: f.residue}
		}
		if f.unwound {
			log.Warn("invoice creation rolled back", zap.String("state", string(f.state)), zap.Error(f.cause))
		} else {
			log.Warn("invoice creation aborted", zap.String("state", string(f.state)), zap.Error(f.cause))
		}
		return nil, f.cause
	}

	enter(StateCommitted)
	log.Info("invoice created", zap.Bool("sequential", number.Sequential), zap.String("total", quote.Total.String()))
	s.notifyLowStock(wctx, org, invoice.ID, levels, log)

	return &Result{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		Sequential:    number.Sequential,
		Quote:         quote,
	}, nil
}

// plan lays out the write steps: invoice row, line items, then one stock
// decrement per product line in line order.
func (s *Service) plan(org string, invoice *models.Invoice, quote Quote, levels *[]StockLevel) *saga {
	items := make([]models.InvoiceLineItem, 0, len(quote.Lines))
	for i, pl := range quote.Lines {
		items = append(items, models.InvoiceLineItem{
			ID:          uuid.NewString(),
			InvoiceID:   invoice.ID,
			Position:    i + 1,
			ProductID:   pl.ProductID,
			Description: pl.Description,
			Quantity:    pl.Quantity,
			UnitPrice:   pl.UnitPrice,
			TaxRate:     pl.TaxRate,
			LineTotal:   pl.LineTotal,
		})
	}

	sg := &saga{}
	sg.add(step{
		state:      StatePersistingInvoice,
		name:       "insert invoice",
		forward:    func(ctx context.Context) error { return s.store.InsertInvoice(ctx, invoice) },
		compensate: func(ctx context.Context) error { return s.store.DeleteInvoice(ctx, org, invoice.ID) },
	})
	sg.add(step{
		state:      StatePersistingLineItems,
		name:       "insert line items",
		forward:    func(ctx context.Context) error { return s.store.InsertLineItems(ctx, items) },
		compensate: func(ctx context.Context) error { return s.store.DeleteLineItems(ctx, invoice.ID) },
	})
	for i, pl := range quote.Lines {
		if !pl.HasProduct() {
			continue
		}
		productID := *pl.ProductID
		reference := items[i].ID
		qty := pl.Quantity.IntPart()
		sg.add(step{
			state: StateDeductingInventory,
			name:  fmt.Sprintf("deduct stock line %d product %s", i+1, productID),
			forward: func(ctx context.Context) error {
				level, err := s.ledger.Decrement(ctx, org, productID, reference, qty)
				if err != nil {
					return err
				}
				*levels = append(*levels, level)
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.ledger.Restore(ctx, org, productID, reference)
			},
		})
	}
	return sg
}

func (s *Service) applyCatalogPrices(ctx context.Context, org string, lines []LineItem) error {
	for i := range lines {
		if !lines[i].HasProduct() {
			continue
		}
		p, err := s.catalog.FindProduct(ctx, org, *lines[i].ProductID)
		if errors.Is(err, ErrNotFound) {
			return &StockError{ProductID: *lines[i].ProductID, Requested: lines[i].Quantity.IntPart(), Err: ErrNotFound}
		}
		if err != nil {
			return classify("find product", err)
		}
		lines[i].UnitPrice = p.UnitPrice
		lines[i].TaxRate = p.TaxRate
	}
	return nil
}

func (s *Service) notifyLowStock(ctx context.Context, org, invoiceID string, levels []StockLevel, log *zap.Logger) {
	if s.opts.Notifier == nil {
		return
	}
	low := make([]StockLevel, 0, len(levels))
	for _, l := range levels {
		if l.Low() {
			low = append(low, l)
		}
	}
	if len(low) == 0 {
		return
	}
	if err := s.opts.Notifier.NotifyLowStock(ctx, org, invoiceID, low); err != nil {
		log.Warn("low stock notification failed", zap.Error(err))
	}
}
