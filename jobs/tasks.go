package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"invoicing-backend/invoicing"
)

const (
	// QueueDefault is the queue every task of the service goes to.
	QueueDefault = "default"
	// TaskLowStock reports products that reached their reorder level.
	TaskLowStock = "inventory:low_stock"
)

type LowStockProduct struct {
	ProductID    string `json:"product_id"`
	OnHand       int64  `json:"on_hand"`
	ReorderLevel int64  `json:"reorder_level"`
}

// LowStockPayload is emitted once per committed invoice.
type LowStockPayload struct {
	OrganizationID string            `json:"organization_id"`
	InvoiceID      string            `json:"invoice_id"`
	Products       []LowStockProduct `json:"products"`
}

func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStock, data), nil
}

// LowStockHandler consumes TaskLowStock. Alert delivery is a log line at warn
// level; operators route it from there.
type LowStockHandler struct {
	log *zap.Logger
}

func NewLowStockHandler(log *zap.Logger) *LowStockHandler {
	return &LowStockHandler{log: log.Named("jobs")}
}

func (h *LowStockHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskLowStock, err, asynq.SkipRetry)
	}
	if payload.OrganizationID == "" || len(payload.Products) == 0 {
		return fmt.Errorf("empty %s payload: %w", TaskLowStock, asynq.SkipRetry)
	}
	for _, p := range payload.Products {
		h.log.Warn("product at or below reorder level",
			zap.String("organization_id", payload.OrganizationID),
			zap.String("invoice_id", payload.InvoiceID),
			zap.String("product_id", p.ProductID),
			zap.Int64("on_hand", p.OnHand),
			zap.Int64("reorder_level", p.ReorderLevel),
		)
	}
	return nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier publishes low stock levels reported by the invoicing service as
// asynq tasks.
type Notifier struct {
	client enqueuer
}

func NewNotifier(client enqueuer) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) NotifyLowStock(ctx context.Context, organizationID, invoiceID string, levels []invoicing.StockLevel) error {
	payload := LowStockPayload{OrganizationID: organizationID, InvoiceID: invoiceID}
	for _, l := range levels {
		payload.Products = append(payload.Products, LowStockProduct{
			ProductID:    l.ProductID,
			OnHand:       l.OnHand,
			ReorderLevel: l.ReorderLevel,
		})
	}
	task, err := NewLowStockTask(payload)
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}
