package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"invoicing-backend/invoicing"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func TestNotifierEnqueuesLowStockTask(t *testing.T) {
	q := &fakeEnqueuer{}
	n := NewNotifier(q)

	err := n.NotifyLowStock(context.Background(), "org-1", "inv-1", []invoicing.StockLevel{
		{ProductID: "p-1", Tracked: true, OnHand: 2, ReorderLevel: 5},
	})
	require.NoError(t, err)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TaskLowStock, q.tasks[0].Type())

	var payload LowStockPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &payload))
	assert.Equal(t, "org-1", payload.OrganizationID)
	assert.Equal(t, "inv-1", payload.InvoiceID)
	assert.Equal(t, []LowStockProduct{{ProductID: "p-1", OnHand: 2, ReorderLevel: 5}}, payload.Products)
}

func TestNotifierPropagatesEnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	n := NewNotifier(&fakeEnqueuer{err: boom})

	err := n.NotifyLowStock(context.Background(), "org-1", "inv-1", []invoicing.StockLevel{{ProductID: "p-1", Tracked: true}})
	assert.ErrorIs(t, err, boom)
}

func TestLowStockHandler(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := NewLowStockHandler(zap.New(core))

	task, err := NewLowStockTask(LowStockPayload{
		OrganizationID: "org-1",
		InvoiceID:      "inv-1",
		Products:       []LowStockProduct{{ProductID: "p-1", OnHand: 0, ReorderLevel: 3}, {ProductID: "p-2", OnHand: 1, ReorderLevel: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	entries := logs.FilterMessage("product at or below reorder level").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "p-1", entries[0].ContextMap()["product_id"])
}

func TestLowStockHandlerSkipsBadPayload(t *testing.T) {
	h := NewLowStockHandler(zap.NewNop())

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskLowStock, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), asynq.NewTask(TaskLowStock, []byte(`{"organization_id":"org-1"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
