package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSagaCompensatesOnFreshContext(t *testing.T) {
	var undone []string
	undo := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			undone = append(undone, name)
			return nil
		}
	}
	sg := &saga{enter: func(State) {}, log: zap.NewNop(), undoTimeout: time.Second}
	sg.add(step{state: StatePersistingInvoice, name: "first", forward: func(context.Context) error { return nil }, compensate: undo("first")})
	sg.add(step{
		state: StateDeductingInventory,
		name:  "second",
		forward: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		compensate: undo("second"),
	})
	sg.add(step{state: StateDeductingInventory, name: "third", forward: func(context.Context) error { return nil }, compensate: undo("third")})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	f := sg.run(ctx)

	require.NotNil(t, f)
	assert.Equal(t, "second", f.step)
	assert.ErrorIs(t, f.cause, context.DeadlineExceeded)
	assert.True(t, f.unwound)
	assert.Empty(t, f.residue)
	assert.Equal(t, []string{"second", "first"}, undone)
}

func TestSagaSkipsUndoOfRejectedStep(t *testing.T) {
	var undone []string
	sg := &saga{enter: func(State) {}, log: zap.NewNop()}
	sg.add(step{
		state:      StatePersistingInvoice,
		name:       "insert",
		forward:    func(context.Context) error { return errors.New("duplicate") },
		compensate: func(context.Context) error { undone = append(undone, "insert"); return nil },
	})

	f := sg.run(context.Background())

	require.NotNil(t, f)
	assert.False(t, f.unwound)
	assert.Empty(t, undone)
}
