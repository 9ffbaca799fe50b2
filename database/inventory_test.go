package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

func TestInventoryLedgerDecrement(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	org := seedOrganization(t, db, "acme")
	other := seedOrganization(t, db, "globex")
	tracked := seedProduct(t, db, org, 10, 4)
	service := seedProduct(t, db, org, -1, 0)
	ledger := NewInventoryLedger(db)

	level, err := ledger.Decrement(ctx, org, tracked, "line-1", 6)
	require.NoError(t, err)
	assert.Equal(t, invoicing.StockLevel{ProductID: tracked, Tracked: true, OnHand: 4, ReorderLevel: 4}, level)
	assert.True(t, level.Low())

	_, err = ledger.Decrement(ctx, org, tracked, "line-2", 5)
	var serr *invoicing.StockError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, invoicing.ErrInsufficientStock)
	assert.Equal(t, int64(5), serr.Requested)
	assert.Equal(t, int64(4), *onHand(t, db, tracked))

	level, err = ledger.Decrement(ctx, org, service, "line-3", 3)
	require.NoError(t, err)
	assert.False(t, level.Tracked)
	assert.Nil(t, onHand(t, db, service))

	_, err = ledger.Decrement(ctx, other, tracked, "line-4", 1)
	assert.ErrorIs(t, err, invoicing.ErrNotFound)
	_, err = ledger.Decrement(ctx, org, "missing", "line-5", 1)
	assert.ErrorIs(t, err, invoicing.ErrNotFound)
	assert.Equal(t, int64(4), *onHand(t, db, tracked))

	var movements []models.StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, "line-1", movements[0].ID)
	assert.Equal(t, tracked, movements[0].ProductID)
	assert.Equal(t, int64(6), movements[0].Quantity)
}

func TestInventoryLedgerRestore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	org := seedOrganization(t, db, "acme")
	tracked := seedProduct(t, db, org, 10, 0)
	service := seedProduct(t, db, org, -1, 0)
	ledger := NewInventoryLedger(db)

	_, err := ledger.Decrement(ctx, org, tracked, "line-1", 3)
	require.NoError(t, err)
	_, err = ledger.Decrement(ctx, org, tracked, "line-2", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *onHand(t, db, tracked))

	require.NoError(t, ledger.Restore(ctx, org, tracked, "line-1"))
	assert.Equal(t, int64(8), *onHand(t, db, tracked))

	// a second reversal and one for a decrement that never happened change nothing
	require.NoError(t, ledger.Restore(ctx, org, tracked, "line-1"))
	require.NoError(t, ledger.Restore(ctx, org, tracked, "line-9"))
	require.NoError(t, ledger.Restore(ctx, org, service, "line-3"))
	assert.Equal(t, int64(8), *onHand(t, db, tracked))
	assert.Nil(t, onHand(t, db, service))

	var left int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestInventoryLedgerRestoreIgnoresOtherOrganization(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	org := seedOrganization(t, db, "acme")
	other := seedOrganization(t, db, "globex")
	tracked := seedProduct(t, db, org, 4, 0)
	ledger := NewInventoryLedger(db)

	_, err := ledger.Decrement(ctx, org, tracked, "line-1", 4)
	require.NoError(t, err)
	require.NoError(t, ledger.Restore(ctx, other, tracked, "line-1"))
	assert.Equal(t, int64(0), *onHand(t, db, tracked))
}

func TestInventoryLedgerNeverOversells(t *testing.T) {
	db := newTestDB(t)
	org := seedOrganization(t, db, "acme")
	product := seedProduct(t, db, org, 7, 0)
	ledger := NewInventoryLedger(db)

	var (
		g       errgroup.Group
		results = make(chan error, 20)
	)
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := ledger.Decrement(context.Background(), org, product, fmt.Sprintf("line-%d", i), 1)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	ok, short := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, invoicing.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 7, ok)
	assert.Equal(t, 13, short)
	assert.Equal(t, int64(0), *onHand(t, db, product))
}

func TestInventoryLedgerDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewInventoryLedger(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE products SET quantity_on_hand = quantity_on_hand - \$1`).
		WithArgs(int64(2), "p-1", "org-1", int64(2)).
		WillReturnError(errors.New("server closed the connection"))
	mock.ExpectRollback()

	_, err := ledger.Decrement(context.Background(), "org-1", "p-1", "line-1", 2)
	require.ErrorIs(t, err, invoicing.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
