package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

// InventoryLedger moves stock with single conditional statements, so
// concurrent invoices can never drive quantity_on_hand below zero. Every
// tracked decrement is written together with a stock movement row.
type InventoryLedger struct {
	db *gorm.DB
}

func NewInventoryLedger(db *gorm.DB) *InventoryLedger {
	return &InventoryLedger{db: db}
}

type stockRow struct {
	QuantityOnHand int64
	ReorderLevel   int64
}

type movementRow struct {
	Quantity int64
}

func (l *InventoryLedger) Decrement(ctx context.Context, organizationID, productID, reference string, qty int64) (invoicing.StockLevel, error) {
	var level invoicing.StockLevel
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []stockRow
		err := tx.Raw(`UPDATE products
SET quantity_on_hand = quantity_on_hand - ?
WHERE id = ? AND organization_id = ? AND quantity_on_hand IS NOT NULL AND quantity_on_hand >= ?
RETURNING quantity_on_hand, reorder_level`, qty, productID, organizationID, qty).Scan(&rows).Error
		if err != nil {
			return wrap("decrement stock", err)
		}
		if len(rows) == 0 {
			level, err = shortfall(tx, organizationID, productID, qty)
			return err
		}
		level = invoicing.StockLevel{
			ProductID:    productID,
			Tracked:      true,
			OnHand:       rows[0].QuantityOnHand,
			ReorderLevel: rows[0].ReorderLevel,
		}
		movement := models.StockMovement{ID: reference, OrganizationID: organizationID, ProductID: productID, Quantity: qty}
		return wrap("record stock movement", tx.Create(&movement).Error)
	})
	if err != nil {
		return invoicing.StockLevel{}, classifyTx("decrement stock", err)
	}
	return level, nil
}

// shortfall explains a decrement that changed nothing.
func shortfall(tx *gorm.DB, organizationID, productID string, qty int64) (invoicing.StockLevel, error) {
	var product models.Product
	err := tx.Scopes(OrgScope(organizationID)).
		Select("id", "quantity_on_hand", "reorder_level").
		Where("id = ?", productID).First(&product).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return invoicing.StockLevel{}, &invoicing.StockError{ProductID: productID, Requested: qty, Err: invoicing.ErrNotFound}
	case err != nil:
		return invoicing.StockLevel{}, wrap("read stock", err)
	case !product.StockTracked():
		return invoicing.StockLevel{ProductID: productID}, nil
	default:
		return invoicing.StockLevel{}, &invoicing.StockError{ProductID: productID, Requested: qty, Err: invoicing.ErrInsufficientStock}
	}
}

// Restore reverses the movement recorded under reference. It is a no-op when
// no such movement exists.
func (l *InventoryLedger) Restore(ctx context.Context, organizationID, productID, reference string) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the product row first: a decrement of it that is still
		// committing finishes before the movement is looked up.
		err := tx.Exec(`UPDATE products SET quantity_on_hand = quantity_on_hand
WHERE id = ? AND organization_id = ?`, productID, organizationID).Error
		if err != nil {
			return wrap("lock product", err)
		}

		var issued []movementRow
		err = tx.Raw(`DELETE FROM stock_movements
WHERE id = ? AND organization_id = ? AND product_id = ?
RETURNING quantity`, reference, organizationID, productID).Scan(&issued).Error
		if err != nil {
			return wrap("delete stock movement", err)
		}
		if len(issued) == 0 {
			return nil
		}

		res := tx.Exec(`UPDATE products
SET quantity_on_hand = quantity_on_hand + ?
WHERE id = ? AND organization_id = ? AND quantity_on_hand IS NOT NULL`, issued[0].Quantity, productID, organizationID)
		if res.Error != nil {
			return wrap("restore stock", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: restore stock: product %s is not stock tracked", invoicing.ErrPersistence, productID)
		}
		return nil
	})
	return classifyTx("restore stock", err)
}

// classifyTx keeps errors already mapped inside a transaction and wraps the
// ones raised by begin or commit.
func classifyTx(op string, err error) error {
	var stockErr *invoicing.StockError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &stockErr),
		errors.Is(err, invoicing.ErrPersistence),
		errors.Is(err, invoicing.ErrConflict):
		return err
	default:
		return wrap(op, err)
	}
}
