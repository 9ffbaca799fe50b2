package database

import (
	"fmt"

	"gorm.io/gorm"

	"invoicing-backend/models"
)

// Migrate creates or updates the schema. Tables, columns and tag indexes come
// from AutoMigrate; CHECK constraints are added on Postgres only.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Customer{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.InvoiceSequence{},
		&models.StockMovement{},
		&models.IdempotencyKey{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_invoice_line_items_invoice_position ON invoice_line_items (invoice_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_org_created ON invoices (organization_id, created_at)`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
		}
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	checks := []struct{ table, name, expr string }{
		{"products", "chk_products_on_hand_nonneg", "quantity_on_hand IS NULL OR quantity_on_hand >= 0"},
		{"products", "chk_products_unit_price_nonneg", "unit_price >= 0"},
		{"invoice_line_items", "chk_invoice_line_items_quantity_pos", "quantity > 0"},
		{"invoice_line_items", "chk_invoice_line_items_unit_price_nonneg", "unit_price >= 0"},
		{"invoice_line_items", "chk_invoice_line_items_tax_rate_nonneg", "tax_rate >= 0"},
		{"stock_movements", "chk_stock_movements_quantity_pos", "quantity > 0"},
	}
	for _, c := range checks {
		stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%[1]s'::regclass
		  AND conname  = '%[2]s'
	) THEN
		ALTER TABLE %[1]s ADD CONSTRAINT %[2]s CHECK (%[3]s);
	END IF;
END $$;`, c.table, c.name, c.expr)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("check constraint %s failed: %w", c.name, err)
		}
	}
	return nil
}
