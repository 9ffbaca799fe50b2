package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"invoicing-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(sqlite.Open(dsn), zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func seedOrganization(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	org := models.Organization{Name: name, OwnerID: "owner-" + name}
	require.NoError(t, db.Create(&org).Error)
	return org.ID
}

func seedCustomer(t *testing.T, db *gorm.DB, orgID, name string) string {
	t.Helper()
	c := models.Customer{OrganizationID: orgID, Name: name, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c.ID
}

// seedProduct creates a product; onHand < 0 makes it a service item.
func seedProduct(t *testing.T, db *gorm.DB, orgID string, onHand, reorder int64) string {
	t.Helper()
	p := models.Product{
		OrganizationID: orgID,
		Name:           "product",
		UnitPrice:      decimal.RequireFromString("9.99"),
		TaxRate:        decimal.RequireFromString("0.2"),
		ReorderLevel:   reorder,
		IsActive:       true,
	}
	if onHand >= 0 {
		p.QuantityOnHand = &onHand
	}
	require.NoError(t, db.Create(&p).Error)
	return p.ID
}

func onHand(t *testing.T, db *gorm.DB, productID string) *int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.QuantityOnHand
}
