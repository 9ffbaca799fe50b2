package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

// Catalog reads customers and products of an organization.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) FindCustomer(ctx context.Context, organizationID, customerID string) (*models.Customer, error) {
	var customer models.Customer
	err := c.db.WithContext(ctx).Scopes(OrgScope(organizationID)).Where("id = ?", customerID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("customer not found: %w", invoicing.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("find customer", err)
	}
	return &customer, nil
}

func (c *Catalog) FindProduct(ctx context.Context, organizationID, productID string) (*models.Product, error) {
	var product models.Product
	err := c.db.WithContext(ctx).Scopes(OrgScope(organizationID)).Where("id = ?", productID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not found: %w", invoicing.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("find product", err)
	}
	return &product, nil
}

func (c *Catalog) ListCustomers(ctx context.Context, organizationID string) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := c.db.WithContext(ctx).Scopes(OrgScope(organizationID)).Order("name ASC").Find(&customers).Error; err != nil {
		return nil, wrap("list customers", err)
	}
	return customers, nil
}

func (c *Catalog) ListProducts(ctx context.Context, organizationID string) ([]models.Product, error) {
	products := []models.Product{}
	if err := c.db.WithContext(ctx).Scopes(OrgScope(organizationID)).Order("name ASC").Find(&products).Error; err != nil {
		return nil, wrap("list products", err)
	}
	return products, nil
}
