package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

// OrgScope restricts a query to rows of one organization.
func OrgScope(organizationID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_id = ?", organizationID)
	}
}

// OrganizationResolver maps an authenticated user to the organization their
// requests act on.
type OrganizationResolver struct {
	db          *gorm.DB
	defaultName string
}

func NewOrganizationResolver(db *gorm.DB, defaultName string) *OrganizationResolver {
	if strings.TrimSpace(defaultName) == "" {
		defaultName = "My Organization"
	}
	return &OrganizationResolver{db: db, defaultName: defaultName}
}

// Resolve returns the organization of userID. A preferred organization must
// be one the user belongs to. Users without any membership get a fresh
// organization they own.
func (r *OrganizationResolver) Resolve(ctx context.Context, userID, preferred string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", invoicing.ErrUnauthenticated
	}
	db := r.db.WithContext(ctx)

	if preferred = strings.TrimSpace(preferred); preferred != "" {
		var m models.OrganizationMember
		err := db.Where("organization_id = ? AND user_id = ?", preferred, userID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", invoicing.ErrUnauthenticated
		}
		if err != nil {
			return "", wrap("find membership", err)
		}
		return m.OrganizationID, nil
	}

	m, err := firstMembership(db, userID)
	if err != nil {
		return "", err
	}
	if m != nil {
		return m.OrganizationID, nil
	}
	return r.Bootstrap(ctx, userID, "")
}

// Bootstrap returns the user's existing organization or creates one named
// name together with an owner membership, in one transaction.
func (r *OrganizationResolver) Bootstrap(ctx context.Context, userID, name string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", invoicing.ErrUnauthenticated
	}
	if name = strings.TrimSpace(name); name == "" {
		name = r.defaultName
	}

	var orgID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := firstMembership(tx, userID)
		if err != nil {
			return err
		}
		if m != nil {
			orgID = m.OrganizationID
			return nil
		}
		org := models.Organization{Name: name, OwnerID: userID}
		if err := tx.Create(&org).Error; err != nil {
			return wrap("create organization", err)
		}
		member := models.OrganizationMember{OrganizationID: org.ID, UserID: userID, Role: models.RoleOwner}
		if err := tx.Create(&member).Error; err != nil {
			return wrap("create membership", err)
		}
		orgID = org.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return orgID, nil
}

func firstMembership(db *gorm.DB, userID string) (*models.OrganizationMember, error) {
	var m models.OrganizationMember
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find membership", err)
	}
	return &m, nil
}
