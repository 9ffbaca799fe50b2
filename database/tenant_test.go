package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/invoicing"
	"invoicing-backend/models"
)

func TestOrganizationResolverBootstrapsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewOrganizationResolver(db, "")

	first, err := r.Resolve(ctx, "user-1", "")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := r.Resolve(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	var org models.Organization
	require.NoError(t, db.First(&org, "id = ?", first).Error)
	assert.Equal(t, "My Organization", org.Name)
	assert.Equal(t, "user-1", org.OwnerID)

	var members []models.OrganizationMember
	require.NoError(t, db.Where("user_id = ?", "user-1").Find(&members).Error)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleOwner, members[0].Role)
}

func TestOrganizationResolverPreferred(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewOrganizationResolver(db, "Default")

	own, err := r.Bootstrap(ctx, "user-1", "  Acme  ")
	require.NoError(t, err)
	foreign, err := r.Bootstrap(ctx, "user-2", "")
	require.NoError(t, err)

	got, err := r.Resolve(ctx, "user-1", own)
	require.NoError(t, err)
	assert.Equal(t, own, got)

	_, err = r.Resolve(ctx, "user-1", foreign)
	assert.ErrorIs(t, err, invoicing.ErrUnauthenticated)

	var org models.Organization
	require.NoError(t, db.First(&org, "id = ?", own).Error)
	assert.Equal(t, "Acme", org.Name)
	require.NoError(t, db.First(&org, "id = ?", foreign).Error)
	assert.Equal(t, "Default", org.Name)
}

func TestOrganizationResolverBootstrapReusesMembership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewOrganizationResolver(db, "")

	first, err := r.Bootstrap(ctx, "user-1", "Acme")
	require.NoError(t, err)
	second, err := r.Bootstrap(ctx, "user-1", "Other")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int64
	require.NoError(t, db.Model(&models.Organization{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOrganizationResolverRequiresUser(t *testing.T) {
	r := NewOrganizationResolver(newTestDB(t), "")
	_, err := r.Resolve(context.Background(), " ", "")
	assert.ErrorIs(t, err, invoicing.ErrUnauthenticated)
}
