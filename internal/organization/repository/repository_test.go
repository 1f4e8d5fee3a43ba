package repository

import (
	"context"
	"fmt"
	"testing"

	orgdomain "github.com/cloudunify/cloudunify/internal/organization/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orgdomain.Organization{}, &orgdomain.CloudAccount{}))
	return db
}

func TestEnsureOrganization_IsIdempotentOnSlug(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	first, err := repo.EnsureOrganization(ctx, db, "CloudUnify Demo", "cloudunify-demo")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.EnsureOrganization(ctx, db, "CloudUnify Demo Renamed", "cloudunify-demo")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "CloudUnify Demo Renamed", second.Name)

	var count int64
	require.NoError(t, db.Model(&orgdomain.Organization{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindOrganizationBySlug(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	missing, err := repo.FindOrganizationBySlug(ctx, db, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.EnsureOrganization(ctx, db, "Acme", "acme")
	require.NoError(t, err)

	found, err := repo.FindOrganizationBySlug(ctx, db, "acme")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestEnsureCloudAccount_IsIdempotentOnNaturalKey(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	org, err := repo.EnsureOrganization(ctx, db, "Acme", "acme")
	require.NoError(t, err)

	first, err := repo.EnsureCloudAccount(ctx, db, org.ID, "aws", "mock-aws", "AWS Main")
	require.NoError(t, err)

	second, err := repo.EnsureCloudAccount(ctx, db, org.ID, "aws", "mock-aws", "AWS Production")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "AWS Production", second.AccountName)

	var count int64
	require.NoError(t, db.Model(&orgdomain.CloudAccount{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindCloudAccount_RequiresUnambiguousMatch(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	org, err := repo.EnsureOrganization(ctx, db, "Acme", "acme")
	require.NoError(t, err)

	account, err := repo.FindCloudAccount(ctx, db, org.ID, "aws")
	require.NoError(t, err)
	assert.Nil(t, account)

	_, err = repo.EnsureCloudAccount(ctx, db, org.ID, "aws", "acct-1", "AWS One")
	require.NoError(t, err)

	account, err = repo.FindCloudAccount(ctx, db, org.ID, "aws")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "acct-1", account.AccountExternalID)

	// Two active accounts for the same provider cannot be resolved implicitly.
	_, err = repo.EnsureCloudAccount(ctx, db, org.ID, "aws", "acct-2", "AWS Two")
	require.NoError(t, err)

	account, err = repo.FindCloudAccount(ctx, db, org.ID, "aws")
	require.NoError(t, err)
	assert.Nil(t, account)
}
