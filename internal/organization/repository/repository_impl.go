package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloudunify/cloudunify/internal/ingest/identity"
	orgdomain "github.com/cloudunify/cloudunify/internal/organization/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() orgdomain.Repository {
	return &repo{}
}

func (r *repo) FindOrganization(ctx context.Context, db *gorm.DB, id string) (*orgdomain.Organization, error) {
	var org orgdomain.Organization
	err := db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repo) FindOrganizationBySlug(ctx context.Context, db *gorm.DB, slug string) (*orgdomain.Organization, error) {
	var org orgdomain.Organization
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repo) EnsureOrganization(ctx context.Context, db *gorm.DB, name, slug string) (*orgdomain.Organization, error) {
	now := time.Now().UTC()
	org := orgdomain.Organization{
		ID:        identity.NewID(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&org).Error
	if err != nil {
		return nil, err
	}

	// On conflict the generated id was discarded; read the winning row back.
	var stored orgdomain.Organization
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repo) FindCloudAccount(ctx context.Context, db *gorm.DB, organizationID, provider string) (*orgdomain.CloudAccount, error) {
	var accounts []orgdomain.CloudAccount
	err := db.WithContext(ctx).
		Where("organization_id = ? AND provider = ? AND is_active = ?", organizationID, provider, true).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	// Only an unambiguous match resolves; callers must pass an explicit id
	// when the organization has several accounts for one provider.
	if len(accounts) != 1 {
		return nil, nil
	}
	return &accounts[0], nil
}

func (r *repo) EnsureCloudAccount(ctx context.Context, db *gorm.DB, organizationID, provider, accountExternalID, accountName string) (*orgdomain.CloudAccount, error) {
	now := time.Now().UTC()
	account := orgdomain.CloudAccount{
		ID:                identity.NewID(),
		OrganizationID:    organizationID,
		Provider:          provider,
		AccountExternalID: accountExternalID,
		AccountName:       accountName,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "provider"}, {Name: "account_external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_name", "is_active", "updated_at"}),
	}).Create(&account).Error
	if err != nil {
		return nil, err
	}

	var stored orgdomain.CloudAccount
	err = db.WithContext(ctx).
		Where("organization_id = ? AND provider = ? AND account_external_id = ?", organizationID, provider, accountExternalID).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
