// Package domain contains the tenant lookup entities consumed by ingestion.
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Organization is a tenant. Rows ingested into the cost tables are owned by
// the organization referenced in their foreign key.
type Organization struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Slug      string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Organization) TableName() string { return "organizations" }

// CloudAccount is a provider account registered to an organization.
type CloudAccount struct {
	ID                string    `gorm:"primaryKey"`
	OrganizationID    string    `gorm:"not null;index;uniqueIndex:uq_cloud_account_key,priority:1"`
	Provider          string    `gorm:"not null;uniqueIndex:uq_cloud_account_key,priority:2"`
	AccountExternalID string    `gorm:"not null;uniqueIndex:uq_cloud_account_key,priority:3"`
	AccountName       string    `gorm:"not null"`
	IsActive          bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (CloudAccount) TableName() string { return "cloud_accounts" }

// Repository resolves and provisions tenant lookup rows. Ensure* calls are
// idempotent upserts on the entity's natural key.
type Repository interface {
	FindOrganization(ctx context.Context, db *gorm.DB, id string) (*Organization, error)
	FindOrganizationBySlug(ctx context.Context, db *gorm.DB, slug string) (*Organization, error)
	EnsureOrganization(ctx context.Context, db *gorm.DB, name, slug string) (*Organization, error)
	FindCloudAccount(ctx context.Context, db *gorm.DB, organizationID, provider string) (*CloudAccount, error)
	EnsureCloudAccount(ctx context.Context, db *gorm.DB, organizationID, provider, accountExternalID, accountName string) (*CloudAccount, error)
}
