package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the storage contract for the ingestion core. Existence checks
// feed accounting only; the write path is always a single batched
// insert-on-conflict statement, so there is no check-then-act race between
// the two. Callers own the transaction boundary via the db handle they pass.
type Repository interface {
	ExistingResourceKeys(ctx context.Context, db *gorm.DB, keys []ResourceKey) (map[ResourceKey]struct{}, error)
	ExistingCostKeys(ctx context.Context, db *gorm.DB, keys []CostKey) (map[CostKey]struct{}, error)
	ExistingRecommendationIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]struct{}, error)
	ExistingResourceCostKeys(ctx context.Context, db *gorm.DB, keys []ResourceCostKey) (map[ResourceCostKey]struct{}, error)

	UpsertResources(ctx context.Context, db *gorm.DB, rows []Resource) error
	UpsertCosts(ctx context.Context, db *gorm.DB, rows []Cost) error
	UpsertRecommendations(ctx context.Context, db *gorm.DB, rows []Recommendation) error
	UpsertResourceCostsDaily(ctx context.Context, db *gorm.DB, rows []ResourceCostDaily) error

	FindResourceID(ctx context.Context, db *gorm.DB, organizationID, provider, externalResourceID string) (string, error)
}
