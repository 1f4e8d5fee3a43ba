package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudunify/cloudunify/internal/clock"
	ingestdomain "github.com/cloudunify/cloudunify/internal/ingest/domain"
	"github.com/cloudunify/cloudunify/internal/ingest/identity"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  ingestdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  ingestdomain.Repository
}

func New(p Params) ingestdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ingest.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) IngestResources(ctx context.Context, items []json.RawMessage, opts ingestdomain.Options) (*ingestdomain.BulkResult, error) {
	started := time.Now()
	valid, rowErrs := decodeRows[ingestdomain.ResourceRow](items)
	if len(valid) == 0 {
		return &ingestdomain.BulkResult{Errors: rowErrs}, ingestdomain.ErrAllRowsInvalid
	}

	inserted, updated, err := s.UpsertResources(ctx, valid, opts)
	if err != nil {
		return nil, err
	}

	s.log.Info("resources bulk processed",
		zap.Int("items", len(items)),
		zap.Int("valid", len(valid)),
		zap.Int("errors", len(rowErrs)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &ingestdomain.BulkResult{Inserted: inserted, Updated: updated, Errors: rowErrs}, nil
}

func (s *Service) IngestCosts(ctx context.Context, items []json.RawMessage, opts ingestdomain.Options) (*ingestdomain.BulkResult, error) {
	started := time.Now()
	valid, rowErrs := decodeRows[ingestdomain.CostRow](items)
	if len(valid) == 0 {
		return &ingestdomain.BulkResult{Errors: rowErrs}, ingestdomain.ErrAllRowsInvalid
	}

	inserted, updated, err := s.UpsertCosts(ctx, valid, opts)
	if err != nil {
		return nil, err
	}

	s.log.Info("costs bulk processed",
		zap.Int("items", len(items)),
		zap.Int("valid", len(valid)),
		zap.Int("errors", len(rowErrs)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &ingestdomain.BulkResult{Inserted: inserted, Updated: updated, Errors: rowErrs}, nil
}

// UpsertResources applies one batched insert-on-conflict for the rows inside
// a single transaction. The existence snapshot taken in the same transaction
// drives the inserted/updated split; the write itself never branches on it.
func (s *Service) UpsertResources(ctx context.Context, rows []ingestdomain.ResourceRow, opts ingestdomain.Options) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	keys := make([]ingestdomain.ResourceKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key())
	}

	now := s.clock.Now()
	models := make([]ingestdomain.Resource, 0, len(rows))
	for _, row := range rows {
		createdAt := now
		if row.CreatedAt != nil {
			createdAt = row.CreatedAt.UTC()
		}
		models = append(models, ingestdomain.Resource{
			ID:             identity.NewID(),
			OrganizationID: row.OrganizationID,
			CloudAccountID: row.CloudAccountID,
			Provider:       row.Provider,
			ResourceID:     row.ResourceID,
			ResourceType:   row.ResourceType,
			Region:         row.Region,
			State:          row.State,
			Tags:           tagsToJSON(row.Tags),
			CostDaily:      nullDecimal(row.CostDaily),
			CostMonthly:    nullDecimal(row.CostMonthly),
			CreatedAt:      createdAt,
			UpdatedAt:      now,
		})
	}

	var existing map[ingestdomain.ResourceKey]struct{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		existing, txErr = s.repo.ExistingResourceKeys(ctx, tx, keys)
		if txErr != nil {
			return txErr
		}
		if !opts.Commit {
			return nil
		}
		return s.repo.UpsertResources(ctx, tx, models)
	})
	if err != nil {
		return 0, 0, err
	}
	return len(rows) - len(existing), len(existing), nil
}

// UpsertCosts applies replace semantics on the cost natural key: mutable
// fields are overwritten by the submitted values, never accumulated.
func (s *Service) UpsertCosts(ctx context.Context, rows []ingestdomain.CostRow, opts ingestdomain.Options) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	keys := make([]ingestdomain.CostKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key())
	}

	now := s.clock.Now()
	models := make([]ingestdomain.Cost, 0, len(rows))
	for _, row := range rows {
		models = append(models, ingestdomain.Cost{
			ID:             identity.NewID(),
			OrganizationID: row.OrganizationID,
			CloudAccountID: row.CloudAccountID,
			Provider:       row.Provider,
			ServiceName:    row.ServiceName,
			Region:         row.Region,
			CostDate:       row.CostDate.Time,
			UsageQuantity:  row.UsageQuantity,
			UsageUnit:      row.UsageUnit,
			CostAmount:     row.CostAmount,
			Currency:       row.Currency,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	var existing map[ingestdomain.CostKey]struct{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		existing, txErr = s.repo.ExistingCostKeys(ctx, tx, keys)
		if txErr != nil {
			return txErr
		}
		if !opts.Commit {
			return nil
		}
		return s.repo.UpsertCosts(ctx, tx, models)
	})
	if err != nil {
		return 0, 0, err
	}
	return len(rows) - len(existing), len(existing), nil
}

// UpsertRecommendations collapses rows without a caller-supplied id onto a
// derived identifier, so reruns of the same logical suggestion update one row.
func (s *Service) UpsertRecommendations(ctx context.Context, rows []ingestdomain.RecommendationRow, opts ingestdomain.Options) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	now := s.clock.Now()
	ids := make([]string, 0, len(rows))
	models := make([]ingestdomain.Recommendation, 0, len(rows))
	for _, row := range rows {
		id := row.ID
		if id == "" {
			id = identity.DeriveID(identity.NamespaceRecommendation,
				row.OrganizationID,
				row.Provider,
				row.ExternalID,
				row.ExternalResourceID,
				row.RecommendationType,
				row.Description,
			)
		}
		ids = append(ids, id)
		models = append(models, ingestdomain.Recommendation{
			ID:                      id,
			OrganizationID:          row.OrganizationID,
			ResourceID:              row.ResourceID,
			RecommendationType:      row.RecommendationType,
			Priority:                row.Priority,
			PotentialSavingsMonthly: nullDecimal(row.PotentialSavingsMonthly),
			Description:             row.Description,
			ActionItems:             datatypes.NewJSONSlice(row.ActionItems),
			CreatedAt:               now,
			UpdatedAt:               now,
		})
	}

	var existing map[string]struct{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		existing, txErr = s.repo.ExistingRecommendationIDs(ctx, tx, ids)
		if txErr != nil {
			return txErr
		}
		if !opts.Commit {
			return nil
		}
		return s.repo.UpsertRecommendations(ctx, tx, models)
	})
	if err != nil {
		return 0, 0, err
	}
	return len(rows) - len(existing), len(existing), nil
}

func (s *Service) UpsertResourceCostsDaily(ctx context.Context, rows []ingestdomain.ResourceCostRow, opts ingestdomain.Options) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	now := s.clock.Now()
	keys := make([]ingestdomain.ResourceCostKey, 0, len(rows))
	models := make([]ingestdomain.ResourceCostDaily, 0, len(rows))
	for _, row := range rows {
		day := row.UsageDate.UTC().Format(time.DateOnly)
		keys = append(keys, ingestdomain.ResourceCostKey{ResourceID: row.ResourceID, UsageDate: day})
		models = append(models, ingestdomain.ResourceCostDaily{
			ID:             identity.DeriveID(identity.NamespaceResourceCost, row.OrganizationID, row.ResourceID, day),
			OrganizationID: row.OrganizationID,
			ResourceID:     row.ResourceID,
			UsageDate:      row.UsageDate.UTC().Truncate(24 * time.Hour),
			CostDaily:      row.CostDaily,
			Currency:       row.Currency,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	var existing map[ingestdomain.ResourceCostKey]struct{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		existing, txErr = s.repo.ExistingResourceCostKeys(ctx, tx, keys)
		if txErr != nil {
			return txErr
		}
		if !opts.Commit {
			return nil
		}
		return s.repo.UpsertResourceCostsDaily(ctx, tx, models)
	})
	if err != nil {
		return 0, 0, err
	}
	return len(rows) - len(existing), len(existing), nil
}

func (s *Service) ResolveResourceID(ctx context.Context, organizationID, provider, externalResourceID string) (string, error) {
	return s.repo.FindResourceID(ctx, s.db, organizationID, provider, externalResourceID)
}

func tagsToJSON(tags map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
