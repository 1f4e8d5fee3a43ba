package repository

import (
	"context"
	"strings"
	"time"

	ingestdomain "github.com/cloudunify/cloudunify/internal/ingest/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keyChunkSize bounds how many composite keys go into one set-membership
// query round trip.
const keyChunkSize = 1000

type repo struct{}

func Provide() ingestdomain.Repository {
	return &repo{}
}

// resourceConflictKey is the declared upsert conflict target for resources.
var resourceConflictKey = []clause.Column{
	{Name: "organization_id"},
	{Name: "provider"},
	{Name: "resource_id"},
}

// resourceReplaceFields are overwritten from the incoming row on conflict.
// id, the natural-key columns and created_at are never touched.
var resourceReplaceFields = []string{
	"cloud_account_id",
	"resource_type",
	"region",
	"state",
	"tags",
	"cost_daily",
	"cost_monthly",
	"updated_at",
}

var costConflictKey = []clause.Column{
	{Name: "organization_id"},
	{Name: "cloud_account_id"},
	{Name: "provider"},
	{Name: "service_name"},
	{Name: "region"},
	{Name: "cost_date"},
}

// costReplaceFields implement replace semantics: re-ingesting a corrected row
// for the same day overwrites, never sums.
var costReplaceFields = []string{
	"usage_quantity",
	"usage_unit",
	"cost_amount",
	"currency",
	"updated_at",
}

var recommendationReplaceFields = []string{
	"organization_id",
	"resource_id",
	"recommendation_type",
	"priority",
	"potential_savings_monthly",
	"description",
	"action_items",
	"updated_at",
}

var resourceCostReplaceFields = []string{
	"organization_id",
	"cost_daily",
	"currency",
	"updated_at",
}

func (r *repo) UpsertResources(ctx context.Context, db *gorm.DB, rows []ingestdomain.Resource) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   resourceConflictKey,
		DoUpdates: clause.AssignmentColumns(resourceReplaceFields),
	}).Create(&rows).Error
}

func (r *repo) UpsertCosts(ctx context.Context, db *gorm.DB, rows []ingestdomain.Cost) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   costConflictKey,
		DoUpdates: clause.AssignmentColumns(costReplaceFields),
	}).Create(&rows).Error
}

func (r *repo) UpsertRecommendations(ctx context.Context, db *gorm.DB, rows []ingestdomain.Recommendation) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(recommendationReplaceFields),
	}).Create(&rows).Error
}

func (r *repo) UpsertResourceCostsDaily(ctx context.Context, db *gorm.DB, rows []ingestdomain.ResourceCostDaily) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}, {Name: "usage_date"}},
		DoUpdates: clause.AssignmentColumns(resourceCostReplaceFields),
	}).Create(&rows).Error
}

func (r *repo) ExistingResourceKeys(ctx context.Context, db *gorm.DB, keys []ingestdomain.ResourceKey) (map[ingestdomain.ResourceKey]struct{}, error) {
	existing := make(map[ingestdomain.ResourceKey]struct{}, len(keys))
	for start := 0; start < len(keys); start += keyChunkSize {
		chunk := keys[start:min(start+keyChunkSize, len(keys))]

		args := make([]interface{}, 0, len(chunk)*3)
		for _, k := range chunk {
			args = append(args, k.OrganizationID, k.Provider, k.ResourceID)
		}

		var found []ingestdomain.ResourceKey
		err := db.WithContext(ctx).Raw(
			`SELECT organization_id, provider, resource_id FROM resources
			 WHERE (organization_id, provider, resource_id) IN `+tuplePlaceholders(len(chunk), 3),
			args...,
		).Scan(&found).Error
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			existing[k] = struct{}{}
		}
	}
	return existing, nil
}

func (r *repo) ExistingCostKeys(ctx context.Context, db *gorm.DB, keys []ingestdomain.CostKey) (map[ingestdomain.CostKey]struct{}, error) {
	existing := make(map[ingestdomain.CostKey]struct{}, len(keys))
	for start := 0; start < len(keys); start += keyChunkSize {
		chunk := keys[start:min(start+keyChunkSize, len(keys))]

		args := make([]interface{}, 0, len(chunk)*6)
		for _, k := range chunk {
			args = append(args, k.OrganizationID, k.CloudAccountID, k.Provider, k.ServiceName, k.Region, dateArg(k.CostDate))
		}

		var found []struct {
			OrganizationID string
			CloudAccountID string
			Provider       string
			ServiceName    string
			Region         string
			CostDate       time.Time
		}
		err := db.WithContext(ctx).Raw(
			`SELECT organization_id, cloud_account_id, provider, service_name, region, cost_date FROM costs
			 WHERE (organization_id, cloud_account_id, provider, service_name, region, cost_date) IN `+tuplePlaceholders(len(chunk), 6),
			args...,
		).Scan(&found).Error
		if err != nil {
			return nil, err
		}
		for _, row := range found {
			existing[ingestdomain.CostKey{
				OrganizationID: row.OrganizationID,
				CloudAccountID: row.CloudAccountID,
				Provider:       row.Provider,
				ServiceName:    row.ServiceName,
				Region:         row.Region,
				CostDate:       row.CostDate.UTC().Format(time.DateOnly),
			}] = struct{}{}
		}
	}
	return existing, nil
}

func (r *repo) ExistingRecommendationIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	for start := 0; start < len(ids); start += keyChunkSize {
		chunk := ids[start:min(start+keyChunkSize, len(ids))]

		var found []string
		err := db.WithContext(ctx).
			Model(&ingestdomain.Recommendation{}).
			Where("id IN ?", chunk).
			Pluck("id", &found).Error
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

func (r *repo) ExistingResourceCostKeys(ctx context.Context, db *gorm.DB, keys []ingestdomain.ResourceCostKey) (map[ingestdomain.ResourceCostKey]struct{}, error) {
	existing := make(map[ingestdomain.ResourceCostKey]struct{}, len(keys))
	for start := 0; start < len(keys); start += keyChunkSize {
		chunk := keys[start:min(start+keyChunkSize, len(keys))]

		args := make([]interface{}, 0, len(chunk)*2)
		for _, k := range chunk {
			args = append(args, k.ResourceID, dateArg(k.UsageDate))
		}

		var found []struct {
			ResourceID string
			UsageDate  time.Time
		}
		err := db.WithContext(ctx).Raw(
			`SELECT resource_id, usage_date FROM resource_costs_daily
			 WHERE (resource_id, usage_date) IN `+tuplePlaceholders(len(chunk), 2),
			args...,
		).Scan(&found).Error
		if err != nil {
			return nil, err
		}
		for _, row := range found {
			existing[ingestdomain.ResourceCostKey{
				ResourceID: row.ResourceID,
				UsageDate:  row.UsageDate.UTC().Format(time.DateOnly),
			}] = struct{}{}
		}
	}
	return existing, nil
}

func (r *repo) FindResourceID(ctx context.Context, db *gorm.DB, organizationID, provider, externalResourceID string) (string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&ingestdomain.Resource{}).
		Where("organization_id = ? AND provider = ? AND resource_id = ?", organizationID, provider, externalResourceID).
		Order("created_at ASC").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// dateArg turns a normalized YYYY-MM-DD key component back into the value
// type the date column was written with, so equality holds on every backend.
func dateArg(isoDate string) interface{} {
	t, err := time.ParseInLocation(time.DateOnly, isoDate, time.UTC)
	if err != nil {
		return isoDate
	}
	return t
}

// tuplePlaceholders renders "((?,?),(?,?))" for n tuples of the given width.
func tuplePlaceholders(n, width int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", width), ",") + ")"
	var b strings.Builder
	b.WriteString("(")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(tuple)
	}
	b.WriteString(")")
	return b.String()
}
