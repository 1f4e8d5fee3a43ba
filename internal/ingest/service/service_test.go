package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/cloudunify/cloudunify/internal/clock"
	ingestdomain "github.com/cloudunify/cloudunify/internal/ingest/domain"
	"github.com/cloudunify/cloudunify/internal/ingest/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ingestdomain.Resource{},
		&ingestdomain.Cost{},
		&ingestdomain.Recommendation{},
		&ingestdomain.ResourceCostDaily{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		Clock: clock.NewFakeClock(time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc.(*Service), db
}

func rawItems(t *testing.T, items ...map[string]any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		require.NoError(t, err)
		out = append(out, data)
	}
	return out
}

func resourceItem(overrides map[string]any) map[string]any {
	item := map[string]any{
		"organization_id":  "org-1",
		"cloud_account_id": "acct-1",
		"provider":         "aws",
		"resource_id":      "i-abc123",
		"resource_type":    "ec2",
		"region":           "us-east-1",
		"state":            "running",
		"tags":             map[string]string{"env": "prod"},
	}
	for k, v := range overrides {
		item[k] = v
	}
	return item
}

func costItem(overrides map[string]any) map[string]any {
	item := map[string]any{
		"organization_id":  "org-1",
		"cloud_account_id": "acct-1",
		"provider":         "aws",
		"service_name":     "AmazonEC2",
		"region":           "us-east-1",
		"cost_date":        "2025-12-01",
		"usage_quantity":   "24",
		"usage_unit":       "hours",
		"cost_amount":      "5.5",
		"currency":         "usd",
	}
	for k, v := range overrides {
		item[k] = v
	}
	return item
}

func TestIngestResources_PartialSuccess(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	items := rawItems(t,
		resourceItem(nil),
		resourceItem(map[string]any{"resource_id": ""}),
		resourceItem(map[string]any{"resource_id": "i-def456"}),
	)

	result, err := svc.IngestResources(ctx, items, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Contains(t, result.Errors[0].Message, "resource_id")

	var count int64
	require.NoError(t, db.Model(&ingestdomain.Resource{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestIngestResources_AllInvalid(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	items := rawItems(t,
		resourceItem(map[string]any{"provider": "oracle"}),
		resourceItem(map[string]any{"organization_id": ""}),
	)
	items = append(items, json.RawMessage(`{"not json`))

	result, err := svc.IngestResources(ctx, items, ingestdomain.Options{Commit: true})
	require.ErrorIs(t, err, ingestdomain.ErrAllRowsInvalid)
	require.NotNil(t, result)
	assert.Zero(t, result.Inserted)
	assert.Zero(t, result.Updated)
	assert.Len(t, result.Errors, 3)

	var count int64
	require.NoError(t, db.Model(&ingestdomain.Resource{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpsertResources_RerunUpdatesInPlace(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	rows := []ingestdomain.ResourceRow{
		{
			OrganizationID: "org-1", CloudAccountID: "acct-1", Provider: "aws",
			ResourceID: "i-abc123", ResourceType: "ec2", Region: "us-east-1", State: "running",
		},
		{
			OrganizationID: "org-1", CloudAccountID: "acct-1", Provider: "aws",
			ResourceID: "i-def456", ResourceType: "ec2", Region: "us-east-1", State: "running",
		},
	}
	for i := range rows {
		require.NoError(t, rows[i].Validate())
	}

	inserted, updated, err := svc.UpsertResources(ctx, rows, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, updated)

	// Re-ingest with a changed mutable field.
	rows[0].State = "stopped"
	for n := 0; n < 3; n++ {
		inserted, updated, err = svc.UpsertResources(ctx, rows, ingestdomain.Options{Commit: true})
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)
		assert.Equal(t, 2, updated)
	}

	var count int64
	require.NoError(t, db.Model(&ingestdomain.Resource{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var stored ingestdomain.Resource
	require.NoError(t, db.Where("resource_id = ?", "i-abc123").First(&stored).Error)
	assert.Equal(t, "stopped", stored.State)
}

func TestUpsertCosts_ReplacesInsteadOfAccumulating(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	items := rawItems(t, costItem(nil))
	result, err := svc.IngestCosts(ctx, items, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)

	items = rawItems(t, costItem(map[string]any{"cost_amount": "7.0"}))
	result, err = svc.IngestCosts(ctx, items, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Updated)

	var stored []ingestdomain.Cost
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].CostAmount.Equal(decimal.RequireFromString("7.0")),
		"cost_amount should be replaced, got %s", stored[0].CostAmount)
}

func TestIngestCosts_NormalizesCurrency(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.IngestCosts(ctx, rawItems(t, costItem(map[string]any{"currency": "usd"})), ingestdomain.Options{Commit: true})
	require.NoError(t, err)

	var stored ingestdomain.Cost
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "USD", stored.Currency)
}

func TestIngestCosts_RejectsMalformedDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.IngestCosts(ctx, rawItems(t, costItem(map[string]any{"cost_date": "12/01/2025"})), ingestdomain.Options{Commit: true})
	require.ErrorIs(t, err, ingestdomain.ErrAllRowsInvalid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "cost_date")
}

func TestUpsertResources_DryRunWritesNothing(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	rows := []ingestdomain.ResourceRow{{
		OrganizationID: "org-1", CloudAccountID: "acct-1", Provider: "aws",
		ResourceID: "i-abc123", ResourceType: "ec2", Region: "us-east-1", State: "running",
	}}
	require.NoError(t, rows[0].Validate())

	inserted, updated, err := svc.UpsertResources(ctx, rows, ingestdomain.Options{Commit: false})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, updated)

	var count int64
	require.NoError(t, db.Model(&ingestdomain.Resource{}).Count(&count).Error)
	assert.Zero(t, count)

	// The real run produces the counts the dry run predicted.
	inserted, updated, err = svc.UpsertResources(ctx, rows, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, updated)
}

func TestUpsertRecommendations_DerivedIDCollapsesReruns(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	savings := decimal.RequireFromString("42.50")
	row := ingestdomain.RecommendationRow{
		ExternalID:              "rec-001",
		OrganizationID:          "org-1",
		Provider:                "aws",
		ExternalResourceID:      "i-abc123",
		RecommendationType:      "rightsizing",
		Priority:                "high",
		PotentialSavingsMonthly: &savings,
		Description:             "Downsize to t3.medium",
		ActionItems:             []string{"Resize instance"},
	}
	require.NoError(t, row.Validate())

	inserted, updated, err := svc.UpsertRecommendations(ctx, []ingestdomain.RecommendationRow{row}, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, updated)

	inserted, updated, err = svc.UpsertRecommendations(ctx, []ingestdomain.RecommendationRow{row}, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, updated)

	var count int64
	require.NoError(t, db.Model(&ingestdomain.Recommendation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertRecommendations_KeepsSuppliedID(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	row := ingestdomain.RecommendationRow{
		ID:                 "3f0c8dbb-2f6e-4cc1-97a4-0f6d1a9e2b11",
		OrganizationID:     "org-1",
		Provider:           "aws",
		RecommendationType: "idle",
		Priority:           "bogus",
	}
	require.NoError(t, row.Validate())
	assert.Equal(t, "medium", row.Priority)

	_, _, err := svc.UpsertRecommendations(ctx, []ingestdomain.RecommendationRow{row}, ingestdomain.Options{Commit: true})
	require.NoError(t, err)

	var stored ingestdomain.Recommendation
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "3f0c8dbb-2f6e-4cc1-97a4-0f6d1a9e2b11", stored.ID)
	assert.Equal(t, "medium", stored.Priority)
}

func TestUpsertResourceCostsDaily_RerunIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	row := ingestdomain.ResourceCostRow{
		OrganizationID: "org-1",
		ResourceID:     "res-internal-1",
		UsageDate:      time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		CostDaily:      decimal.RequireFromString("3.25"),
		Currency:       "usd",
	}
	require.NoError(t, row.Validate())
	assert.Equal(t, "USD", row.Currency)

	inserted, updated, err := svc.UpsertResourceCostsDaily(ctx, []ingestdomain.ResourceCostRow{row}, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, updated)

	row.CostDaily = decimal.RequireFromString("4.10")
	inserted, updated, err = svc.UpsertResourceCostsDaily(ctx, []ingestdomain.ResourceCostRow{row}, ingestdomain.Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, updated)

	var stored []ingestdomain.ResourceCostDaily
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].CostDaily.Equal(decimal.RequireFromString("4.10")))
}

func TestResolveResourceID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rows := []ingestdomain.ResourceRow{{
		OrganizationID: "org-1", CloudAccountID: "acct-1", Provider: "aws",
		ResourceID: "i-abc123", ResourceType: "ec2", Region: "us-east-1", State: "running",
	}}
	require.NoError(t, rows[0].Validate())
	_, _, err := svc.UpsertResources(ctx, rows, ingestdomain.Options{Commit: true})
	require.NoError(t, err)

	id, err := svc.ResolveResourceID(ctx, "org-1", "aws", "i-abc123")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	missing, err := svc.ResolveResourceID(ctx, "org-1", "aws", "i-unknown")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
