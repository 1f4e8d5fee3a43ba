package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// Options controls how a batch is applied. Commit=false performs the
// existence-check phase only and reports the counts a real run would produce.
type Options struct {
	Commit bool
}

// RowError describes one invalid input row.
type RowError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BulkResult summarizes one bulk call.
type BulkResult struct {
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Errors   []RowError `json:"errors"`
}

// ErrAllRowsInvalid is returned alongside a zero-count BulkResult when every
// item of a batch fails validation; the HTTP layer maps it to a client error.
var ErrAllRowsInvalid = errors.New("all rows failed validation")

// Service validates raw batches row-by-row with partial-success semantics and
// applies them through conflict-safe batched upserts. The typed Upsert*
// methods are the shared write path used by both the HTTP layer and the
// offline loader.
type Service interface {
	IngestResources(ctx context.Context, items []json.RawMessage, opts Options) (*BulkResult, error)
	IngestCosts(ctx context.Context, items []json.RawMessage, opts Options) (*BulkResult, error)

	UpsertResources(ctx context.Context, rows []ResourceRow, opts Options) (inserted, updated int, err error)
	UpsertCosts(ctx context.Context, rows []CostRow, opts Options) (inserted, updated int, err error)
	UpsertRecommendations(ctx context.Context, rows []RecommendationRow, opts Options) (inserted, updated int, err error)
	UpsertResourceCostsDaily(ctx context.Context, rows []ResourceCostRow, opts Options) (inserted, updated int, err error)

	ResolveResourceID(ctx context.Context, organizationID, provider, externalResourceID string) (string, error)
}
