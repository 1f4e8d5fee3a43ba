package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudunify/cloudunify/internal/activity"
	ingestdomain "github.com/cloudunify/cloudunify/internal/ingest/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bulkPayload struct {
	Items []json.RawMessage `json:"items"`
}

// BulkIngestResources upserts a batch of resource rows. Invalid rows are
// reported per index without failing their siblings; the request only fails
// with 400 when no row survives validation.
func (s *Server) BulkIngestResources(c *gin.Context) {
	s.bulkIngest(c, "resources.ingested", s.ingestSvc.IngestResources)
}

// BulkIngestCosts upserts a batch of daily cost rows.
func (s *Server) BulkIngestCosts(c *gin.Context) {
	s.bulkIngest(c, "costs.ingested", s.ingestSvc.IngestCosts)
}

func (s *Server) bulkIngest(
	c *gin.Context,
	eventType string,
	ingest func(ctx context.Context, items []json.RawMessage, opts ingestdomain.Options) (*ingestdomain.BulkResult, error),
) {
	var payload bulkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if len(payload.Items) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := ingest(c.Request.Context(), payload.Items, ingestdomain.Options{Commit: true})
	if err != nil {
		if errors.Is(err, ingestdomain.ErrAllRowsInvalid) {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		s.log.Error("bulk ingest failed", zap.String("event", eventType), zap.Error(err))
		AbortWithError(c, err)
		return
	}

	// Batches may mix organizations, and the upsert only reports batch-wide
	// insert and update totals. Each event carries its own organization's
	// accepted row count and nothing from the rest of the batch.
	for orgID, count := range orgCounts(payload.Items, result.Errors) {
		s.hub.Broadcast(activity.MakeEvent(eventType, orgID, map[string]any{
			"processed_count": count,
		}))
	}

	c.JSON(http.StatusOK, result)
}

// orgCounts tallies accepted rows per organization so activity events only
// reflect rows that actually reached the database.
func orgCounts(items []json.RawMessage, rowErrors []ingestdomain.RowError) map[string]int {
	failed := make(map[int]struct{}, len(rowErrors))
	for _, re := range rowErrors {
		failed[re.Index] = struct{}{}
	}

	counts := make(map[string]int)
	for i, raw := range items {
		if _, ok := failed[i]; ok {
			continue
		}
		var probe struct {
			OrganizationID string `json:"organization_id"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.OrganizationID == "" {
			continue
		}
		counts[probe.OrganizationID]++
	}
	return counts
}
