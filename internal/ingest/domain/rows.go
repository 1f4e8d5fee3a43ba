package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudunify/cloudunify/internal/normalize"
	"github.com/shopspring/decimal"
)

// Date is a calendar day carried in requests as a strict "YYYY-MM-DD" string.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cost_date must be a YYYY-MM-DD string")
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return fmt.Errorf("cost_date must be YYYY-MM-DD")
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// ResourceRow is one item of a resource bulk-ingest request.
type ResourceRow struct {
	OrganizationID string            `json:"organization_id"`
	CloudAccountID string            `json:"cloud_account_id"`
	Provider       string            `json:"provider"`
	ResourceID     string            `json:"resource_id"`
	ResourceType   string            `json:"resource_type"`
	Region         string            `json:"region"`
	State          string            `json:"state"`
	Tags           map[string]string `json:"tags"`
	CostDaily      *decimal.Decimal  `json:"cost_daily"`
	CostMonthly    *decimal.Decimal  `json:"cost_monthly"`
	CreatedAt      *time.Time        `json:"created_at"`
}

// Validate checks field constraints and normalizes the row in place.
func (r *ResourceRow) Validate() error {
	if strings.TrimSpace(r.OrganizationID) == "" {
		return fmt.Errorf("organization_id is required")
	}
	if strings.TrimSpace(r.CloudAccountID) == "" {
		return fmt.Errorf("cloud_account_id is required")
	}
	if !normalize.IsProvider(r.Provider) {
		return fmt.Errorf("provider must be one of aws, azure, gcp")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"resource_id", r.ResourceID},
		{"resource_type", r.ResourceType},
		{"region", r.Region},
		{"state", r.State},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s must be a non-empty string", field.name)
		}
	}
	if r.CostDaily != nil && r.CostDaily.IsNegative() {
		return fmt.Errorf("cost_daily must be non-negative")
	}
	if r.CostMonthly != nil && r.CostMonthly.IsNegative() {
		return fmt.Errorf("cost_monthly must be non-negative")
	}
	if r.Tags == nil {
		r.Tags = map[string]string{}
	}
	return nil
}

// Key returns the natural key used as the upsert conflict target.
func (r ResourceRow) Key() ResourceKey {
	return ResourceKey{
		OrganizationID: r.OrganizationID,
		Provider:       r.Provider,
		ResourceID:     r.ResourceID,
	}
}

// CostRow is one item of a cost bulk-ingest request.
type CostRow struct {
	OrganizationID string          `json:"organization_id"`
	CloudAccountID string          `json:"cloud_account_id"`
	Provider       string          `json:"provider"`
	ServiceName    string          `json:"service_name"`
	Region         string          `json:"region"`
	CostDate       Date            `json:"cost_date"`
	UsageQuantity  decimal.Decimal `json:"usage_quantity"`
	UsageUnit      string          `json:"usage_unit"`
	CostAmount     decimal.Decimal `json:"cost_amount"`
	Currency       string          `json:"currency"`
}

// Validate checks field constraints and normalizes the row in place.
// Currency is always upper-cased.
func (c *CostRow) Validate() error {
	if strings.TrimSpace(c.OrganizationID) == "" {
		return fmt.Errorf("organization_id is required")
	}
	if strings.TrimSpace(c.CloudAccountID) == "" {
		return fmt.Errorf("cloud_account_id is required")
	}
	if !normalize.IsProvider(c.Provider) {
		return fmt.Errorf("provider must be one of aws, azure, gcp")
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("service_name must be a non-empty string")
	}
	if strings.TrimSpace(c.Region) == "" {
		return fmt.Errorf("region must be a non-empty string")
	}
	if c.CostDate.IsZero() {
		return fmt.Errorf("cost_date is required")
	}
	if c.UsageQuantity.IsNegative() {
		return fmt.Errorf("usage_quantity must be non-negative")
	}
	if strings.TrimSpace(c.UsageUnit) == "" {
		return fmt.Errorf("usage_unit must be a non-empty string")
	}
	if c.CostAmount.IsNegative() {
		return fmt.Errorf("cost_amount must be non-negative")
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("currency must be a non-empty string")
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	return nil
}

// Key returns the natural key used as the upsert conflict target.
func (c CostRow) Key() CostKey {
	return CostKey{
		OrganizationID: c.OrganizationID,
		CloudAccountID: c.CloudAccountID,
		Provider:       c.Provider,
		ServiceName:    c.ServiceName,
		Region:         c.Region,
		CostDate:       c.CostDate.Format(time.DateOnly),
	}
}

// RecommendationRow is one optimization suggestion from the offline loader.
// ID may be empty; a stable identifier is derived from the remaining fields.
type RecommendationRow struct {
	ID                      string
	ExternalID              string
	OrganizationID          string
	Provider                string
	ExternalResourceID      string
	ResourceID              *string
	RecommendationType      string
	Priority                string
	PotentialSavingsMonthly *decimal.Decimal
	Description             string
	ActionItems             []string
}

// Validate checks field constraints and normalizes the row in place.
// Priority falls back to medium on invalid or missing input.
func (r *RecommendationRow) Validate() error {
	if strings.TrimSpace(r.OrganizationID) == "" {
		return fmt.Errorf("organization_id is required")
	}
	if strings.TrimSpace(r.RecommendationType) == "" {
		return fmt.Errorf("recommendation_type must be a non-empty string")
	}
	if r.PotentialSavingsMonthly != nil && r.PotentialSavingsMonthly.IsNegative() {
		return fmt.Errorf("potential_savings_monthly must be non-negative")
	}
	r.Priority = normalize.Priority(r.Priority)
	return nil
}

// ResourceCostRow is one daily cost snapshot for an already-resolved resource.
type ResourceCostRow struct {
	OrganizationID string
	ResourceID     string
	UsageDate      time.Time
	CostDaily      decimal.Decimal
	Currency       string
}

func (r *ResourceCostRow) Validate() error {
	if strings.TrimSpace(r.OrganizationID) == "" {
		return fmt.Errorf("organization_id is required")
	}
	if strings.TrimSpace(r.ResourceID) == "" {
		return fmt.Errorf("resource_id is required")
	}
	if r.UsageDate.IsZero() {
		return fmt.Errorf("usage_date is required")
	}
	if r.CostDaily.IsNegative() {
		return fmt.Errorf("cost_daily must be non-negative")
	}
	if strings.TrimSpace(r.Currency) == "" {
		r.Currency = "USD"
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	return nil
}

// ResourceKey is the composite natural key of a Resource.
type ResourceKey struct {
	OrganizationID string
	Provider       string
	ResourceID     string
}

// CostKey is the composite natural key of a Cost. CostDate is normalized to
// YYYY-MM-DD so keys compare consistently across storage backends.
type CostKey struct {
	OrganizationID string
	CloudAccountID string
	Provider       string
	ServiceName    string
	Region         string
	CostDate       string
}

// ResourceCostKey is the composite natural key of a ResourceCostDaily row.
type ResourceCostKey struct {
	ResourceID string
	UsageDate  string
}
