// Package domain contains persistence models and contracts for bulk ingestion.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Resource is a cloud resource snapshot. At most one row may exist per
// (organization_id, provider, resource_id); re-ingesting the same key updates
// mutable fields in place.
type Resource struct {
	ID             string                        `gorm:"primaryKey"`
	OrganizationID string                        `gorm:"not null;index;uniqueIndex:uq_resource_key,priority:1"`
	CloudAccountID string                        `gorm:"not null;index"`
	Provider       string                        `gorm:"not null;uniqueIndex:uq_resource_key,priority:2"`
	ResourceID     string                        `gorm:"not null;uniqueIndex:uq_resource_key,priority:3"`
	ResourceType   string                        `gorm:"not null"`
	Region         string                        `gorm:"not null"`
	State          string                        `gorm:"not null"`
	Tags           datatypes.JSONMap             `gorm:"type:jsonb"`
	CostDaily      decimal.NullDecimal           `gorm:"type:numeric(18,6)"`
	CostMonthly    decimal.NullDecimal           `gorm:"type:numeric(18,6)"`
	CreatedAt      time.Time                     `gorm:"not null"`
	UpdatedAt      time.Time                     `gorm:"not null"`
}

func (Resource) TableName() string { return "resources" }

// Cost is a per-service, per-day usage/cost fact. On natural-key conflict the
// mutable fields are fully replaced, never accumulated.
type Cost struct {
	ID             string          `gorm:"primaryKey"`
	OrganizationID string          `gorm:"not null;index;uniqueIndex:uq_cost_key,priority:1"`
	CloudAccountID string          `gorm:"not null;index;uniqueIndex:uq_cost_key,priority:2"`
	Provider       string          `gorm:"not null;uniqueIndex:uq_cost_key,priority:3"`
	ServiceName    string          `gorm:"not null;uniqueIndex:uq_cost_key,priority:4"`
	Region         string          `gorm:"not null;uniqueIndex:uq_cost_key,priority:5"`
	CostDate       time.Time       `gorm:"type:date;not null;uniqueIndex:uq_cost_key,priority:6"`
	UsageQuantity  decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	UsageUnit      string          `gorm:"not null"`
	CostAmount     decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Currency       string          `gorm:"not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

func (Cost) TableName() string { return "costs" }

// Recommendation is an optimization suggestion, optionally linked to a
// Resource. Its primary key is either the externally supplied id or an id
// derived from the stable fields of the suggestion.
type Recommendation struct {
	ID                      string                     `gorm:"primaryKey"`
	OrganizationID          string                     `gorm:"not null;index"`
	ResourceID              *string                    `gorm:"index"`
	RecommendationType      string                     `gorm:"not null"`
	Priority                string                     `gorm:"not null;default:medium"`
	PotentialSavingsMonthly decimal.NullDecimal        `gorm:"type:numeric(18,6)"`
	Description             string                     `gorm:"type:text"`
	ActionItems             datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt               time.Time                  `gorm:"not null"`
	UpdatedAt               time.Time                  `gorm:"not null"`
}

func (Recommendation) TableName() string { return "recommendations" }

// ResourceCostDaily is a per-resource daily cost snapshot populated by the
// offline loader. Row identity is derived, so dataset reruns collapse to one
// row per (resource_id, usage_date).
type ResourceCostDaily struct {
	ID             string          `gorm:"primaryKey"`
	OrganizationID string          `gorm:"not null;index"`
	ResourceID     string          `gorm:"not null;uniqueIndex:uq_resource_cost_daily,priority:1"`
	UsageDate      time.Time       `gorm:"type:date;not null;uniqueIndex:uq_resource_cost_daily,priority:2"`
	CostDaily      decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Currency       string          `gorm:"not null;default:USD"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

func (ResourceCostDaily) TableName() string { return "resource_costs_daily" }
