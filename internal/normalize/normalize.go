// Package normalize holds the pure coercion helpers shared by the HTTP row
// validator and the offline dataset loader, so provider, tag and type handling
// cannot drift between the two ingestion paths.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
	ProviderGCP   = "gcp"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Provider maps vendor name variants onto the canonical provider slug.
// Returns "" when the value names no known provider.
func Provider(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "aws", "amazon", "amazon web services":
		return ProviderAWS
	case "azure", "microsoft", "microsoft azure":
		return ProviderAzure
	case "gcp", "google", "google cloud":
		return ProviderGCP
	default:
		return ""
	}
}

// ProviderFromFilename scans a file name for a provider token.
func ProviderFromFilename(name string) string {
	lower := strings.ToLower(name)
	for _, p := range []string{ProviderAWS, ProviderAzure, ProviderGCP} {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

// IsProvider reports whether v is already one of the canonical slugs.
func IsProvider(v string) bool {
	switch v {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return true
	default:
		return false
	}
}

// Priority maps a raw priority value onto the allowed set, defaulting to
// medium for missing or unknown values.
func Priority(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityCritical:
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// ParseTags parses "k:v,k2:v2" style tag strings into a map. A bare word
// becomes a tag with value "true". Empty input yields an empty map.
func ParseTags(v string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if k, val, ok := strings.Cut(pair, ":"); ok {
			out[strings.TrimSpace(k)] = strings.TrimSpace(val)
		} else {
			out[pair] = "true"
		}
	}
	return out
}

// DecimalOrNil coerces a cell value into a decimal, returning nil for empty
// strings, "nan" markers and unparseable input.
func DecimalOrNil(v string) *decimal.Decimal {
	s := strings.TrimSpace(v)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// TimeOrNil parses an RFC 3339 timestamp, accepting a bare date or a value
// without zone (assumed UTC). A trailing "Z" means UTC. Returns nil when the
// value cannot be parsed.
func TimeOrNil(v string) *time.Time {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		time.DateOnly,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// DateOrNil parses a strict YYYY-MM-DD date.
func DateOrNil(v string) *time.Time {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// SnakeCase normalizes a column header to lower snake case.
func SnakeCase(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
