package service

import (
	"encoding/json"

	ingestdomain "github.com/cloudunify/cloudunify/internal/ingest/domain"
)

// validatable rows normalize themselves and report the first constraint they
// violate.
type validatable interface {
	Validate() error
}

// decodeRows validates raw items one by one. A failure at index i records a
// RowError and never aborts validation of the remaining items.
func decodeRows[T any, PT interface {
	*T
	validatable
}](items []json.RawMessage) ([]T, []ingestdomain.RowError) {
	valid := make([]T, 0, len(items))
	errs := []ingestdomain.RowError{}
	for i, raw := range items {
		var row T
		if err := json.Unmarshal(raw, PT(&row)); err != nil {
			errs = append(errs, ingestdomain.RowError{Index: i, Message: err.Error()})
			continue
		}
		if err := PT(&row).Validate(); err != nil {
			errs = append(errs, ingestdomain.RowError{Index: i, Message: err.Error()})
			continue
		}
		valid = append(valid, row)
	}
	return valid, errs
}
