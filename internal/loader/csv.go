package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/cloudunify/cloudunify/internal/normalize"
)

// record is one data row keyed by its snake_cased header.
type record map[string]string

// get returns the first non-empty value among the given columns.
func (r record) get(columns ...string) string {
	for _, col := range columns {
		if v := strings.TrimSpace(r[col]); v != "" {
			return v
		}
	}
	return ""
}

// readRecords reads a CSV file into header-keyed rows. Headers are normalized
// to snake_case; rows whose cells are all empty are dropped.
func readRecords(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	raw, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = normalize.SnakeCase(strings.TrimPrefix(h, "\ufeff"))
	}

	records := make([]record, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(record, len(headers))
		empty := true
		for i, h := range headers {
			if h == "" || i >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[i])
			row[h] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}
