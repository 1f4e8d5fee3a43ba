package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunReportMergesAdditively(t *testing.T) {
	run := NewRunReport(false)

	f1 := NewFileReport("aws_resources.csv", "aws")
	f1.Table("resources").Add(TableCounts{Inserted: 5, Updated: 2, Skipped: 1})
	f1.Table("resource_costs_daily").Add(TableCounts{Inserted: 4, Skipped: 2})
	run.Merge(f1)

	f2 := NewFileReport("azure_resources.csv", "azure")
	f2.Table("resources").Add(TableCounts{Inserted: 3, Updated: 1})
	run.Merge(f2)

	assert.Equal(t, &TableCounts{Inserted: 8, Updated: 3, Skipped: 1}, run.Totals["resources"])
	assert.Equal(t, &TableCounts{Inserted: 4, Skipped: 2}, run.Totals["resource_costs_daily"])
	assert.Len(t, run.Files, 2)
}

func TestRenderIncludesFailuresAndTotals(t *testing.T) {
	run := NewRunReport(true)

	ok := NewFileReport("gcp_resources.csv", "gcp")
	ok.Table("resources").Add(TableCounts{Inserted: 1})
	run.Merge(ok)

	bad := NewFileReport("broken.csv", "")
	bad.Failed = true
	bad.Error = "dangling cloud account"
	run.Merge(bad)

	out := run.Render()
	assert.True(t, strings.Contains(out, "dry run"))
	assert.True(t, strings.Contains(out, "gcp_resources.csv"))
	assert.True(t, strings.Contains(out, "broken.csv: FAILED (dangling cloud account)"))
	assert.True(t, strings.Contains(out, "resources: inserted=1 updated=0 skipped=0"))
}
