// Package report accumulates per-table ingestion counters and renders the
// import summary produced by the offline loader.
package report

import (
	"fmt"
	"sort"
	"strings"
)

// TableCounts tracks the outcome of ingesting rows into one table.
type TableCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

func (c *TableCounts) Add(other TableCounts) {
	c.Inserted += other.Inserted
	c.Updated += other.Updated
	c.Skipped += other.Skipped
}

// FileReport holds per-table counts for one input file.
type FileReport struct {
	File     string                  `json:"file"`
	Provider string                  `json:"provider,omitempty"`
	Failed   bool                    `json:"failed,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Tables   map[string]*TableCounts `json:"tables"`
}

func NewFileReport(file, provider string) *FileReport {
	return &FileReport{
		File:     file,
		Provider: provider,
		Tables:   map[string]*TableCounts{},
	}
}

// Table returns the counters for a table, creating them on first use.
func (f *FileReport) Table(name string) *TableCounts {
	counts, ok := f.Tables[name]
	if !ok {
		counts = &TableCounts{}
		f.Tables[name] = counts
	}
	return counts
}

// RunReport aggregates counts additively across every file in a run.
type RunReport struct {
	DryRun bool                    `json:"dry_run,omitempty"`
	Files  []*FileReport           `json:"files"`
	Totals map[string]*TableCounts `json:"totals"`
}

func NewRunReport(dryRun bool) *RunReport {
	return &RunReport{
		DryRun: dryRun,
		Totals: map[string]*TableCounts{},
	}
}

// Merge folds one file's counts into the run totals.
func (r *RunReport) Merge(f *FileReport) {
	r.Files = append(r.Files, f)
	for table, counts := range f.Tables {
		total, ok := r.Totals[table]
		if !ok {
			total = &TableCounts{}
			r.Totals[table] = total
		}
		total.Add(*counts)
	}
}

// Render formats the report as the loader's textual summary.
func (r *RunReport) Render() string {
	var b strings.Builder
	b.WriteString("==== Ingestion Summary ====\n")
	if r.DryRun {
		b.WriteString("(dry run: no rows were written)\n")
	}
	for _, f := range r.Files {
		if f.Failed {
			fmt.Fprintf(&b, "%s: FAILED (%s)\n", f.File, f.Error)
			continue
		}
		fmt.Fprintf(&b, "%s:\n", f.File)
		for _, table := range sortedTables(f.Tables) {
			c := f.Tables[table]
			fmt.Fprintf(&b, "  %s: inserted=%d updated=%d skipped=%d\n", table, c.Inserted, c.Updated, c.Skipped)
		}
	}
	b.WriteString("Totals:\n")
	for _, table := range sortedTables(r.Totals) {
		c := r.Totals[table]
		fmt.Fprintf(&b, "  %s: inserted=%d updated=%d skipped=%d\n", table, c.Inserted, c.Updated, c.Skipped)
	}
	return b.String()
}

func sortedTables(m map[string]*TableCounts) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
