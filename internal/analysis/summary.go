package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

// ColumnStat describes one column of a table snapshot.
type ColumnStat struct {
	Name    string `json:"name"`
	Dtype   string `json:"dtype"`
	Missing int    `json:"missing"`
}

// TableStats is a snapshot of a table's shape and quality.
type TableStats struct {
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	Columns    []ColumnStat `json:"columns"`
	Duplicates int          `json:"duplicates"`
}

// Describe takes a TableStats snapshot of t.
func Describe(t *table.Table) TableStats {
	s := TableStats{Rows: t.NumRows(), Cols: t.NumCols(), Duplicates: len(t.DuplicateRows())}
	for _, c := range t.Columns() {
		s.Columns = append(s.Columns, ColumnStat{Name: c.Name, Dtype: c.Dtype(), Missing: c.Missing()})
	}
	return s
}

// CleaningReport compares a raw table with its cleaned form.
type CleaningReport struct {
	Name         string         `json:"name,omitempty"`
	Before       TableStats     `json:"before"`
	After        TableStats     `json:"after"`
	Coerced      map[string]int `json:"coerced,omitempty"`
	Dropped      []string       `json:"dropped,omitempty"`
	OnHoldNulled int            `json:"onhold_nulled"`
	SampleHeader []string       `json:"sample_header,omitempty"`
	Samples      [][]string     `json:"samples,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// Summarize builds a CleaningReport from a raw table and its cleaning result.
func Summarize(name string, raw *table.Table, res *cleaning.Result, opt Options) *CleaningReport {
	rep := &CleaningReport{
		Name:         name,
		Before:       Describe(raw),
		After:        Describe(res.Table),
		Coerced:      res.Coerced,
		Dropped:      res.Dropped,
		OnHoldNulled: res.OnHoldNulled,
		SampleHeader: res.Table.Names(),
	}
	n := opt.SampleRows
	if n <= 0 {
		n = DefaultOptions().SampleRows
	}
	for i := 0; i < res.Table.NumRows() && i < n; i++ {
		rep.Samples = append(rep.Samples, res.Table.Row(i))
	}
	if w := res.Warning(); w != "" {
		rep.Warnings = append(rep.Warnings, w)
	}
	return rep
}

// Markdown renders the report in the same sectioned style as other summaries.
func (r *CleaningReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d -> %d\n", r.Before.Rows, r.After.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d -> %d\n", r.Before.Cols, r.After.Cols))
	if r.OnHoldNulled > 0 {
		b.WriteString(fmt.Sprintf("Resolved times cleared for onhold tickets: %d\n", r.OnHoldNulled))
	}

	writeStats(&b, "BEFORE CLEANING", r.Before)
	writeStats(&b, "AFTER CLEANING", r.After)

	if len(r.Dropped) > 0 {
		b.WriteString("\n[DROPPED COLUMNS]\n")
		for _, d := range r.Dropped {
			b.WriteString(fmt.Sprintf("- %s (more than half missing)\n", d))
		}
	}
	if len(r.Coerced) > 0 {
		b.WriteString("\n[COERCION MISSES]\n")
		keys := make([]string, 0, len(r.Coerced))
		for k := range r.Coerced {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %d\n", k, r.Coerced[k]))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		writeRow(&b, r.SampleHeader, func(i int) string { return safeName(r.SampleHeader[i]) })
		writeRow(&b, r.SampleHeader, func(int) string { return "---" })
		for _, row := range r.Samples {
			writeRow(&b, r.SampleHeader, func(i int) string {
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				return safeVal(val)
			})
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeStats(b *strings.Builder, title string, s TableStats) {
	b.WriteString(fmt.Sprintf("\n[%s]\n", title))
	b.WriteString(fmt.Sprintf("Shape: %d rows x %d columns\n", s.Rows, s.Cols))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n", s.Duplicates))
	for _, c := range s.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (missing %d)\n", safeName(c.Name), c.Dtype, c.Missing))
	}
}

func writeRow(b *strings.Builder, cols []string, cell func(i int) string) {
	b.WriteString("| ")
	for i := range cols {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(cell(i))
	}
	b.WriteString(" |\n")
}

// InsightsMarkdown renders the overview metrics and insight texts.
func InsightsMarkdown(o OverviewStats, ins []Insight) string {
	var b strings.Builder
	b.WriteString("[OVERVIEW]\n")
	if o.From != "" {
		b.WriteString(fmt.Sprintf("Range: %s -> %s\n", o.From, o.To))
	}
	b.WriteString(fmt.Sprintf("Total Tickets: %d\n", o.TotalTickets))
	if o.HasResolution {
		b.WriteString(fmt.Sprintf("Avg Resolution Time (hrs): %.2f\n", o.MeanResolutionHours))
		b.WriteString(fmt.Sprintf("Median Resolution Time (hrs): %.2f\n", o.MedianResolutionHours))
	} else {
		b.WriteString("Avg Resolution Time (hrs): n/a\n")
	}
	if o.HasDepartments {
		b.WriteString(fmt.Sprintf("Departments Involved: %d\n", o.Departments))
	}
	for _, in := range ins {
		b.WriteString(fmt.Sprintf("\n[%s]\n", strings.ToUpper(in.Title)))
		b.WriteString(in.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
