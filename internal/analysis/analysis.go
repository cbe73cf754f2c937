// Package analysis computes descriptive statistics, date filtering and
// rule-based recommendations over a cleaned ticket table.
package analysis

import (
	"errors"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

// Options holds the thresholds and constants used by the insight rules.
type Options struct {
	// TopN limits the technician, department and site rankings.
	TopN int
	// HistogramBins sets the resolution-time histogram resolution.
	HistogramBins int
	// BenchmarkHours is the mean resolution time above which savings are estimated.
	BenchmarkHours float64
	// CostPerHour converts excess resolution hours into currency.
	CostPerHour float64
	Currency    string
	// SLATargetPct is the compliance percentage below which adherence is flagged.
	SLATargetPct float64
	// MinSurgeMonths is the number of months needed before surges are reported.
	MinSurgeMonths int
	// SampleRows determines how many example rows the cleaning summary shows.
	SampleRows int
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		TopN:           10,
		HistogramBins:  30,
		BenchmarkHours: 48,
		CostPerHour:    50,
		Currency:       "RM",
		SLATargetPct:   80,
		MinSurgeMonths: 6,
		SampleRows:     5,
	}
}

// ErrInvalidRange is returned when a filter's start date is after its end date.
var ErrInvalidRange = errors.New("start date is after end date")

// DateLayout is the day-first form used to show and accept filter dates.
const DateLayout = "02/01/2006"

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateBounds returns the earliest and latest created dates. ok is false when
// the table has no usable created_time.
func DateBounds(t *table.Table) (first, last time.Time, ok bool) {
	col, found := t.Column(cleaning.CreatedTime)
	if !found {
		return
	}
	for _, v := range col.Values {
		if v.Kind != table.Time {
			continue
		}
		d := dateOf(v.T)
		if !ok || d.Before(first) {
			first = d
		}
		if !ok || d.After(last) {
			last = d
		}
		ok = true
	}
	return
}

// FilterByCreatedDate keeps rows whose created date falls within [start, end],
// both inclusive. Rows without a created time are excluded. A table without
// usable created_time is returned as is.
func FilterByCreatedDate(t *table.Table, start, end time.Time) (*table.Table, error) {
	start, end = dateOf(start), dateOf(end)
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	if _, _, ok := DateBounds(t); !ok {
		return t, nil
	}
	col, _ := t.Column(cleaning.CreatedTime)
	return t.Filter(func(i int) bool {
		v := col.Values[i]
		if v.Kind != table.Time {
			return false
		}
		d := dateOf(v.T)
		return !d.Before(start) && !d.After(end)
	}), nil
}

// OverviewStats are the headline metrics of a ticket table.
type OverviewStats struct {
	TotalTickets int `json:"total_tickets"`
	// MeanResolutionHours is only meaningful when HasResolution is true.
	MeanResolutionHours   float64 `json:"mean_resolution_hours"`
	MedianResolutionHours float64 `json:"median_resolution_hours"`
	HasResolution         bool    `json:"has_resolution"`
	Departments           int     `json:"departments"`
	HasDepartments        bool    `json:"has_departments"`
	From                  string  `json:"from,omitempty"`
	To                    string  `json:"to,omitempty"`
}

// Overview computes the headline metrics.
func Overview(t *table.Table) OverviewStats {
	o := OverviewStats{TotalTickets: t.NumRows()}
	if hours := resolutionHours(t); len(hours) > 0 {
		o.HasResolution = true
		o.MeanResolutionHours = stat.Mean(hours, nil)
		sorted := append([]float64(nil), hours...)
		sort.Float64s(sorted)
		o.MedianResolutionHours = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	if t.Has(cleaning.Department) {
		o.HasDepartments = true
		o.Departments = len(ValueCounts(t, cleaning.Department, 0))
	}
	if first, last, ok := DateBounds(t); ok {
		o.From = first.Format(DateLayout)
		o.To = last.Format(DateLayout)
	}
	return o
}

// CategoryCount pairs a value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts counts the non-missing values of a column, ordered by count
// descending then value ascending. limit <= 0 means no limit.
func ValueCounts(t *table.Table, name string, limit int) []CategoryCount {
	col, ok := t.Column(name)
	if !ok {
		return nil
	}
	counts := map[string]int{}
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		counts[v.String()]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, CategoryCount{Value: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// resolutionHours returns the non-missing resolution_time values.
func resolutionHours(t *table.Table) []float64 {
	col, ok := t.Column(cleaning.ResolutionTime)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if v.Kind == table.Number {
			out = append(out, v.Num)
		}
	}
	return out
}

func counts(cc []CategoryCount) ([]string, []float64) {
	labels := make([]string, len(cc))
	vals := make([]float64, len(cc))
	for i, c := range cc {
		labels[i] = c.Value
		vals[i] = float64(c.Count)
	}
	return labels, vals
}
