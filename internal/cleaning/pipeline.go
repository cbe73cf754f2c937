// Package cleaning turns a raw ticket table into a normalized, analysis-ready
// table.
//
// Clean runs a fixed sequence of steps. Later steps read what earlier ones
// produced, so the order is part of the contract:
//
//  1. coerce duration, timestamp and boolean columns (raw names)
//  2. derive Month from Created Time
//  3. rename every column to snake_case
//  4. drop columns that are more than half missing
//  5. null resolved_time for tickets whose request_status is "onhold"
//  6. re-coerce created_time / resolved_time
//  7. compute resolution_time in hours
//  8. re-apply the sparse-column rule
//
// Malformed cells never fail the pass; they become missing and are counted in
// Result.Coerced. No row is ever dropped.
package cleaning

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/ticketlens/internal/table"
)

// Raw column names the pipeline knows about. Matching is by NormalizeName, so
// "created time" or " CREATED TIME" also match.
const (
	ColSLAResolution    = "SLA resolution time"
	ColSLAResponse      = "SLA response time"
	ColOnHoldDuration   = "On Hold Duration"
	ColCreatedTime      = "Created Time"
	ColResolvedTime     = "Resolved Time"
	ColResponseElapsed  = "Response time elapsed"
	ColTimeElapsed      = "Time Elapsed"
	ColFCR              = "FCR"
	ColVIPUser          = "VIP User"
	ColReOpened         = "ReOpened"
	ColFirstRespOverdue = "First Response Overdue Status"
	ColOverdue          = "Overdue Status"
	ColRequestStatus    = "Request Status"
	ColMonth            = "Month"
)

// Cleaned names of the columns downstream consumers read.
const (
	CreatedTime       = "created_time"
	ResolvedTime      = "resolved_time"
	RequestStatus     = "request_status"
	ResolutionTime    = "resolution_time"
	Month             = "month"
	Department        = "department"
	Technician        = "technician"
	Priority          = "priority"
	Category          = "category"
	Site              = "site"
	SLAResolutionTime = "sla_resolution_time"
)

// StatusOnHold is the normalized request_status of paused tickets.
const StatusOnHold = "onhold"

// SparseThreshold is the largest missing fraction a column may keep.
const SparseThreshold = 0.5

var (
	durationColumns  = []string{ColSLAResolution, ColSLAResponse, ColOnHoldDuration}
	timestampColumns = []string{ColCreatedTime, ColResolvedTime}
	elapsedColumns   = []string{ColResponseElapsed, ColTimeElapsed}
	boolColumns      = []string{ColFCR, ColVIPUser, ColReOpened, ColFirstRespOverdue, ColOverdue}
)

// ErrColumnConflict is returned when two raw headers normalize to one name.
var ErrColumnConflict = errors.New("column name conflict")

// ColumnConflictError names the clashing raw headers.
type ColumnConflictError struct {
	Name string
	Raw  []string
}

func (e *ColumnConflictError) Error() string {
	quoted := make([]string, len(e.Raw))
	for i, r := range e.Raw {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	return fmt.Sprintf("%v: columns %s all normalize to %q", ErrColumnConflict, strings.Join(quoted, ", "), e.Name)
}

func (e *ColumnConflictError) Unwrap() error { return ErrColumnConflict }

// Result is the output of one pipeline pass.
type Result struct {
	Table *table.Table
	// Coerced counts, per cleaned column name, the non-blank cells that failed
	// to parse and were set to missing.
	Coerced map[string]int
	// Dropped lists the cleaned names removed by the sparse-column rule.
	Dropped []string
	// OnHoldNulled counts resolved_time cells cleared for onhold tickets.
	OnHoldNulled int
}

// CoercedTotal sums Coerced.
func (r *Result) CoercedTotal() int {
	n := 0
	for _, c := range r.Coerced {
		n += c
	}
	return n
}

// Warning summarizes coercion misses for display; it is empty when none
// occurred.
func (r *Result) Warning() string {
	total := r.CoercedTotal()
	if total == 0 {
		return ""
	}
	names := make([]string, 0, len(r.Coerced))
	for k, v := range r.Coerced {
		if v > 0 {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s (%d)", n, r.Coerced[n])
	}
	return fmt.Sprintf("%d value(s) could not be parsed and were set to missing: %s", total, strings.Join(parts, ", "))
}

// Clean runs the pipeline on a copy of raw; raw itself is left untouched.
func Clean(raw *table.Table) (*Result, error) {
	if raw == nil {
		return nil, errors.New("clean: nil table")
	}
	if err := checkConflicts(raw.Names()); err != nil {
		return nil, err
	}
	t := raw.Clone()
	res := &Result{Table: t, Coerced: map[string]int{}}
	lookup := rawLookup(t)

	for _, name := range durationColumns {
		res.coerce(t, lookup[NormalizeName(name)], asDuration)
	}
	for _, name := range timestampColumns {
		res.coerce(t, lookup[NormalizeName(name)], asTimestamp)
	}
	for _, name := range elapsedColumns {
		res.coerce(t, lookup[NormalizeName(name)], asDuration)
	}
	for _, name := range boolColumns {
		res.coerce(t, lookup[NormalizeName(name)], asBool)
	}

	if created := lookup[NormalizeName(ColCreatedTime)]; created != "" {
		deriveMonth(t, created, lookup[NormalizeName(ColMonth)])
	}

	for _, name := range t.Names() {
		// conflicts were rejected up front, so renames cannot clash
		_ = t.Rename(name, NormalizeName(name))
	}

	res.dropSparse(t)

	if t.Has(RequestStatus) {
		res.nullOnHold(t)
	}

	res.coerce(t, CreatedTime, asTimestamp)
	res.coerce(t, ResolvedTime, asTimestamp)

	if t.Has(CreatedTime) && t.Has(ResolvedTime) {
		_ = t.SetColumn(ResolutionTime, resolutionHours(t))
	}

	res.dropSparse(t)
	return res, nil
}

func checkConflicts(names []string) error {
	seen := map[string][]string{}
	var order []string
	for _, n := range names {
		k := NormalizeName(n)
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = append(seen[k], n)
	}
	for _, k := range order {
		if len(seen[k]) > 1 {
			return &ColumnConflictError{Name: k, Raw: seen[k]}
		}
	}
	return nil
}

// rawLookup maps normalized names to the table's actual headers.
func rawLookup(t *table.Table) map[string]string {
	out := make(map[string]string, t.NumCols())
	for _, n := range t.Names() {
		out[NormalizeName(n)] = n
	}
	return out
}

func (r *Result) coerce(t *table.Table, name string, fn coercer) {
	if name == "" {
		return
	}
	col, ok := t.Column(name)
	if !ok {
		return
	}
	misses := 0
	for i, v := range col.Values {
		out, ok := fn(v)
		if !ok {
			misses++
		}
		col.Values[i] = out
	}
	if misses > 0 {
		r.Coerced[NormalizeName(name)] += misses
	}
}

// deriveMonth writes the year-month bucket of the created column. An existing
// month column is overwritten in place.
func deriveMonth(t *table.Table, created, existing string) {
	col, _ := t.Column(created)
	vals := make([]table.Value, len(col.Values))
	for i, v := range col.Values {
		if v.Kind == table.Time {
			vals[i] = table.MonthOf(v.T)
		}
	}
	name := ColMonth
	if existing != "" {
		name = existing
	}
	_ = t.SetColumn(name, vals)
}

func (r *Result) dropSparse(t *table.Table) {
	for _, name := range t.Names() {
		if t.MissingFraction(name) > SparseThreshold {
			t.Drop(name)
			r.Dropped = append(r.Dropped, name)
		}
	}
}

func (r *Result) nullOnHold(t *table.Table) {
	status, _ := t.Column(RequestStatus)
	for i, v := range status.Values {
		if v.Kind == table.Text {
			status.Values[i] = table.TextOf(strings.ToLower(v.Str))
		}
	}
	resolved, ok := t.Column(ResolvedTime)
	if !ok {
		return
	}
	for i, v := range status.Values {
		if v.Kind == table.Text && v.Str == StatusOnHold && !resolved.Values[i].IsMissing() {
			resolved.Values[i] = table.Null()
			r.OnHoldNulled++
		}
	}
}

func resolutionHours(t *table.Table) []table.Value {
	created, _ := t.Column(CreatedTime)
	resolved, _ := t.Column(ResolvedTime)
	out := make([]table.Value, t.NumRows())
	for i := range out {
		c, r := created.Values[i], resolved.Values[i]
		if c.Kind != table.Time || r.Kind != table.Time {
			continue
		}
		out[i] = table.NumberOf(r.T.Sub(c.T).Hours())
	}
	return out
}
