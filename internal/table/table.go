// Package table holds the in-memory ticket table shared by the loader, the
// cleaning pipeline and every downstream renderer.
package table

import (
	"fmt"
	"strings"
)

// Column is a named, typed-per-cell sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Missing returns the number of missing cells in the column.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Dtype reports the predominant kind of the non-missing cells:
// a single kind name, "empty" when every cell is missing, or "mixed".
func (c *Column) Dtype() string {
	seen := Missing
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		if seen == Missing {
			seen = v.Kind
			continue
		}
		if v.Kind != seen {
			return "mixed"
		}
	}
	if seen == Missing {
		return "empty"
	}
	return seen.String()
}

// Table is an ordered set of equally long columns.
type Table struct {
	rows  int
	cols  []*Column
	index map[string]int
}

// New returns an empty table with a fixed row count.
func New(rows int) *Table {
	return &Table{rows: rows, index: map[string]int{}}
}

// AddColumn appends a column. Its length must match the row count and its
// name must not already exist.
func (t *Table) AddColumn(name string, values []Value) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("duplicate column %q", name)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, &Column{Name: name, Values: values})
	return nil
}

// SetColumn replaces the values of an existing column or appends a new one.
func (t *Table) SetColumn(name string, values []Value) error {
	if i, ok := t.index[name]; ok {
		if len(values) != t.rows {
			return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
		}
		t.cols[i].Values = values
		return nil
	}
	return t.AddColumn(name, values)
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.cols }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Cell returns the value at row i of the named column. Absent columns and
// out-of-range rows yield a missing value.
func (t *Table) Cell(i int, name string) Value {
	c, ok := t.Column(name)
	if !ok || i < 0 || i >= t.rows {
		return Value{}
	}
	return c.Values[i]
}

// Drop removes a column; it is a no-op for unknown names. Slices returned by
// earlier Columns calls are left untouched.
func (t *Table) Drop(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	cols := make([]*Column, 0, len(t.cols)-1)
	cols = append(cols, t.cols[:i]...)
	t.cols = append(cols, t.cols[i+1:]...)
	t.reindex()
}

// Rename changes a column name, refusing to overwrite another column.
func (t *Table) Rename(old, name string) error {
	if old == name {
		return nil
	}
	i, ok := t.index[old]
	if !ok {
		return fmt.Errorf("unknown column %q", old)
	}
	if _, clash := t.index[name]; clash {
		return fmt.Errorf("rename %q: column %q already exists", old, name)
	}
	t.cols[i].Name = name
	t.reindex()
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.rows)
	for _, c := range t.cols {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		_ = out.AddColumn(c.Name, vals)
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var idx []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := New(len(idx))
	for _, c := range t.cols {
		vals := make([]Value, len(idx))
		for j, i := range idx {
			vals[j] = c.Values[i]
		}
		_ = out.AddColumn(c.Name, vals)
	}
	return out
}

// MissingCount pairs a column with its number of missing cells.
type MissingCount struct {
	Column  string
	Missing int
}

// MissingCounts lists missing cells per column, in column order.
func (t *Table) MissingCounts() []MissingCount {
	out := make([]MissingCount, len(t.cols))
	for i, c := range t.cols {
		out[i] = MissingCount{Column: c.Name, Missing: c.Missing()}
	}
	return out
}

// MissingFraction is the share of missing cells in a column. An empty table
// has fraction 0 for every column.
func (t *Table) MissingFraction(name string) float64 {
	c, ok := t.Column(name)
	if !ok || t.rows == 0 {
		return 0
	}
	return float64(c.Missing()) / float64(t.rows)
}

// DuplicateRows returns the indexes of rows identical to an earlier row.
func (t *Table) DuplicateRows() []int {
	seen := make(map[string]struct{}, t.rows)
	var dups []int
	var sb strings.Builder
	for i := 0; i < t.rows; i++ {
		sb.Reset()
		for _, c := range t.cols {
			sb.WriteString(c.Values[i].key())
			sb.WriteByte(0x1f)
		}
		k := sb.String()
		if _, ok := seen[k]; ok {
			dups = append(dups, i)
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

// Row returns row i rendered as text, in column order.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[i].String()
	}
	return out
}
