package table

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tb := New(3)
	if err := tb.AddColumn("site", []Value{TextOf("KL"), TextOf("KL"), TextOf("")}); err != nil {
		t.Fatalf("add site: %v", err)
	}
	if err := tb.AddColumn("fcr", []Value{BoolOf(true), BoolOf(true), Null()}); err != nil {
		t.Fatalf("add fcr: %v", err)
	}
	return tb
}

func TestAddColumnRejectsBadLengthAndDuplicates(t *testing.T) {
	tb := New(2)
	if err := tb.AddColumn("a", []Value{Null()}); err == nil {
		t.Fatalf("expected length error")
	}
	if err := tb.AddColumn("a", []Value{Null(), Null()}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tb.AddColumn("a", []Value{Null(), Null()}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestMissingAndDuplicates(t *testing.T) {
	tb := sample(t)
	mc := tb.MissingCounts()
	if len(mc) != 2 || mc[0].Missing != 1 || mc[1].Missing != 1 {
		t.Fatalf("missing counts = %#v", mc)
	}
	if got := tb.MissingFraction("site"); got < 0.33 || got > 0.34 {
		t.Fatalf("missing fraction = %v", got)
	}
	dups := tb.DuplicateRows()
	if len(dups) != 1 || dups[0] != 1 {
		t.Fatalf("duplicates = %v, want [1]", dups)
	}
}

func TestDuplicateRowsDistinguishesKinds(t *testing.T) {
	tb := New(2)
	_ = tb.AddColumn("x", []Value{TextOf("True"), BoolOf(true)})
	if dups := tb.DuplicateRows(); len(dups) != 0 {
		t.Fatalf("text and bool should not compare equal: %v", dups)
	}
}

func TestDropRenameClone(t *testing.T) {
	tb := sample(t)
	cp := tb.Clone()
	if err := tb.Rename("site", "fcr"); err == nil {
		t.Fatalf("expected rename clash")
	}
	if err := tb.Rename("site", "location"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	tb.Drop("fcr")
	if got := strings.Join(tb.Names(), ","); got != "location" {
		t.Fatalf("names = %s", got)
	}
	if got := strings.Join(cp.Names(), ","); got != "site,fcr" {
		t.Fatalf("clone affected: %s", got)
	}
	if !tb.Cell(0, "fcr").IsMissing() {
		t.Fatalf("absent column should read as missing")
	}
}

func TestDropLeavesEarlierColumnsSlice(t *testing.T) {
	tb := New(1)
	for _, n := range []string{"a", "b", "c"} {
		if err := tb.AddColumn(n, []Value{TextOf(n)}); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	before := tb.Columns()
	tb.Drop("a")
	got := make([]string, len(before))
	for i, c := range before {
		got[i] = c.Name
	}
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("earlier Columns slice changed: %v", got)
	}
	if strings.Join(tb.Names(), ",") != "b,c" {
		t.Fatalf("names = %v", tb.Names())
	}
	if tb.Cell(0, "c").String() != "c" {
		t.Fatalf("index not rebuilt after drop")
	}
}

func TestFilterKeepsColumns(t *testing.T) {
	tb := sample(t)
	out := tb.Filter(func(i int) bool { return i != 1 })
	if out.NumRows() != 2 || out.NumCols() != 2 {
		t.Fatalf("filtered shape = %dx%d", out.NumRows(), out.NumCols())
	}
	if out.Cell(1, "site").String() != "" {
		t.Fatalf("row 2 should be the blank site row")
	}
}

func TestDtype(t *testing.T) {
	c := &Column{Values: []Value{Null(), TimeOf(time.Now())}}
	if c.Dtype() != "datetime" {
		t.Fatalf("dtype = %s", c.Dtype())
	}
	c.Values = append(c.Values, TextOf("x"))
	if c.Dtype() != "mixed" {
		t.Fatalf("dtype = %s", c.Dtype())
	}
	if (&Column{Values: []Value{Null()}}).Dtype() != "empty" {
		t.Fatalf("expected empty dtype")
	}
}

func TestValueString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{NumberOf(28), "28.0"},
		{NumberOf(-1.5), "-1.5"},
		{TimeOf(ts), "2024-03-01 10:00:00"},
		{MonthOf(ts), "2024-03"},
		{DurationOf(26*time.Hour + 30*time.Minute), "1 days 02:30:00"},
		{DurationOf(-90 * time.Second), "-0 days 00:01:30"},
		{BoolOf(true), "True"},
		{BoolOf(false), "False"},
		{TextOf("  open "), "open"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String(%#v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	tb := sample(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tb); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "site,fcr\nKL,True\nKL,True\n,\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}
