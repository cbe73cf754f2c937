package cleaning

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/ticketlens/internal/table"
)

// rawTable builds a text-only table the way a loader would.
func rawTable(t *testing.T, header []string, rows ...[]string) *table.Table {
	t.Helper()
	tb := table.New(len(rows))
	for j, h := range header {
		vals := make([]table.Value, len(rows))
		for i, r := range rows {
			vals[i] = table.TextOf(r[j])
		}
		if err := tb.AddColumn(h, vals); err != nil {
			t.Fatalf("add %s: %v", h, err)
		}
	}
	return tb
}

func TestCleanComputesResolutionHours(t *testing.T) {
	raw := rawTable(t,
		[]string{"Created Time", "Resolved Time", "Request Status"},
		[]string{"01/03/2024 10:00", "02/03/2024 14:00", "Closed"},
	)
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	got := res.Table.Cell(0, ResolutionTime)
	if got.Kind != table.Number || got.Num != 28.0 {
		t.Fatalf("resolution_time = %v, want 28.0", got)
	}
	if m := res.Table.Cell(0, "month").String(); m != "2024-03" {
		t.Fatalf("month = %q", m)
	}
	if s := res.Table.Cell(0, RequestStatus).String(); s != "closed" {
		t.Fatalf("status should be lower-cased, got %q", s)
	}
}

func TestCleanBooleanColumns(t *testing.T) {
	raw := rawTable(t,
		[]string{"FCR", "VIP User"},
		[]string{"Yes", "no"},
		[]string{"maybe", "TRUE"},
		[]string{"no", "false"},
	)
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	fcr, ok := res.Table.Column("fcr")
	if !ok {
		t.Fatalf("fcr column missing; have %v", res.Table.Names())
	}
	if v := fcr.Values[0]; v.Kind != table.Bool || !v.B {
		t.Fatalf("Yes should be true, got %v", v)
	}
	if !fcr.Values[1].IsMissing() {
		t.Fatalf("maybe should be missing, got %v", fcr.Values[1])
	}
	if res.Coerced["fcr"] != 1 {
		t.Fatalf("coerced = %v", res.Coerced)
	}
	if w := res.Warning(); !strings.Contains(w, "fcr (1)") {
		t.Fatalf("warning = %q", w)
	}
}

func sparseRaw(t *testing.T, rows, missing int) *table.Table {
	t.Helper()
	data := make([][]string, rows)
	for i := range data {
		notes := "note"
		if i < missing {
			notes = ""
		}
		data[i] = []string{fmt.Sprintf("T%d", i), notes}
	}
	return rawTable(t, []string{"Ticket", "Notes"}, data...)
}

func TestCleanDropsSparseColumns(t *testing.T) {
	res, err := Clean(sparseRaw(t, 1000, 600))
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if res.Table.Has("notes") {
		t.Fatalf("600/1000 missing should be dropped")
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "notes" {
		t.Fatalf("dropped = %v", res.Dropped)
	}

	res, err = Clean(sparseRaw(t, 1000, 500))
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !res.Table.Has("notes") {
		t.Fatalf("exactly half missing should be kept")
	}
}

func TestCleanNullsOnHoldResolution(t *testing.T) {
	raw := rawTable(t,
		[]string{"Created Time", "Resolved Time", "Request Status"},
		[]string{"01/03/2024 10:00", "01/03/2024 12:00", "OnHold"},
		[]string{"01/03/2024 10:00", "01/03/2024 11:00", "Closed"},
		[]string{"01/03/2024 10:00", "01/03/2024 13:00", "Closed"},
	)
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !res.Table.Cell(0, ResolvedTime).IsMissing() {
		t.Fatalf("onhold ticket should have no resolved_time")
	}
	if !res.Table.Cell(0, ResolutionTime).IsMissing() {
		t.Fatalf("onhold ticket should have no resolution_time")
	}
	if res.OnHoldNulled != 1 {
		t.Fatalf("onhold nulled = %d", res.OnHoldNulled)
	}
	if v := res.Table.Cell(1, ResolutionTime); v.Num != 1 {
		t.Fatalf("row 2 resolution = %v", v)
	}
}

func TestCleanKeepsNegativeResolution(t *testing.T) {
	raw := rawTable(t,
		[]string{"Created Time", "Resolved Time"},
		[]string{"02/03/2024 10:00", "01/03/2024 10:00"},
	)
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if v := res.Table.Cell(0, ResolutionTime); v.Num != -24 {
		t.Fatalf("resolution = %v, want -24", v)
	}
}

func TestCleanPreservesRowsAndRaw(t *testing.T) {
	raw := rawTable(t,
		[]string{"Created Time", "SLA resolution time", "Site"},
		[]string{"bad", "02:00:00", "KL"},
		[]string{"01/03/2024 10:00", "later", "KL"},
		[]string{"01/03/2024 10:00", "1 days, 00:00:00", "KL"},
	)
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if res.Table.NumRows() != raw.NumRows() {
		t.Fatalf("rows = %d, want %d", res.Table.NumRows(), raw.NumRows())
	}
	if v := raw.Cell(0, "Created Time"); v.Kind != table.Text || v.Str != "bad" {
		t.Fatalf("raw table was mutated: %v", v)
	}
	if !raw.Has("Site") || raw.Has("site") {
		t.Fatalf("raw headers were renamed: %v", raw.Names())
	}
	if res.CoercedTotal() != 2 {
		t.Fatalf("coerced = %v", res.Coerced)
	}
	if v := res.Table.Cell(2, SLAResolutionTime); v.Kind != table.Duration || v.String() != "1 days 00:00:00" {
		t.Fatalf("sla = %v", v)
	}
	if res.Table.Has(ResolutionTime) {
		t.Fatalf("resolution_time needs both timestamps")
	}
}

func TestCleanEveryColumnWithinSparseLimit(t *testing.T) {
	raw := rawTable(t,
		[]string{"Created Time", "Resolved Time", "Request Status", "Notes"},
		[]string{"01/03/2024 10:00", "01/03/2024 12:00", "OnHold", ""},
		[]string{"01/03/2024 10:00", "01/03/2024 12:00", "OnHold", "x"},
		[]string{"01/03/2024 10:00", "01/03/2024 12:00", "Closed", ""},
		[]string{"01/03/2024 10:00", "01/03/2024 15:00", "Closed", ""},
	)
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	for _, name := range res.Table.Names() {
		if f := res.Table.MissingFraction(name); f > SparseThreshold {
			t.Errorf("%s missing fraction %v exceeds %v", name, f, SparseThreshold)
		}
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "notes" {
		t.Fatalf("dropped = %v, want [notes]", res.Dropped)
	}
	if !res.Table.Has(ResolvedTime) {
		t.Fatalf("resolved_time at exactly half missing should be kept")
	}
	for i := 0; i < 2; i++ {
		if !res.Table.Cell(i, ResolvedTime).IsMissing() {
			t.Errorf("row %d: onhold resolved_time should be missing", i)
		}
	}
	if v := res.Table.Cell(3, ResolvedTime); v.Kind != table.Time {
		t.Errorf("closed resolved_time = %v, want a timestamp", v)
	}
	if v := res.Table.Cell(3, ResolutionTime); v.Num != 5 {
		t.Errorf("resolution = %v, want 5", v)
	}
}

func TestCleanRejectsColumnConflict(t *testing.T) {
	raw := rawTable(t, []string{"Created Time", "created time"}, []string{"a", "b"})
	_, err := Clean(raw)
	if !errors.Is(err, ErrColumnConflict) {
		t.Fatalf("err = %v, want ErrColumnConflict", err)
	}
	var ce *ColumnConflictError
	if !errors.As(err, &ce) || ce.Name != "created_time" || len(ce.Raw) != 2 {
		t.Fatalf("conflict detail = %#v", ce)
	}
}

func TestCleanEmptyTable(t *testing.T) {
	raw := rawTable(t, []string{"Created Time", "Site"})
	res, err := Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if res.Table.NumRows() != 0 || !res.Table.Has("site") {
		t.Fatalf("empty table shape: %v", res.Table.Names())
	}
	if res.Warning() != "" {
		t.Fatalf("no warning expected")
	}
}
