package analysis

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

func ts(day, month, hour int) table.Value {
	return table.TimeOf(time.Date(2024, time.Month(month), day, hour, 0, 0, 0, time.UTC))
}

// ticketTable builds a cleaned-looking table with the columns the rules read.
func ticketTable(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New(6)
	add := func(name string, vals ...table.Value) {
		if err := tb.AddColumn(name, vals); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	text := func(ss ...string) []table.Value {
		out := make([]table.Value, len(ss))
		for i, s := range ss {
			out[i] = table.TextOf(s)
		}
		return out
	}
	num := func(fs ...float64) []table.Value {
		out := make([]table.Value, len(fs))
		for i, f := range fs {
			out[i] = table.NumberOf(f)
		}
		return out
	}
	add(cleaning.CreatedTime, ts(1, 3, 9), ts(2, 3, 9), ts(3, 3, 14), ts(10, 4, 9), ts(11, 4, 10), table.Null())
	add(cleaning.Technician, text("Aina", "Aina", "Aina", "Aina", "Ben", "Chen")...)
	add(cleaning.Department, text("IT", "IT", "HR", "HR", "Ops", "")...)
	add(cleaning.Priority, text("High", "Low", "High", "Low", "Low", "High")...)
	add(cleaning.ResolutionTime, append(num(10, 100, 20, 60, 4), table.Null())...)
	add(cleaning.SLAResolutionTime,
		table.DurationOf(24*time.Hour), table.DurationOf(24*time.Hour), table.DurationOf(24*time.Hour),
		table.DurationOf(24*time.Hour), table.Null(), table.DurationOf(time.Hour))
	return tb
}

func TestFilterByCreatedDate(t *testing.T) {
	tb := ticketTable(t)
	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC)
	out, err := FilterByCreatedDate(tb, start, end)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2 (inclusive range)", out.NumRows())
	}
	if _, err := FilterByCreatedDate(tb, end.AddDate(0, 0, 1), start); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
	same, err := FilterByCreatedDate(tb, start, start)
	if err != nil || same.NumRows() != 1 {
		t.Fatalf("single-day range: rows=%d err=%v", same.NumRows(), err)
	}

	noDates := table.New(1)
	_ = noDates.AddColumn("site", []table.Value{table.TextOf("KL")})
	kept, err := FilterByCreatedDate(noDates, start, end)
	if err != nil || kept.NumRows() != 1 {
		t.Fatalf("table without created_time should pass through")
	}
}

func TestDateBoundsAndOverview(t *testing.T) {
	tb := ticketTable(t)
	first, last, ok := DateBounds(tb)
	if !ok || first.Day() != 1 || last.Day() != 11 || last.Month() != time.April {
		t.Fatalf("bounds = %v %v %v", first, last, ok)
	}
	o := Overview(tb)
	if o.TotalTickets != 6 || !o.HasResolution || o.MeanResolutionHours != 38.8 {
		t.Fatalf("overview = %+v", o)
	}
	if !o.HasDepartments || o.Departments != 3 {
		t.Fatalf("departments = %d", o.Departments)
	}
	if o.From != "01/03/2024" || o.To != "11/04/2024" {
		t.Fatalf("range = %s -> %s", o.From, o.To)
	}
	empty := Overview(table.New(0))
	if empty.HasResolution || empty.HasDepartments {
		t.Fatalf("empty overview = %+v", empty)
	}
}

func TestValueCountsOrdering(t *testing.T) {
	tb := ticketTable(t)
	got := ValueCounts(tb, cleaning.Department, 0)
	want := []CategoryCount{{"HR", 2}, {"IT", 2}, {"Ops", 1}}
	if len(got) != len(want) {
		t.Fatalf("counts = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counts[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if top := ValueCounts(tb, cleaning.Technician, 1); len(top) != 1 || top[0].Value != "Aina" {
		t.Fatalf("limit = %v", top)
	}
	if ValueCounts(tb, "nope", 0) != nil {
		t.Fatalf("absent column should give nil")
	}
}

func findInsight(ins []Insight, key string) (Insight, bool) {
	for _, in := range ins {
		if in.Key == key {
			return in, true
		}
	}
	return Insight{}, false
}

func TestInsights(t *testing.T) {
	ins := Insights(ticketTable(t), DefaultOptions())
	var keys []string
	for _, in := range ins {
		keys = append(keys, in.Key)
	}
	want := "technicians,departments,priority_resolution,resolution_distribution,monthly_volume,priority,hourly,sla"
	if got := strings.Join(keys, ","); got != want {
		t.Fatalf("insight order = %s\nwant %s", got, want)
	}

	tech, _ := findInsight(ins, "technicians")
	if !strings.Contains(tech.Text(), "Aina handled 4 tickets, significantly more than average") {
		t.Fatalf("technician text = %q", tech.Text())
	}
	dept, _ := findInsight(ins, "departments")
	if !strings.Contains(dept.Text(), "Slowest Resolution Dept: IT (55.00 hrs avg)") {
		t.Fatalf("department text = %q", dept.Text())
	}
	hourly, _ := findInsight(ins, "hourly")
	if !strings.Contains(hourly.Text(), "Peak hour: 9:00.") {
		t.Fatalf("hourly text = %q", hourly.Text())
	}
	sla, _ := findInsight(ins, "sla")
	if !strings.Contains(sla.Text(), "SLA Compliance: 50.00% (2 of 4 tickets)") ||
		!strings.Contains(sla.Text(), "Improve SLA adherence") {
		t.Fatalf("sla text = %q", sla.Text())
	}
	box, _ := findInsight(ins, "priority_resolution")
	if box.Chart == nil || len(box.Chart.Groups) != 2 || box.Chart.Groups[0].Label != "High" {
		t.Fatalf("box groups = %+v", box.Chart)
	}
}

func TestResolutionInsightSavings(t *testing.T) {
	tb := table.New(4)
	_ = tb.AddColumn(cleaning.ResolutionTime, []table.Value{
		table.NumberOf(50), table.NumberOf(60), table.NumberOf(70), table.Null(),
	})
	ins := Insights(tb, DefaultOptions())
	if len(ins) != 1 || ins[0].Key != "resolution_distribution" {
		t.Fatalf("insights = %+v", ins)
	}
	// mean 60h over 4 tickets: (60-48) * 4 * 50 = 2400
	if !strings.Contains(ins[0].Text(), "exceeds 48-hour benchmark") ||
		!strings.Contains(ins[0].Text(), "Potential savings RM 2,400") {
		t.Fatalf("text = %q", ins[0].Text())
	}
	if got := SavingsEstimate(40, 10, DefaultOptions()); got != 0 {
		t.Fatalf("savings under benchmark = %v", got)
	}
}

func TestSurgeMonths(t *testing.T) {
	monthly := []CategoryCount{
		{"2024-01", 10}, {"2024-02", 11}, {"2024-03", 9},
		{"2024-04", 10}, {"2024-05", 40}, {"2024-06", 10},
	}
	if got := SurgeMonths(monthly, 6); len(got) != 1 || got[0] != "2024-05" {
		t.Fatalf("surge = %v", got)
	}
	if got := SurgeMonths(monthly[:5], 6); got != nil {
		t.Fatalf("fewer than six months should not report surges: %v", got)
	}
}

func TestFormatThousands(t *testing.T) {
	cases := map[float64]string{0: "0", 999: "999", 1000: "1,000", 1234567.6: "1,234,568", -2500: "-2,500"}
	for in, want := range cases {
		if got := formatThousands(in); got != want {
			t.Errorf("formatThousands(%v) = %q, want %q", in, got, want)
		}
	}
}
