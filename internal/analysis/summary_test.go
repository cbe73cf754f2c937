package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

func TestSummarizeMarkdown(t *testing.T) {
	raw := table.New(3)
	add := func(name string, ss ...string) {
		vals := make([]table.Value, len(ss))
		for i, s := range ss {
			vals[i] = table.TextOf(s)
		}
		if err := raw.AddColumn(name, vals); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	add("Created Time", "01/03/2024 10:00", "01/03/2024 10:00", "bogus")
	add("FCR", "Yes", "Yes", "maybe")
	add("Notes", "", "", "x")

	res, err := cleaning.Clean(raw)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	rep := Summarize("tickets.xlsx", raw, res, DefaultOptions())
	if rep.Before.Cols != 3 || rep.After.Rows != 3 {
		t.Fatalf("stats = %+v / %+v", rep.Before, rep.After)
	}
	if rep.Before.Duplicates != 1 {
		t.Fatalf("duplicates = %d", rep.Before.Duplicates)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[CLEANING SUMMARY]",
		"File: tickets.xlsx",
		"Rows: 3 -> 3",
		"[BEFORE CLEANING]",
		"- Created Time: text (missing 0)",
		"[AFTER CLEANING]",
		"- created_time: datetime (missing 1)",
		"- notes (more than half missing)",
		"- fcr: 1",
		"[HEAD AND SAMPLE ROWS]",
		"| created_time | fcr | month |",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestInsightsMarkdown(t *testing.T) {
	o := OverviewStats{TotalTickets: 2}
	md := InsightsMarkdown(o, []Insight{{Title: "Top Sites by Ticket Volume", Findings: []string{"Top Site: KL."}, Recommendation: "Act."}})
	for _, want := range []string{"Total Tickets: 2", "Avg Resolution Time (hrs): n/a", "[TOP SITES BY TICKET VOLUME]", "Recommendation: Act."} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
}
