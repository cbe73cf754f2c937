package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/charts"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New(2)
	if err := tb.AddColumn("site", []table.Value{table.TextOf("KL"), table.Null()}); err != nil {
		t.Fatalf("add: %v", err)
	}
	return tb
}

func TestWriteProducesPDF(t *testing.T) {
	ins := []analysis.Insight{
		{
			Key:            "sites",
			Title:          "Top Sites by Ticket Volume",
			Chart:          &charts.Spec{Kind: charts.Bar, Labels: []string{"KL"}, Values: []float64{1}},
			Findings:       []string{"Top Site: KL."},
			Recommendation: "Assign focused support team or preventive strategy.",
		},
		{Key: "sla", Title: "SLA Compliance", Findings: []string{"SLA Compliance: 90.00%"}},
	}
	var buf bytes.Buffer
	err := Write(&buf, sampleTable(t), ins, Options{Source: "tickets.xlsx", GeneratedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
}

func TestBuildPaginates(t *testing.T) {
	var ins []analysis.Insight
	for i := 0; i < 4; i++ {
		ins = append(ins, analysis.Insight{
			Key:      string(rune('a' + i)),
			Title:    "Block",
			Chart:    &charts.Spec{Kind: charts.Bar, Labels: []string{"x", "y"}, Values: []float64{1, 2}},
			Findings: []string{"finding"},
		})
	}
	pdf := build(sampleTable(t), ins, Options{})
	if pdf.Err() {
		t.Fatalf("pdf error: %v", pdf.Error())
	}
	if pdf.PageCount() < 3 {
		t.Fatalf("pages = %d, want chart blocks spread over several pages", pdf.PageCount())
	}
}

func TestBuildDegradesFailedCharts(t *testing.T) {
	ins := []analysis.Insight{{Key: "empty", Title: "Empty", Chart: &charts.Spec{Kind: charts.Bar}, Findings: []string{"nothing"}}}
	pdf := build(sampleTable(t), ins, Options{})
	if pdf.Err() || pdf.PageCount() != 1 {
		t.Fatalf("text-only block should render on one page: err=%v pages=%d", pdf.Error(), pdf.PageCount())
	}
}

func TestBlockKeepsChartWithText(t *testing.T) {
	w := newWriter()
	w.newPage()
	w.y = w.max - imageHeight - 1
	in := analysis.Insight{
		Key:            "sites",
		Title:          "Top Sites by Ticket Volume",
		Chart:          &charts.Spec{Kind: charts.Bar, Labels: []string{"KL", "Penang"}, Values: []float64{3, 1}},
		Findings:       []string{"Top Site: KL."},
		Recommendation: "Assign focused support team or preventive strategy.",
	}
	w.block(in, zap.NewNop())
	if w.pdf.Err() {
		t.Fatalf("pdf error: %v", w.pdf.Error())
	}
	if w.pdf.PageCount() != 2 {
		t.Fatalf("pages = %d, want the block moved to a second page", w.pdf.PageCount())
	}
	if w.y < pageTop+imageHeight {
		t.Fatalf("y = %v: chart was left on the previous page", w.y)
	}

	w.y = w.max - lineHeight - 1
	w.block(analysis.Insight{Key: "text", Title: "Text Only", Findings: []string{"one", "two", "three"}}, zap.NewNop())
	if w.pdf.PageCount() != 3 {
		t.Fatalf("pages = %d, want title and findings kept together", w.pdf.PageCount())
	}
	if want := pageTop + lineHeight + 3*noteSpacing; w.y < want {
		t.Fatalf("y = %v, want title drawn on the new page (>= %v)", w.y, want)
	}
}

func TestWrap(t *testing.T) {
	long := strings.Repeat("word ", 30)
	for _, l := range wrap(long, 90) {
		if len(l) > 90 {
			t.Fatalf("line too long: %d", len(l))
		}
	}
	got := wrap("first\n"+strings.Repeat("x", 95), 90)
	if len(got) != 3 || got[0] != "first" || len(got[1]) != 90 || got[2] != "xxxxx" {
		t.Fatalf("wrap = %q", got)
	}
}
