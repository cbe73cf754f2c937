package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/ticketlens/internal/charts"
	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

// Insight is one chart plus the findings and recommendation drawn from it.
type Insight struct {
	Key            string       `json:"key"`
	Title          string       `json:"title"`
	Chart          *charts.Spec `json:"chart,omitempty"`
	Findings       []string     `json:"findings"`
	Recommendation string       `json:"recommendation"`
}

// Text renders the findings followed by the recommendation, one per line.
func (in Insight) Text() string {
	lines := append([]string(nil), in.Findings...)
	if in.Recommendation != "" {
		lines = append(lines, "Recommendation: "+in.Recommendation)
	}
	return strings.Join(lines, "\n")
}

// Insights evaluates every rule whose columns are present, in report order.
func Insights(t *table.Table, opt Options) []Insight {
	if opt.TopN <= 0 {
		opt.TopN = DefaultOptions().TopN
	}
	rules := []func(*table.Table, Options) (Insight, bool){
		technicianInsight,
		departmentInsight,
		priorityResolutionInsight,
		siteInsight,
		categoryInsight,
		resolutionInsight,
		monthlyInsight,
		priorityInsight,
		hourlyInsight,
		slaInsight,
	}
	var out []Insight
	for _, rule := range rules {
		if in, ok := rule(t, opt); ok {
			out = append(out, in)
		}
	}
	return out
}

func barInsight(key, title string, cc []CategoryCount) Insight {
	labels, vals := counts(cc)
	return Insight{
		Key:   key,
		Title: title,
		Chart: &charts.Spec{Kind: charts.Bar, Title: title, Labels: labels, Values: vals, YLabel: "Tickets"},
	}
}

func technicianInsight(t *table.Table, opt Options) (Insight, bool) {
	top := ValueCounts(t, cleaning.Technician, opt.TopN)
	if len(top) == 0 {
		return Insight{}, false
	}
	in := barInsight("technicians", fmt.Sprintf("Top %d Technicians", opt.TopN), top)
	in.Chart.XLabel = "Technician"
	_, vals := counts(top)
	lead := top[0]
	if len(vals) > 1 && float64(lead.Count) > stat.Mean(vals, nil)+stat.StdDev(vals, nil) {
		in.Findings = []string{fmt.Sprintf("Top Technician: %s handled %d tickets, significantly more than average.", lead.Value, lead.Count)}
		in.Recommendation = fmt.Sprintf("Distribute tasks better or recognize %s's performance formally.", lead.Value)
	} else {
		in.Findings = []string{fmt.Sprintf("Top Technician: %s is active (%d tickets).", lead.Value, lead.Count)}
		in.Recommendation = fmt.Sprintf("Encourage knowledge-sharing from %s.", lead.Value)
	}
	return in, true
}

func departmentInsight(t *table.Table, opt Options) (Insight, bool) {
	top := ValueCounts(t, cleaning.Department, opt.TopN)
	if len(top) == 0 {
		return Insight{}, false
	}
	in := barInsight("departments", fmt.Sprintf("Top %d Departments", opt.TopN), top)
	in.Chart.XLabel = "Department"
	in.Findings = []string{fmt.Sprintf("Top Department: %s has the highest number of tickets (%d).", top[0].Value, top[0].Count)}
	if means := groupMeans(t, cleaning.Department); len(means) > 0 {
		slow := means[0]
		for _, m := range means[1:] {
			if m.mean > slow.mean {
				slow = m
			}
		}
		in.Findings = append(in.Findings, fmt.Sprintf("Slowest Resolution Dept: %s (%.2f hrs avg)", slow.label, slow.mean))
	}
	in.Recommendation = "Review processes and resource allocation."
	return in, true
}

type groupMean struct {
	label  string
	mean   float64
	values []float64
}

// groupMeans averages resolution_time per value of the named column. Groups
// without any resolution are left out; the result is sorted by label.
func groupMeans(t *table.Table, name string) []groupMean {
	col, ok := t.Column(name)
	if !ok {
		return nil
	}
	res, ok := t.Column(cleaning.ResolutionTime)
	if !ok {
		return nil
	}
	groups := map[string][]float64{}
	for i, v := range col.Values {
		r := res.Values[i]
		if v.IsMissing() || r.Kind != table.Number {
			continue
		}
		groups[v.String()] = append(groups[v.String()], r.Num)
	}
	out := make([]groupMean, 0, len(groups))
	for k, vals := range groups {
		out = append(out, groupMean{label: k, mean: stat.Mean(vals, nil), values: vals})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

func priorityResolutionInsight(t *table.Table, _ Options) (Insight, bool) {
	means := groupMeans(t, cleaning.Priority)
	if len(means) == 0 {
		return Insight{}, false
	}
	title := "Resolution Time by Priority"
	spec := &charts.Spec{Kind: charts.Box, Title: title, XLabel: "Priority", YLabel: "Resolution time (hours)"}
	findings := []string{"Ensure high-priority tickets are resolved quicker than low-priority ones."}
	for _, m := range means {
		spec.Groups = append(spec.Groups, charts.Group{Label: m.label, Values: m.values})
		findings = append(findings, fmt.Sprintf("%s: %.2f hrs avg over %d tickets", m.label, m.mean, len(m.values)))
	}
	return Insight{
		Key:            "priority_resolution",
		Title:          title,
		Chart:          spec,
		Findings:       findings,
		Recommendation: "Reassess escalation and SLA strategies.",
	}, true
}

func siteInsight(t *table.Table, opt Options) (Insight, bool) {
	top := ValueCounts(t, cleaning.Site, opt.TopN)
	if len(top) == 0 {
		return Insight{}, false
	}
	in := barInsight("sites", "Top Sites by Ticket Volume", top)
	in.Chart.XLabel = "Site"
	in.Findings = []string{fmt.Sprintf("Top Site: %s.", top[0].Value)}
	in.Recommendation = "Assign focused support team or preventive strategy."
	return in, true
}

func categoryInsight(t *table.Table, _ Options) (Insight, bool) {
	all := ValueCounts(t, cleaning.Category, 0)
	if len(all) == 0 {
		return Insight{}, false
	}
	in := barInsight("categories", "Tickets by Category", all)
	in.Chart.XLabel = "Category"
	in.Findings = []string{fmt.Sprintf("Top Category: %s.", all[0].Value)}
	in.Recommendation = "Investigate root causes and reduce reoccurrence via training or upgrades."
	return in, true
}

func resolutionInsight(t *table.Table, opt Options) (Insight, bool) {
	hours := resolutionHours(t)
	if len(hours) == 0 {
		return Insight{}, false
	}
	bins := opt.HistogramBins
	if bins <= 0 {
		bins = DefaultOptions().HistogramBins
	}
	title := "Distribution of Resolution Time (hours)"
	in := Insight{
		Key:   "resolution_distribution",
		Title: title,
		Chart: &charts.Spec{Kind: charts.Histogram, Title: title, XLabel: "Resolution time (hours)", YLabel: "Tickets", Samples: hours, Bins: bins},
	}
	avg := stat.Mean(hours, nil)
	if avg > opt.BenchmarkHours {
		saving := SavingsEstimate(avg, t.NumRows(), opt)
		in.Findings = []string{fmt.Sprintf("Avg Resolution Time: %.2f hrs exceeds %s-hour benchmark.", avg, trimFloat(opt.BenchmarkHours))}
		in.Recommendation = fmt.Sprintf("Streamline process. Potential savings %s %s", opt.Currency, formatThousands(saving))
	} else {
		in.Findings = []string{fmt.Sprintf("Avg Resolution Time: %.2f hrs.", avg)}
		in.Recommendation = "Maintain or improve current workflow."
	}
	return in, true
}

// SavingsEstimate prices the hours above the benchmark across all tickets.
func SavingsEstimate(avgHours float64, tickets int, opt Options) float64 {
	if avgHours <= opt.BenchmarkHours {
		return 0
	}
	return (avgHours - opt.BenchmarkHours) * float64(tickets) * opt.CostPerHour
}

// MonthlyVolume counts tickets per created month, oldest first.
func MonthlyVolume(t *table.Table) []CategoryCount {
	col, ok := t.Column(cleaning.CreatedTime)
	if !ok {
		return nil
	}
	m := map[string]int{}
	for _, v := range col.Values {
		if v.Kind == table.Time {
			m[table.MonthOf(v.T).String()]++
		}
	}
	out := make([]CategoryCount, 0, len(m))
	for k, n := range m {
		out = append(out, CategoryCount{Value: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// SurgeMonths lists months whose volume exceeds mean + one standard
// deviation. It needs at least minMonths months of data.
func SurgeMonths(monthly []CategoryCount, minMonths int) []string {
	if len(monthly) < minMonths || len(monthly) < 2 {
		return nil
	}
	_, vals := counts(monthly)
	limit := stat.Mean(vals, nil) + stat.StdDev(vals, nil)
	var out []string
	for _, m := range monthly {
		if float64(m.Count) > limit {
			out = append(out, m.Value)
		}
	}
	return out
}

func monthlyInsight(t *table.Table, opt Options) (Insight, bool) {
	monthly := MonthlyVolume(t)
	if len(monthly) == 0 {
		return Insight{}, false
	}
	labels, vals := counts(monthly)
	title := "Monthly Ticket Volume"
	busiest := monthly[0]
	for _, m := range monthly[1:] {
		if m.Count > busiest.Count {
			busiest = m
		}
	}
	in := Insight{
		Key:      "monthly_volume",
		Title:    title,
		Chart:    &charts.Spec{Kind: charts.Line, Title: title, XLabel: "Month", YLabel: "Tickets", Labels: labels, Values: vals},
		Findings: []string{fmt.Sprintf("Busiest month: %s (%d tickets).", busiest.Value, busiest.Count)},
	}
	if surge := SurgeMonths(monthly, opt.MinSurgeMonths); len(surge) > 0 {
		in.Findings = append(in.Findings, "Surge Months: "+strings.Join(surge, ", "))
		in.Recommendation = "Increase staffing or preventive support in these months."
	} else {
		in.Recommendation = "Prepare early with staffing and preventive actions."
	}
	return in, true
}

func priorityInsight(t *table.Table, _ Options) (Insight, bool) {
	all := ValueCounts(t, cleaning.Priority, 0)
	if len(all) == 0 {
		return Insight{}, false
	}
	in := barInsight("priority", "Tickets by Priority", all)
	in.Chart.XLabel = "Priority"
	in.Findings = []string{fmt.Sprintf("Most common: %s.", all[0].Value)}
	in.Recommendation = "Ensure consistent priority assignment policies."
	return in, true
}

func hourlyInsight(t *table.Table, _ Options) (Insight, bool) {
	col, ok := t.Column(cleaning.CreatedTime)
	if !ok {
		return Insight{}, false
	}
	var perHour [24]int
	seen := false
	for _, v := range col.Values {
		if v.Kind == table.Time {
			perHour[v.T.Hour()]++
			seen = true
		}
	}
	if !seen {
		return Insight{}, false
	}
	var labels []string
	var vals []float64
	peak := -1
	for h, n := range perHour {
		if n == 0 {
			continue
		}
		labels = append(labels, strconv.Itoa(h))
		vals = append(vals, float64(n))
		if peak < 0 || n > perHour[peak] {
			peak = h
		}
	}
	title := "Tickets by Hour of Day"
	return Insight{
		Key:            "hourly",
		Title:          title,
		Chart:          &charts.Spec{Kind: charts.Bar, Title: title, XLabel: "Hour", YLabel: "Tickets", Labels: labels, Values: vals},
		Findings:       []string{fmt.Sprintf("Peak hour: %d:00.", peak)},
		Recommendation: "Boost support coverage during this hour.",
	}, true
}

// SLACompliance returns the percentage of tickets resolved within their SLA
// resolution time, over tickets that have both values.
func SLACompliance(t *table.Table) (pct float64, met, total int, ok bool) {
	sla, found := t.Column(cleaning.SLAResolutionTime)
	if !found {
		return 0, 0, 0, false
	}
	res, found := t.Column(cleaning.ResolutionTime)
	if !found {
		return 0, 0, 0, false
	}
	for i, s := range sla.Values {
		r := res.Values[i]
		if s.Kind != table.Duration || r.Kind != table.Number {
			continue
		}
		total++
		if r.Num <= s.D.Hours() {
			met++
		}
	}
	if total == 0 {
		return 0, 0, 0, false
	}
	return float64(met) * 100 / float64(total), met, total, true
}

func slaInsight(t *table.Table, opt Options) (Insight, bool) {
	pct, met, total, ok := SLACompliance(t)
	if !ok {
		return Insight{}, false
	}
	title := "SLA Compliance"
	in := Insight{
		Key:      "sla",
		Title:    title,
		Chart:    &charts.Spec{Kind: charts.Bar, Title: title, YLabel: "Tickets", Labels: []string{"Met", "Breached"}, Values: []float64{float64(met), float64(total - met)}},
		Findings: []string{fmt.Sprintf("SLA Compliance: %.2f%% (%d of %d tickets)", pct, met, total)},
	}
	if pct < opt.SLATargetPct {
		in.Recommendation = "Improve SLA adherence with alerts and better triaging."
	} else {
		in.Recommendation = "Keep consistent or optimize further with auto-routing."
	}
	return in, true
}

// formatThousands rounds f and groups its digits with commas.
func formatThousands(f float64) string {
	s := strconv.FormatInt(int64(math.Round(f)), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
