// Package charts renders the report and dashboard charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg" // png canvas
)

// Kind names a chart type.
type Kind string

const (
	Bar       Kind = "bar"
	Box       Kind = "box"
	Histogram Kind = "histogram"
	Line      Kind = "line"
)

// DefaultWidth and DefaultHeight size charts for the PDF report.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// ErrNoData is returned when a spec has nothing to plot.
var ErrNoData = errors.New("chart has no data")

// Group is one labelled sample set of a box chart.
type Group struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Spec describes a chart independently of how it is drawn.
type Spec struct {
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
	// Labels and Values feed bar and line charts.
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values,omitempty"`
	// Groups feed box charts.
	Groups []Group `json:"groups,omitempty"`
	// Samples and Bins feed histograms.
	Samples []float64 `json:"samples,omitempty"`
	Bins    int       `json:"bins,omitempty"`
}

var (
	barColor  = color.RGBA{R: 42, G: 157, B: 143, A: 255}
	lineColor = color.RGBA{R: 38, G: 70, B: 83, A: 255}
)

// Render draws s and encodes it as PNG.
func Render(s Spec, width, height vg.Length) ([]byte, error) {
	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	p.Add(plotter.NewGrid())

	var err error
	switch s.Kind {
	case Bar:
		err = addBars(p, s)
	case Box:
		err = addBoxes(p, s)
	case Histogram:
		err = addHistogram(p, s)
	case Line:
		err = addLine(p, s)
	default:
		err = fmt.Errorf("unknown chart kind %q", s.Kind)
	}
	if err != nil {
		return nil, err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return buf.Bytes(), nil
}

func addBars(p *plot.Plot, s Spec) error {
	if len(s.Values) == 0 || len(s.Labels) != len(s.Values) {
		return ErrNoData
	}
	vals := make(plotter.Values, len(s.Values))
	copy(vals, s.Values)
	bars, err := plotter.NewBarChart(vals, barWidth(len(vals)))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(s.Labels...)
	tiltLabels(p, s.Labels)
	return nil
}

func addBoxes(p *plot.Plot, s Spec) error {
	var labels []string
	for _, g := range s.Groups {
		vals := finite(g.Values)
		if len(vals) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(len(labels)), vals)
		if err != nil {
			return fmt.Errorf("box plot %q: %w", g.Label, err)
		}
		box.FillColor = barColor
		p.Add(box)
		labels = append(labels, g.Label)
	}
	if len(labels) == 0 {
		return ErrNoData
	}
	p.NominalX(labels...)
	tiltLabels(p, labels)
	return nil
}

func addHistogram(p *plot.Plot, s Spec) error {
	vals := finite(s.Samples)
	if len(vals) == 0 {
		return ErrNoData
	}
	bins := s.Bins
	if bins <= 0 {
		bins = 30
	}
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	h.FillColor = barColor
	p.Add(h)
	return nil
}

func addLine(p *plot.Plot, s Spec) error {
	if len(s.Values) == 0 || len(s.Labels) != len(s.Values) {
		return ErrNoData
	}
	pts := make(plotter.XYs, len(s.Values))
	for i, v := range s.Values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)
	points.Shape = draw.CircleGlyph{}
	points.Color = lineColor
	p.Add(line, points)
	p.NominalX(s.Labels...)
	tiltLabels(p, s.Labels)
	return nil
}

func barWidth(n int) vg.Length {
	w := vg.Points(400 / float64(n+1))
	if w > vg.Points(40) {
		w = vg.Points(40)
	}
	return w
}

// tiltLabels slants crowded or long category labels so they stay legible.
func tiltLabels(p *plot.Plot, labels []string) {
	long := false
	for _, l := range labels {
		if len(l) > 8 {
			long = true
			break
		}
	}
	if len(labels) > 6 || long {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
}

func finite(in []float64) plotter.Values {
	out := make(plotter.Values, 0, len(in))
	for _, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
