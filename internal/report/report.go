// Package report writes the paged PDF summary of a cleaned ticket table.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/charts"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

// Page geometry in points on a Letter page, measured from the top edge.
const (
	pageTop      = 42.0
	bottomMargin = 100.0
	leftMargin   = 50.0
	textIndent   = 60.0
	lineHeight   = 15.0
	noteSpacing  = 14.0
	imageWidth   = 500.0
	imageHeight  = 300.0
	wrapWidth    = 90
)

// Options customizes a report.
type Options struct {
	Title string
	// Source names the uploaded file, if known.
	Source      string
	GeneratedAt time.Time
	Logger      *zap.Logger
}

// Write renders t and its insights as a Letter-size PDF.
func Write(w io.Writer, t *table.Table, insights []analysis.Insight, opt Options) error {
	pdf := build(t, insights, opt)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
	max float64
}

func build(t *table.Table, insights []analysis.Insight, opt Options) *fpdf.Fpdf {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Title == "" {
		opt.Title = "Incident Ticket Report Summary"
	}
	if opt.GeneratedAt.IsZero() {
		opt.GeneratedAt = time.Now()
	}

	w := newWriter()
	pdf := w.pdf
	pdf.SetTitle(opt.Title, true)
	pdf.SetCreator("ticketlens", true)
	w.newPage()

	id := uuid.NewString()
	w.line(leftMargin, opt.Title, lineHeight)
	w.line(leftMargin, "Report ID: "+id, lineHeight)
	w.line(leftMargin, "Generated: "+opt.GeneratedAt.Format("2006-01-02 15:04"), lineHeight)
	if opt.Source != "" {
		w.line(leftMargin, "Source: "+opt.Source, lineHeight)
	}
	w.line(leftMargin, fmt.Sprintf("Total Rows: %d", t.NumRows()), lineHeight)
	w.line(leftMargin, fmt.Sprintf("Total Columns: %d", t.NumCols()), lineHeight)
	w.y += 15

	w.line(leftMargin, "Missing Values:", lineHeight)
	listed := false
	for _, mc := range t.MissingCounts() {
		if mc.Missing > 0 {
			listed = true
			w.line(leftMargin+20, fmt.Sprintf("%s: %d", mc.Column, mc.Missing), lineHeight)
		}
	}
	if !listed {
		w.line(leftMargin+20, "None", lineHeight)
	}
	w.y += 15
	w.line(leftMargin, "Visual Insights:", 20)

	for _, in := range insights {
		w.block(in, log)
	}
	log.Debug("report built", zap.String("report_id", id), zap.Int("pages", pdf.PageCount()), zap.Int("insights", len(insights)))
	return pdf
}

func newWriter() *writer {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	_, pageH := pdf.GetPageSize()
	return &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), max: pageH - bottomMargin}
}

func (w *writer) newPage() {
	w.pdf.AddPage()
	w.pdf.SetFont("Helvetica", "", 10)
	w.y = pageTop
}

// need starts a new page when h more points would cross the bottom margin.
func (w *writer) need(h float64) {
	if w.y+h > w.max {
		w.newPage()
	}
}

func (w *writer) line(x float64, s string, advance float64) {
	w.need(advance)
	w.pdf.Text(x, w.y, w.tr(s))
	w.y += advance
}

// block draws one insight with its chart, title and text on one page. A block
// taller than a page keeps the chart with its title and first line.
func (w *writer) block(in analysis.Insight, log *zap.Logger) {
	var img []byte
	if in.Chart != nil {
		var err error
		img, err = charts.Render(*in.Chart, charts.DefaultWidth, charts.DefaultHeight)
		if err != nil {
			log.Warn("chart skipped", zap.String("insight", in.Key), zap.Error(err))
			img = nil
		}
	}
	lines := wrap(in.Text(), wrapWidth)
	text := lineHeight + noteSpacing*float64(len(lines))
	head := 0.0
	if img != nil {
		head = imageHeight + 20
	}
	h := head + text
	if h > w.max-pageTop {
		h = head + lineHeight + noteSpacing
	}
	w.need(h)

	if img != nil {
		name := "chart-" + in.Key
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		w.pdf.ImageOptions(name, leftMargin, w.y, imageWidth, imageHeight, false, opts, 0, "")
		w.y += head
	}
	w.line(leftMargin, in.Title, lineHeight)
	for _, l := range lines {
		w.line(textIndent, l, noteSpacing)
	}
	w.y += 20
}

// wrap breaks text into lines of at most width characters, splitting at the
// last space when there is one.
func wrap(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		for len(para) > width {
			cut := strings.LastIndex(para[:width], " ")
			if cut <= 0 {
				out = append(out, para[:width])
				para = para[width:]
				continue
			}
			out = append(out, para[:cut])
			para = para[cut+1:]
		}
		out = append(out, para)
	}
	return out
}
