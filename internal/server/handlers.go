package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	"github.com/KaramelBytes/ticketlens/internal/logging"
	"github.com/KaramelBytes/ticketlens/internal/parser"
	"github.com/KaramelBytes/ticketlens/internal/report"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// SummaryResponse is returned by POST /api/summary.
type SummaryResponse struct {
	Cleaning *analysis.CleaningReport `json:"cleaning"`
	Overview analysis.OverviewStats   `json:"overview"`
	Insights []analysis.Insight       `json:"insights"`
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(err error) error { return &statusError{status: http.StatusBadRequest, err: err} }

// upload is one processed request body.
type upload struct {
	name     string
	raw      *table.Table
	result   *cleaning.Result
	filtered *table.Table
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	up, err := s.process(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Cleaning: analysis.Summarize(up.name, up.raw, up.result, s.cfg.Analysis),
		Overview: analysis.Overview(up.filtered),
		Insights: analysis.Insights(up.filtered, s.cfg.Analysis),
	})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	up, err := s.process(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, up.result.Table); err != nil {
		s.respondError(w, r, err)
		return
	}
	if warn := up.result.Warning(); warn != "" {
		w.Header().Set("X-Coercion-Warning", warn)
	}
	attachment(w, "text/csv; charset=utf-8", "cleaned_file.csv")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	up, err := s.process(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	ins := analysis.Insights(up.filtered, s.cfg.Analysis)
	opt := report.Options{Source: up.name, Logger: logging.WithRequest(r.Context(), s.log)}
	if err := report.Write(&buf, up.filtered, ins, opt); err != nil {
		s.respondError(w, r, err)
		return
	}
	attachment(w, "application/pdf", "ticket_report.pdf")
	_, _ = w.Write(buf.Bytes())
}

// process loads the multipart "file" field, cleans it and applies the
// optional start/end query filter.
func (s *Server) process(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, &statusError{status: http.StatusRequestEntityTooLarge, err: fmt.Errorf("upload exceeds %d bytes", s.cfg.MaxUploadBytes)}
		}
		return nil, badRequest(fmt.Errorf("parse form: %w", err))
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest(fmt.Errorf("missing file field: %w", err))
	}
	defer f.Close()

	raw, err := parser.LoadReader(hdr.Filename, f, s.cfg.Load)
	if err != nil {
		return nil, badRequest(err)
	}
	res, err := cleaning.Clean(raw)
	if err != nil {
		return nil, err
	}
	up := &upload{name: hdr.Filename, raw: raw, result: res, filtered: res.Table}
	if res.CoercedTotal() > 0 {
		logging.WithRequest(r.Context(), s.log).Warn("coercion misses", zap.String("file", hdr.Filename), zap.Int("count", res.CoercedTotal()))
	}

	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if start == "" && end == "" {
		return up, nil
	}
	first, last, ok := analysis.DateBounds(res.Table)
	if !ok {
		return up, nil
	}
	from, err := parseDate(start, first)
	if err != nil {
		return nil, badRequest(err)
	}
	to, err := parseDate(end, last)
	if err != nil {
		return nil, badRequest(err)
	}
	up.filtered, err = analysis.FilterByCreatedDate(res.Table, from, to)
	if err != nil {
		return nil, badRequest(err)
	}
	return up, nil
}

// parseDate accepts ISO or day-first dates; empty means fallback.
func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	for _, layout := range []string{"2006-01-02", analysis.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var se *statusError
	switch {
	case errors.As(err, &se):
		status = se.status
	case errors.Is(err, cleaning.ErrColumnConflict):
		status = http.StatusUnprocessableEntity
	}
	logging.WithRequest(r.Context(), s.log).Warn("request error",
		zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>TicketLens</title></head>
<body>
<h1>Incident Ticket Analysis</h1>
<form method="post" enctype="multipart/form-data" action="/api/summary">
  <p><input type="file" name="file" accept=".xlsx,.csv,.tsv" required></p>
  <p>
    <button type="submit" formaction="/api/summary">Summary (JSON)</button>
    <button type="submit" formaction="/api/clean">Download cleaned CSV</button>
    <button type="submit" formaction="/api/report">Download PDF report</button>
  </p>
</form>
</body>
</html>
`
