package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/ticketlens/internal/analysis"
	"github.com/KaramelBytes/ticketlens/internal/cleaning"
	cfgpkg "github.com/KaramelBytes/ticketlens/internal/config"
	"github.com/KaramelBytes/ticketlens/internal/parser"
	"github.com/KaramelBytes/ticketlens/internal/table"
)

// settings returns the loaded config, or defaults when loading was skipped.
func settings() *cfgpkg.Global {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return &cfgpkg.Global{}
		}
		cfg = c
	}
	return cfg
}

func loadOptions() parser.Options {
	c := settings()
	return parser.Options{SheetName: c.SheetName, SheetIndex: c.SheetIndex}
}

// loadAndClean reads path and runs the cleaning pipeline, reporting coercion
// misses as a warning.
func loadAndClean(path string) (*table.Table, *cleaning.Result, error) {
	start := time.Now()
	raw, err := parser.LoadFile(path, loadOptions())
	if err != nil {
		return nil, nil, err
	}
	res, err := cleaning.Clean(raw)
	if err != nil {
		return nil, nil, err
	}
	if w := res.Warning(); w != "" {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
	}
	log.Debug("cleaned",
		zap.String("file", filepath.Base(path)),
		zap.Int("rows", res.Table.NumRows()),
		zap.Int("cols_before", raw.NumCols()),
		zap.Int("cols_after", res.Table.NumCols()),
		zap.Strings("dropped", res.Dropped),
		zap.Duration("took", time.Since(start)),
	)
	return raw, res, nil
}

// filterByFlags applies --start/--end (DD/MM/YYYY or YYYY-MM-DD). A missing
// bound defaults to the data's own first or last created date.
func filterByFlags(t *table.Table, start, end string) (*table.Table, error) {
	if start == "" && end == "" {
		return t, nil
	}
	first, last, ok := analysis.DateBounds(t)
	if !ok {
		fmt.Fprintln(os.Stderr, "⚠ Warning: no created_time values; date filter ignored")
		return t, nil
	}
	from, err := parseFlagDate(start, first)
	if err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	to, err := parseFlagDate(end, last)
	if err != nil {
		return nil, fmt.Errorf("--end: %w", err)
	}
	out, err := analysis.FilterByCreatedDate(t, from, to)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Selected Range: %s -> %s (%d tickets)\n", from.Format(analysis.DateLayout), to.Format(analysis.DateLayout), out.NumRows())
	return out, nil
}

func parseFlagDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	for _, layout := range []string{analysis.DateLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use DD/MM/YYYY)", s)
}
