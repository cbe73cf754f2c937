package parser

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/ticketlens/internal/table"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Load reads the selected sheet as formatted text. Numeric cells carrying a
// date format are read from their serial value instead and written as
// "2006-01-02 15:04:05", since excelize renders them in a US short form.
func (xlsxLoader) Load(r io.Reader, opt Options) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New(0), nil
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	dc := newDateCells(f, sheet)
	for i := 1; i < len(rows) && i < len(raw); i++ {
		for j := 0; j < len(rows[i]) && j < len(raw[i]); j++ {
			if s, ok := dc.iso(j+1, i+1, raw[i][j]); ok {
				rows[i][j] = s
			}
		}
	}
	return buildTable(rows[0], rows[1:])
}

// dateCells resolves which cells hold Excel date serials. Style lookups are
// cached per style index.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	dc := &dateCells{f: f, sheet: sheet, styles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		dc.date1904 = *props.Date1904
	}
	return dc
}

// iso converts the raw value at (col, row), both 1-based, when it is a
// number formatted as a date.
func (dc *dateCells) iso(col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	idx, err := dc.f.GetCellStyle(dc.sheet, cell)
	if err != nil || idx == 0 {
		return "", false
	}
	isDate, seen := dc.styles[idx]
	if !seen {
		if style, err := dc.f.GetStyle(idx); err == nil {
			isDate = dateStyle(style)
		}
		dc.styles[idx] = isDate
	}
	if !isDate {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, dc.date1904)
	if err != nil {
		return "", false
	}
	return t.Round(time.Second).Format("2006-01-02 15:04:05"), true
}

var (
	quotedRe  = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]`)
	builtinID = map[int]bool{14: true, 15: true, 16: true, 17: true, 22: true}
)

// dateStyle reports whether a number format shows a calendar date. Time-only
// formats such as "h:mm" are not dates.
func dateStyle(s *excelize.Style) bool {
	if s.CustomNumFmt != nil {
		code := strings.ToLower(quotedRe.ReplaceAllString(*s.CustomNumFmt, ""))
		return strings.ContainsAny(code, "yd")
	}
	n := s.NumFmt
	return builtinID[n] || (n >= 27 && n <= 36) || (n >= 50 && n <= 58)
}

func pickSheet(sheets []string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if s == opt.SheetName {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (have: %s)", opt.SheetName, strings.Join(sheets, ", "))
	}
	if opt.SheetIndex > 0 {
		if opt.SheetIndex > len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (workbook has %d)", opt.SheetIndex, len(sheets))
		}
		return sheets[opt.SheetIndex-1], nil
	}
	return sheets[0], nil
}
