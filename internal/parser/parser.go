// Package parser loads tabular ticket exports into a table.Table.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/ticketlens/internal/table"
)

// Options selects what to read from a file.
type Options struct {
	// SheetName picks an xlsx sheet by name. It wins over SheetIndex.
	SheetName string
	// SheetIndex is the 1-based xlsx sheet position; 0 means the first sheet.
	SheetIndex int
	// Delimiter for csv. If 0, it is chosen from the extension or sniffed.
	Delimiter rune
}

// Loader reads one tabular format.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.Reader, opt Options) (*table.Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{ext: ".csv"})
	Register(csvLoader{ext: ".tsv", comma: '\t'})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// LoadFile opens path and loads it with the first loader that accepts its name.
func LoadFile(path string, opt Options) (*table.Table, error) {
	l, err := pick(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return load(l, path, f, opt)
}

// LoadReader loads r, using name only to choose the format.
func LoadReader(name string, r io.Reader, opt Options) (*table.Table, error) {
	l, err := pick(name)
	if err != nil {
		return nil, err
	}
	return load(l, name, r, opt)
}

func pick(name string) (Loader, error) {
	for _, l := range registry {
		if l.CanLoad(name) {
			return l, nil
		}
	}
	ext := filepath.Ext(name)
	if ext == "" {
		ext = "(none)"
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

func load(l Loader, name string, r io.Reader, opt Options) (*table.Table, error) {
	t, err := l.Load(r, opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(name), err)
	}
	return t, nil
}

// buildTable turns a header plus raw rows into a text table. Short rows are
// padded, cells past the header are ignored, blank rows are skipped and
// repeated headers become "Name.1", "Name.2".
func buildTable(header []string, rows [][]string) (*table.Table, error) {
	names := uniqueHeaders(header)
	var keep [][]string
	for _, r := range rows {
		if blankRow(r) {
			continue
		}
		keep = append(keep, r)
	}
	t := table.New(len(keep))
	for j, name := range names {
		vals := make([]table.Value, len(keep))
		for i, r := range keep {
			if j < len(r) {
				vals[i] = table.TextOf(r[j])
			}
		}
		if err := t.AddColumn(name, vals); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		k := seen[h]
		if k == 0 {
			seen[h] = 1
			out[i] = h
			continue
		}
		var name string
		for {
			name = h + "." + strconv.Itoa(k)
			k++
			if !taken[name] {
				break
			}
		}
		seen[h] = k
		taken[name] = true
		out[i] = name
	}
	return out
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
