package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the dynamic type held by a Value.
type Kind int

const (
	Missing Kind = iota
	Text
	Number
	Time
	Duration
	Bool
	Month
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Text:
		return "text"
	case Number:
		return "number"
	case Time:
		return "datetime"
	case Duration:
		return "duration"
	case Bool:
		return "bool"
	case Month:
		return "month"
	default:
		return "unknown"
	}
}

// TimeLayout is the textual form used for timestamps in exports.
const TimeLayout = "2006-01-02 15:04:05"

// MonthLayout is the textual form of a year-month bucket.
const MonthLayout = "2006-01"

// Value is a single cell. The zero Value is missing.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	T    time.Time
	D    time.Duration
	B    bool
}

// Null returns a missing value.
func Null() Value { return Value{} }

// TextOf returns a text value, or missing when s is blank.
func TextOf(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	return Value{Kind: Text, Str: s}
}

// NumberOf returns a numeric value; NaN is treated as missing.
func NumberOf(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: Number, Num: f}
}

func TimeOf(t time.Time) Value { return Value{Kind: Time, T: t} }

func DurationOf(d time.Duration) Value { return Value{Kind: Duration, D: d} }

func BoolOf(b bool) Value { return Value{Kind: Bool, B: b} }

// MonthOf buckets t into its calendar month.
func MonthOf(t time.Time) Value {
	return Value{Kind: Month, T: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())}
}

// IsMissing reports whether v holds no value.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// String renders v in its default export form. Missing renders as "".
func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Str
	case Number:
		return formatFloat(v.Num)
	case Time:
		return v.T.Format(TimeLayout)
	case Duration:
		return formatDuration(v.D)
	case Bool:
		if v.B {
			return "True"
		}
		return "False"
	case Month:
		return v.T.Format(MonthLayout)
	default:
		return ""
	}
}

// key is a kind-qualified rendering used for equality checks.
func (v Value) key() string {
	return strconv.Itoa(int(v.Kind)) + ":" + v.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// formatDuration renders d as "D days HH:MM:SS[.ffffff]".
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	out := fmt.Sprintf("%s%d days %02d:%02d:%02d", sign, days, h, m, s)
	if d > 0 {
		out += fmt.Sprintf(".%06d", d/time.Microsecond)
	}
	return out
}
