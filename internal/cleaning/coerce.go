package cleaning

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/ticketlens/internal/table"
)

// NormalizeName trims, lower-cases and replaces spaces with underscores.
// Applying it twice yields the same name.
func NormalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// ParseBool maps "true"/"yes" to true and "false"/"no" to false, ignoring case
// and surrounding space. Anything else is missing.
func ParseBool(s string) table.Value {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return table.BoolOf(true)
	case "false", "no":
		return table.BoolOf(false)
	default:
		return table.Null()
	}
}

// Day-first layouts come first; Go's "2" and "1" accept one or two digits, so
// "01/03/2024" and "1/3/2024" both read as 1 March 2024.
var timestampLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	// month-first only matches once day-first has failed, e.g. "03/25/2024"
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// ParseTimestamp parses day-first or ISO date/time text in UTC. Unparseable
// text is missing.
func ParseTimestamp(s string) table.Value {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if s == "" {
		return table.Null()
	}
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return table.TimeOf(t)
		}
	}
	return table.Null()
}

var (
	clockRe    = regexp.MustCompile(`^(?:(\d+)\s*days?\s*,?\s*)?(\d+):(\d{1,2})(?::(\d{1,2})(\.\d+)?)?$`)
	daysOnlyRe = regexp.MustCompile(`^(\d+)\s*days?$`)
	unitSeqRe  = regexp.MustCompile(`^(?:\d+(?:\.\d+)?\s*[a-z]+\s*,?\s*)+$`)
	unitTokRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]+)`)
	bareNumRe  = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
)

var unitSizes = map[string]time.Duration{
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
}

// ParseDuration accepts "[D day[s][,]] H:MM[:SS[.fff]]", "D day[s]", Go
// duration syntax ("1h30m") and "<number> <unit>" sequences ("2 hours 15 min").
// A leading "-" negates. Bare numbers and anything else are missing.
func ParseDuration(s string) table.Value {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || bareNumRe.MatchString(s) {
		return table.Null()
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	d, ok := parseDurationBody(s)
	if !ok {
		return table.Null()
	}
	if neg {
		d = -d
	}
	return table.DurationOf(d)
}

func parseDurationBody(s string) (time.Duration, bool) {
	if m := clockRe.FindStringSubmatch(s); m != nil {
		days := atoi(m[1])
		h := atoi(m[2])
		mins := atoi(m[3])
		secs := atoi(m[4])
		if mins > 59 || secs > 59 {
			return 0, false
		}
		d := time.Duration(days)*24*time.Hour + time.Duration(h)*time.Hour +
			time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second
		if m[5] != "" {
			frac, err := strconv.ParseFloat("0"+m[5], 64)
			if err != nil {
				return 0, false
			}
			d += time.Duration(math.Round(frac * float64(time.Second)))
		}
		return d, true
	}
	if m := daysOnlyRe.FindStringSubmatch(s); m != nil {
		return time.Duration(atoi(m[1])) * 24 * time.Hour, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if !unitSeqRe.MatchString(s) {
		return 0, false
	}
	var total float64
	for _, m := range unitTokRe.FindAllStringSubmatch(s, -1) {
		size, ok := unitSizes[m[2]]
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		total += n * float64(size)
	}
	if total > math.MaxInt64 {
		return 0, false
	}
	return time.Duration(math.Round(total)), true
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// coercer converts an already-loaded cell into a typed value. ok is false when
// a non-missing input could not be converted.
type coercer func(v table.Value) (out table.Value, ok bool)

func textCoercer(kind table.Kind, parse func(string) table.Value) coercer {
	return func(v table.Value) (table.Value, bool) {
		switch v.Kind {
		case table.Missing:
			return v, true
		case kind:
			return v, true
		case table.Text:
			out := parse(v.Str)
			return out, !out.IsMissing()
		default:
			out := parse(v.String())
			return out, !out.IsMissing()
		}
	}
}

var (
	asDuration  = textCoercer(table.Duration, ParseDuration)
	asTimestamp = textCoercer(table.Time, ParseTimestamp)
	asBool      = textCoercer(table.Bool, ParseBool)
)
