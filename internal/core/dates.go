package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days with day 0 = Dec 30 1899; 25569
// is the day-count from that epoch to the Unix epoch.
const serialUnixEpochDays = 25569

// The query endpoint serializes a genuine date cell as a constructor
// call with a zero-indexed month, e.g. "Date(2026,0,21)" for
// January 21 2026. Generic parsing of that form produces nonsense, so
// it must be detected first.
var ctorDatePattern = regexp.MustCompile(`^Date\((\d+),(\d+),(\d+)`)

// dateLayouts are tried in order for generic string parsing.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
}

// ResolveDate parses a raw date cell under the display policy. Empty or
// missing values resolve to now with ok=true (the row is treated as
// "happened now", not an error). A non-empty value that fails every
// parse returns ok=false so display code can render a sentinel instead
// of a bogus date.
func ResolveDate(v any, now time.Time) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return now, true
	case float64:
		return serialToTime(d), true
	case int:
		return serialToTime(float64(d)), true
	case int64:
		return serialToTime(float64(d)), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return now, true
		}
		if m := ctorDatePattern.FindStringSubmatch(s); m != nil {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.Local), true
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
		return now, false
	default:
		return now, false
	}
}

// ResolveDateOrNow is the aggregation policy: anything unparseable
// resolves to now, so window classification never fails and a bad date
// can never abort the rest of a pass.
func ResolveDateOrNow(v any, now time.Time) time.Time {
	t, _ := ResolveDate(v, now)
	return t
}

func serialToTime(serial float64) time.Time {
	ms := (serial - serialUnixEpochDays) * 86400 * 1000
	return time.UnixMilli(int64(math.Round(ms)))
}
