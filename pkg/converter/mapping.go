// pkg/converter/mapping.go
package converter

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when a text value is read as a date/time
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",             // ISO8601 UTC
	"2006-01-02T15:04:05-07:00",        // ISO8601 with timezone
	"2006-01-02T15:04:05.999999Z",      // ISO8601 with microseconds
	"2006-01-02T15:04:05.999999-07:00", // ISO8601 with microseconds and TZ
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"01-02-2006",
	"20060102T150405Z", // Compact ISO8601
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// DetectTimeFormat analyzes a value to determine its timestamp format
// Returns "" when no known layout matches
func DetectTimeFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || isDigitsOnly(value) {
		return ""
	}

	for _, format := range timeLayouts {
		if _, err := time.Parse(format, value); err == nil {
			return format
		}
	}

	return ""
}

// isDigitsOnly keeps plain integers such as years or ids from being read as dates
func isDigitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseTime reads a text value as a date/time in the converter's default zone
func (c *TypeConverter) ParseTime(value string) (time.Time, bool) {
	format := DetectTimeFormat(value)
	if format == "" {
		return time.Time{}, false
	}

	loc, err := time.LoadLocation(c.config.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(format, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseNumber reads a text value as a float
func ParseNumber(value string) (float64, bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float in its shortest round-trip form
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTimes renders the times of one column, date-only when every value is at midnight UTC
func FormatTimes(times []time.Time) []string {
	dateOnly := true
	for _, t := range times {
		u := t.UTC()
		if u.Hour() != 0 || u.Minute() != 0 || u.Second() != 0 || u.Nanosecond() != 0 {
			dateOnly = false
			break
		}
	}

	out := make([]string, len(times))
	for i, t := range times {
		if dateOnly {
			out[i] = t.UTC().Format("2006-01-02")
		} else {
			out[i] = t.UTC().Format("2006-01-02 15:04:05")
		}
	}
	return out
}
