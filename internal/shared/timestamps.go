package shared

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried in order. Layouts without a zone are read as UTC.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999Z0700", true},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02 15:04:05.999999999Z0700", true},
	{"2006-01-02T15:04:05.999999999Z07", true},
	{"2006-01-02 15:04:05.999999999Z07", true},
	{"20060102T150405.999999999Z07:00", true},
	{"20060102T150405.999999999Z0700", true},
	{"20060102T150405.999999999Z07", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"20060102T150405.999999999", false},
	{"2006-01-02", false},
}

// NormalizeTimestamp converts a provider timestamp into a UTC [time.Time].
//
// Integers and floats are epoch seconds. Strings made only of digits are epoch seconds as well
// (Flickr sends them that way); any other string is parsed as ISO-8601.
func NormalizeTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC(), nil
	case int:
		return time.Unix(int64(ts), 0).UTC(), nil
	case int64:
		return time.Unix(ts, 0).UTC(), nil
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedTimestamp, ts)
		}
		sec, frac := math.Modf(ts)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case string:
		s := strings.TrimSpace(ts)
		if isDigits(s) {
			return ParseEpoch(s)
		}
		return ParseISO8601(s)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrMalformedTimestamp, v)
	}
}

// ParseEpoch parses a decimal string of epoch seconds.
func ParseEpoch(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not epoch seconds", ErrMalformedTimestamp, s)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// ParseISO8601 parses the ISO-8601 forms the Nixplay API has been seen to return.
func ParseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrMalformedTimestamp)
	}

	for _, l := range isoLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t.UTC(), nil
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
