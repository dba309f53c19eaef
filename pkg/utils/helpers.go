package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses a duration string like "500ms", falling back
// to the given default on empty or malformed input.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}

// ParseUnits parses an upstream unit-count string as an integer.
// Upstream pads these with blanks, dashes or decimal tails; anything
// that does not parse counts as zero, never an error.
func ParseUnits(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// "12.0" style values show up in matured indent rows
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// demandDateLayouts covers the formats the upstream emits demand dates in.
var demandDateLayouts = []string{
	"02-01-2006 15:04",
	"02-01-06 15:04",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDemandDate parses an upstream demand date defensively. A nil result
// means the row keeps flowing with no date rather than being dropped.
func ParseDemandDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range demandDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseHour extracts an hour of day (0-23) from an "HH:MM" style time
// string. Returns -1 when no hour can be read.
func ParseHour(s string) int {
	s = strings.TrimSpace(s)
	sep := strings.IndexByte(s, ':')
	if sep <= 0 {
		return -1
	}
	h, err := strconv.Atoi(s[:sep])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

// Round2 rounds to two decimal places, the precision the dashboard shows
// for average units per order.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Percentage returns round(completed/total*100) as an integer, 0 when
// total is zero.
func Percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
