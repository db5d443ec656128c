package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ClockExtractor pulls a time-of-day token out of a header line and converts
// it to seconds since midnight.
type ClockExtractor struct {
	tokenIndex int
}

// NewClockExtractor creates an extractor reading the whitespace token at
// tokenIndex (0-based).
func NewClockExtractor(tokenIndex int) *ClockExtractor {
	return &ClockExtractor{tokenIndex: tokenIndex}
}

// Extract returns the seconds since midnight encoded by the clock token of line.
func (e *ClockExtractor) Extract(line string) (float64, error) {
	fields := strings.Fields(line)
	if e.tokenIndex < 0 || e.tokenIndex >= len(fields) {
		return 0, fmt.Errorf("no token at index %d (line has %d tokens)", e.tokenIndex, len(fields))
	}
	return ParseClock(fields[e.tokenIndex])
}

// ParseClock converts an "HH:MM:SS" string to seconds since midnight.
// Each component may be fractional, so "10:00:05.25" is accepted.
func ParseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("clock %q: want HH:MM:SS", s)
	}

	var values [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("clock %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("clock %q: component %q is not finite", s, p)
		}
		values[i] = v
	}

	return values[0]*3600 + values[1]*60 + values[2], nil
}
