package ingest

import (
	"fmt"

	"github.com/ccollicutt/ncplot/pkg/parser"
)

// HeaderFormat locates the start and end timestamps in the log header.
type HeaderFormat struct {
	// StartLine is the 1-based line holding the start timestamp.
	StartLine int
	// EndLine is the 1-based line holding the end timestamp.
	EndLine int
	// TokenIndex is the 0-based whitespace token holding HH:MM:SS.
	TokenIndex int
}

// DefaultHeaderFormat matches the scope export: timestamps on lines 3 and 4,
// seventh token.
var DefaultHeaderFormat = HeaderFormat{
	StartLine:  3,
	EndLine:    4,
	TokenIndex: 6,
}

func (h HeaderFormat) orDefault() HeaderFormat {
	if h == (HeaderFormat{}) {
		return DefaultHeaderFormat
	}
	return h
}

// ExtractDuration returns the measurement duration in seconds recorded in the
// header of path, using DefaultHeaderFormat.
func ExtractDuration(path string) (float64, error) {
	return ExtractDurationWith(path, DefaultHeaderFormat)
}

// ExtractDurationWith returns end minus start in seconds. The end is assumed
// to follow the start; a negative result is returned unchanged.
func ExtractDurationWith(path string, h HeaderFormat) (float64, error) {
	h = h.orDefault()
	if h.StartLine < 1 || h.EndLine < 1 {
		return 0, fmt.Errorf("header lines must be >= 1 (start %d, end %d)", h.StartLine, h.EndLine)
	}

	last := h.StartLine
	if h.EndLine > last {
		last = h.EndLine
	}

	lines, err := parser.ReadHeader(path, last)
	if err != nil {
		return 0, err
	}
	if len(lines) < last {
		return 0, &FormatError{
			Path:   path,
			Reason: fmt.Sprintf("header has %d lines, need %d", len(lines), last),
		}
	}

	extractor := parser.NewClockExtractor(h.TokenIndex)

	start, err := extractor.Extract(lines[h.StartLine-1])
	if err != nil {
		return 0, &FormatError{Path: path, Line: h.StartLine, Reason: "start time: " + err.Error()}
	}
	end, err := extractor.Extract(lines[h.EndLine-1])
	if err != nil {
		return 0, &FormatError{Path: path, Line: h.EndLine, Reason: "end time: " + err.Error()}
	}

	return end - start, nil
}
