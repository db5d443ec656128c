// Package detector identifies which layout a scope log was exported with.
package detector

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ccollicutt/ncplot/pkg/ingest"
	"github.com/ccollicutt/ncplot/pkg/parser"
)

// DefaultSampleSize is the number of body rows examined by default.
const DefaultSampleSize = 100

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches     []LayoutMatch // Layouts that matched, sorted by confidence descending
	SampledRows int           // Number of non-blank body rows sampled
	CommonWidth int           // Most common token count among sampled rows

	// Duration is the header measurement time, valid when HeaderError is empty.
	Duration    float64
	HeaderError string

	// Note explains a weak or empty result.
	Note string
}

// LayoutMatch represents a layout that matched with its confidence score.
type LayoutMatch struct {
	Layout     ingest.Layout
	Confidence float64 // 0.0 to 1.0 (fraction of rows accepted in strict mode)
	MatchCount int     // Rows accepted with the exact layout width
	Usable     int     // Rows accepted when width is not enforced
	SampleRow  string  // Example row that matched
}

// Detector scores the known layouts against a log's body rows.
type Detector struct {
	layouts    []ingest.Layout
	sampleSize int
	startLine  int
	header     ingest.HeaderFormat
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of rows to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithStartLine sets the first body line (default 22).
func WithStartLine(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.startLine = n
		}
	}
}

// WithLayouts adds custom layouts to the built-in candidates.
func WithLayouts(layouts ...ingest.Layout) Option {
	return func(d *Detector) {
		d.layouts = append(d.layouts, layouts...)
	}
}

// WithHeaderFormat sets where the header timestamps are read from.
func WithHeaderFormat(h ingest.HeaderFormat) Option {
	return func(d *Detector) {
		d.header = h
	}
}

// New creates a new Detector with the built-in layouts.
func New(opts ...Option) *Detector {
	d := &Detector{
		layouts:    ingest.Builtin(),
		sampleSize: DefaultSampleSize,
		startLine:  ingest.DefaultStartLine,
		header:     ingest.DefaultHeaderFormat,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples the body of path, scores every layout and checks
// that the header yields a duration.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	rows, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}

	result := d.DetectFromRows(rows)

	duration, err := ingest.ExtractDurationWith(path, d.header)
	if err != nil {
		result.HeaderError = err.Error()
	} else {
		result.Duration = duration
	}

	return result, nil
}

// DetectFromRows scores each layout against tokenized rows.
func (d *Detector) DetectFromRows(rows [][]string) *DetectionResult {
	result := &DetectionResult{
		SampledRows: len(rows),
	}

	if len(rows) == 0 {
		result.Note = "no body rows found; check start_line"
		return result
	}

	widths := make(map[int]int)
	for _, fields := range rows {
		widths[len(fields)]++
	}
	for w, n := range widths {
		if n > widths[result.CommonWidth] || (n == widths[result.CommonWidth] && w < result.CommonWidth) {
			result.CommonWidth = w
		}
	}

	for _, layout := range d.layouts {
		m := LayoutMatch{Layout: layout}
		for _, fields := range rows {
			if !layout.Accepts(fields, false) {
				continue
			}
			m.Usable++
			if layout.Accepts(fields, true) {
				if m.MatchCount == 0 {
					m.SampleRow = strings.Join(fields, " ")
				}
				m.MatchCount++
			}
		}
		if m.MatchCount == 0 {
			continue
		}
		m.Confidence = float64(m.MatchCount) / float64(len(rows))
		result.Matches = append(result.Matches, m)
	}

	// Sort by confidence descending, then by width (more channels first)
	sort.SliceStable(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return result.Matches[i].Layout.Width() > result.Matches[j].Layout.Width()
	})

	if len(result.Matches) == 0 {
		result.Note = fmt.Sprintf("no known layout has %d tokens per row; declare a custom layout", result.CommonWidth)
	}

	return result
}

// sampleFile reads up to sampleSize non-blank body rows.
func (d *Detector) sampleFile(ctx context.Context, path string) ([][]string, error) {
	source := parser.NewFileSource(path, d.startLine)
	defer source.Close()

	var rows [][]string
	for len(rows) < d.sampleSize {
		row, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if row.Blank() || row.Oversized {
			continue
		}
		rows = append(rows, row.Fields)
	}

	return rows, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *LayoutMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one layout matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
