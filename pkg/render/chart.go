// Package render draws scope channels as charts and writes them as PNG
// images or as a multi-page PDF report.
package render

import (
	"context"
	"image/color"
	"strings"
	"unicode"
)

// Kind is the arrangement of a chart's series.
type Kind string

const (
	// KindSingle plots one series.
	KindSingle Kind = "single"
	// KindDouble plots two series on the same axes, typically actual and set value.
	KindDouble Kind = "double"
	// KindOverlay stacks one panel per series, sharing the x axis.
	KindOverlay Kind = "overlay"
)

// Range is a closed interval.
type Range struct {
	Min float64
	Max float64
}

// ROI is a rectangular region of interest that fixes both axis ranges.
type ROI struct {
	X Range
	Y Range
}

// Series is one line of a chart.
type Series struct {
	Label string
	X     []float64
	Y     []float64

	// YLabel is the panel label of an overlay series.
	YLabel string

	// Color overrides the palette colour when set.
	Color color.Color
}

// Len returns the number of plottable points.
func (s Series) Len() int {
	return min(len(s.X), len(s.Y))
}

// Chart describes one figure.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Kind   Kind
	Series []Series
	ROI    *ROI
}

// Slug returns a file-name friendly form of the title.
func (c Chart) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(c.Title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Renderer writes a set of charts somewhere.
type Renderer interface {
	Render(ctx context.Context, charts []Chart) error
}
