package ingest

import (
	"context"
	"io"
	"math"
	"strconv"

	"github.com/ccollicutt/ncplot/pkg/parser"
)

// Body is the parsed data section of a scope log.
type Body struct {
	Fast ChannelGroup
	Slow ChannelGroup

	// Accepted is the number of rows that contributed to every channel.
	Accepted int
	// Discarded is the number of rows dropped, including width mismatches.
	Discarded int
	// WidthMismatched counts rows dropped because their token count did not
	// match the layout width. Only populated in strict width mode.
	WidthMismatched int
	// MismatchWidth is the most common token count among mismatched rows.
	MismatchWidth int
}

type bodyConfig struct {
	strictWidth bool
}

// BodyOption configures ParseBody.
type BodyOption func(*bodyConfig)

// WithStrictWidth rejects rows whose token count differs from the layout width.
func WithStrictWidth(strict bool) BodyOption {
	return func(c *bodyConfig) {
		c.strictWidth = strict
	}
}

// ParseBody reads the rows of path from startLine onward and fills one array
// per layout channel. A row is accepted only if every referenced token parses
// as a finite float; otherwise the whole row is discarded, so index i of every
// channel always refers to the same source row.
func ParseBody(ctx context.Context, path string, startLine int, layout Layout, opts ...BodyOption) (*Body, error) {
	cfg := bodyConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	body := &Body{
		Fast: make(ChannelGroup),
		Slow: make(ChannelGroup),
	}
	groups := make([]ChannelGroup, len(layout.Channels))
	for i, ch := range layout.Channels {
		groups[i] = body.Fast
		if ch.Group == GroupSlow {
			groups[i] = body.Slow
		}
		groups[i][ch.Name] = []float64{}
	}

	width := layout.Width()
	widths := make(map[int]int)
	values := make([]float64, len(layout.Channels))

	source := parser.NewFileSource(path, startLine)
	defer source.Close()

	for {
		row, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if row.Oversized {
			body.Discarded++
			continue
		}

		if cfg.strictWidth && !row.Blank() && row.Width() != width {
			body.Discarded++
			body.WidthMismatched++
			widths[row.Width()]++
			continue
		}

		if !coerceRow(row.Fields, layout, values) {
			body.Discarded++
			continue
		}

		for i, ch := range layout.Channels {
			groups[i][ch.Name] = append(groups[i][ch.Name], values[i])
		}
		body.Accepted++
	}

	for w, n := range widths {
		if n > widths[body.MismatchWidth] || (n == widths[body.MismatchWidth] && w < body.MismatchWidth) {
			body.MismatchWidth = w
		}
	}

	return body, nil
}

// coerceRow fills dst with the layout's values from fields. It reports false
// as soon as a referenced token is missing, non-numeric or non-finite.
func coerceRow(fields []string, layout Layout, dst []float64) bool {
	for i, ch := range layout.Channels {
		if ch.Token >= len(fields) {
			return false
		}
		v, err := strconv.ParseFloat(fields[ch.Token], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		dst[i] = v
	}
	return true
}

// Accepts reports whether fields would be accepted as a row of l. With
// strict set the token count must also equal l.Width().
func (l Layout) Accepts(fields []string, strict bool) bool {
	if strict && len(fields) != l.Width() {
		return false
	}
	return coerceRow(fields, l, make([]float64, len(l.Channels)))
}
