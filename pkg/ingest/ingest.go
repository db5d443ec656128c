// Package ingest turns a motion-controller scope log into two time-aligned
// channel groups: the NC-rate (fast) channels and the PLC-rate (slow) gantry
// channels.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultStartLine is the first body line of a scope export.
const DefaultStartLine = 22

// Options configures a single Ingest call.
type Options struct {
	// StartLine is the 1-based first body line. Zero means DefaultStartLine.
	StartLine int

	// Layout selects the row tokens for each channel. A zero value means Standard.
	Layout Layout

	// GantryCutoff truncates the slow group to a fifth of the fast length
	// before its time axis is built.
	GantryCutoff bool

	// Header locates the timestamps. A zero value means DefaultHeaderFormat.
	Header HeaderFormat

	// StrictWidth drops rows whose token count differs from the layout width.
	StrictWidth bool

	// Logger receives the debug summary. Nil disables it.
	Logger *slog.Logger
}

// Stats describes what happened to the rows of a log.
type Stats struct {
	RowsAccepted    int `json:"rows_accepted" msgpack:"rows_accepted"`
	RowsDiscarded   int `json:"rows_discarded" msgpack:"rows_discarded"`
	WidthMismatches int `json:"width_mismatches" msgpack:"width_mismatches"`
	FastLen         int `json:"fast_len" msgpack:"fast_len"`
	SlowLen         int `json:"slow_len" msgpack:"slow_len"`
	// SlowTruncated is the number of slow samples removed by the gantry cutoff.
	SlowTruncated int `json:"slow_truncated" msgpack:"slow_truncated"`
}

// Ratio returns the fast to slow sample ratio, or 0 when the slow group is empty.
func (s Stats) Ratio() float64 {
	if s.SlowLen == 0 {
		return 0
	}
	return float64(s.FastLen) / float64(s.SlowLen)
}

// Result is the outcome of ingesting one log file.
type Result struct {
	Path     string
	Layout   Layout
	Duration float64
	Fast     ChannelGroup
	Slow     ChannelGroup
	Stats    Stats
}

// Lookup returns a channel and its time axis, from whichever group holds it.
func (r *Result) Lookup(name string) (values, time []float64, ok bool) {
	if v, found := r.Fast[name]; found && name != TimeKey {
		return v, r.Fast.Time(), true
	}
	if v, found := r.Slow[name]; found && name != TimeKey {
		return v, r.Slow.Time(), true
	}
	return nil, nil, false
}

// Group returns the channel group g.
func (r *Result) Group(g Group) ChannelGroup {
	if g == GroupSlow {
		return r.Slow
	}
	return r.Fast
}

// Ingest reads the header duration and the body of path, optionally applies
// the gantry cutoff, and attaches a synthetic time axis to each group.
func Ingest(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.StartLine == 0 {
		opts.StartLine = DefaultStartLine
	}
	if opts.Layout.Name == "" && len(opts.Layout.Channels) == 0 {
		opts.Layout = Standard
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout %q: %w", opts.Layout.Name, err)
	}

	duration, err := ExtractDurationWith(path, opts.Header)
	if err != nil {
		return nil, err
	}

	body, err := ParseBody(ctx, path, opts.StartLine, opts.Layout, WithStrictWidth(opts.StrictWidth))
	if err != nil {
		return nil, err
	}

	if body.Accepted == 0 && body.WidthMismatched > 0 {
		return nil, &LayoutMismatchError{
			Layout: opts.Layout.Name,
			Want:   opts.Layout.Width(),
			Got:    body.MismatchWidth,
			Rows:   body.WidthMismatched,
		}
	}

	fastLen := body.Fast.Len()
	slow := body.Slow
	slowRaw := slow.Len()
	if opts.GantryCutoff {
		slow = ApplyGantryCutoff(slow, fastLen)
	}
	slowLen := slow.Len()

	fast := body.Fast
	fast[TimeKey] = SynthesizeTimeAxis(duration, fastLen)
	slow[TimeKey] = SynthesizeTimeAxis(duration, slowLen)

	result := &Result{
		Path:     path,
		Layout:   opts.Layout,
		Duration: duration,
		Fast:     fast,
		Slow:     slow,
		Stats: Stats{
			RowsAccepted:    body.Accepted,
			RowsDiscarded:   body.Discarded,
			WidthMismatches: body.WidthMismatched,
			FastLen:         fastLen,
			SlowLen:         slowLen,
			SlowTruncated:   slowRaw - slowLen,
		},
	}

	if opts.Logger != nil {
		logSummary(ctx, opts.Logger, result)
	}

	return result, nil
}

func logSummary(ctx context.Context, logger *slog.Logger, r *Result) {
	logger.DebugContext(ctx, "measurement time", "path", r.Path, "seconds", r.Duration)
	for _, name := range r.Fast.Names() {
		logger.DebugContext(ctx, "points", "group", GroupFast, "channel", name, "count", len(r.Fast[name]))
	}
	for _, name := range r.Slow.Names() {
		logger.DebugContext(ctx, "points", "group", GroupSlow, "channel", name, "count", len(r.Slow[name]))
	}
	logger.DebugContext(ctx, "ratio NC/PLC",
		"ratio", r.Stats.Ratio(),
		"accepted", r.Stats.RowsAccepted,
		"discarded", r.Stats.RowsDiscarded,
		"width_mismatches", r.Stats.WidthMismatches,
		"slow_truncated", r.Stats.SlowTruncated,
	)
}
