package output

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ccollicutt/ncplot/pkg/analyzer"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	lw := &lineWriter{w: w, width: f.opts.Width}
	if f.opts.Quiet {
		f.formatQuiet(report, lw)
	} else {
		f.formatFull(report, lw)
	}
	return lw.err
}

func (f *TextFormatter) formatQuiet(report *Report, w *lineWriter) {
	w.printf("ncplot: %s: %d limits checked, %d with issues, %d total issues",
		filepath.Base(report.Metadata.Source),
		report.Summary.LimitsChecked,
		report.Summary.LimitsWithIssues,
		report.Summary.TotalIssues)
}

func (f *TextFormatter) formatFull(report *Report, w *lineWriter) {
	s := report.Summary

	w.printf("=== ncplot Report: %s ===", filepath.Base(report.Metadata.Source))
	w.println()
	w.printf("Layout:       %s", s.Layout)
	w.printf("Measurement:  %.3f s", s.MeasurementTime)
	w.printf("Rows:         %d accepted, %d discarded (%d width mismatches)",
		s.RowsAccepted, s.RowsDiscarded, s.WidthMismatches)
	samples := fmt.Sprintf("Samples:      fast %d, slow %d", s.FastSamples, s.SlowSamples)
	if s.Ratio > 0 {
		samples += fmt.Sprintf(" (ratio %.2f)", s.Ratio)
	}
	if s.SlowTruncated > 0 {
		samples += fmt.Sprintf(", %d slow samples cut", s.SlowTruncated)
	}
	w.printf("%s", samples)
	w.println()

	if len(report.Channels) > 0 {
		f.formatChannels(report.Channels, w)
		w.println()
	}

	for _, result := range report.Results {
		f.formatRuleResult(result, w)
	}

	w.printf("---")
	w.printf("Summary: %d limits checked, %d limits with issues, %d total issues",
		s.LimitsChecked, s.LimitsWithIssues, s.TotalIssues)

	if f.opts.Verbose {
		w.printf("Run ID: %s", report.Metadata.RunID)
		w.printf("Elapsed: %s", report.Metadata.Elapsed.Round(1e6))
		for _, a := range report.Metadata.Artifacts {
			w.printf("Wrote: %s", a)
		}
	}
}

func (f *TextFormatter) formatChannels(channels []analyzer.ChannelStats, w *lineWriter) {
	header := []string{"CHANNEL", "GROUP", "N", "MIN", "MAX", "MEAN"}
	if f.opts.Verbose {
		header = append(header, "STDDEV", "RMS", "P2P")
	}

	rows := [][]string{header}
	for _, c := range channels {
		row := []string{
			c.Channel,
			string(c.Group),
			fmt.Sprintf("%d", c.Count),
			fmt.Sprintf("%.6g", c.Min),
			fmt.Sprintf("%.6g", c.Max),
			fmt.Sprintf("%.6g", c.Mean),
		}
		if f.opts.Verbose {
			row = append(row,
				fmt.Sprintf("%.6g", c.StdDev),
				fmt.Sprintf("%.6g", c.RMS),
				fmt.Sprintf("%.6g", c.PeakToPeak))
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		w.printf("%s", strings.Join(cells, "  "))
	}
}

func (f *TextFormatter) formatRuleResult(result *analyzer.RuleResult, w *lineWriter) {
	ruleType := strings.ToUpper(string(result.RuleType))
	w.printf("[%s] %s (%s)", ruleType, result.RuleName, result.Channel)

	if result.Description != "" && f.opts.Verbose {
		w.printf("  %s", result.Description)
	}

	if !result.HasIssues() {
		w.printf("  No issues detected")
		w.println()
		return
	}

	w.printf("  Exceeded: %d issue(s), %d of %d samples outside",
		len(result.Issues), result.Stats.SamplesOutside, result.Stats.SamplesProcessed)

	for _, issue := range result.Issues {
		w.printf("  - %s", issue.Description)
		if f.opts.Verbose {
			ctx := issue.Context
			w.printf("    Source: %s, samples %d..%d", ctx.Source, ctx.StartIndex, ctx.EndIndex)
		}
	}

	w.println()
}

// lineWriter writes whole lines, clipping them to width display cells, and
// keeps the first write error.
type lineWriter struct {
	w     io.Writer
	width int
	err   error
}

func (l *lineWriter) printf(format string, args ...any) {
	if l.err != nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	if l.width > 0 && runewidth.StringWidth(line) > l.width {
		line = runewidth.Truncate(line, l.width, "…")
	}
	_, l.err = fmt.Fprintln(l.w, line)
}

func (l *lineWriter) println() {
	if l.err != nil {
		return
	}
	_, l.err = fmt.Fprintln(l.w)
}
