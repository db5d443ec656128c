package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/ncplot/pkg/config"
	"github.com/ccollicutt/ncplot/pkg/detector"
	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	ConfigFile  string
	Output      string
	SampleSize  int
	StartLine   int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the row layout of a scope log",
		Long: `Analyze a scope log to work out which layout it was exported with.

Samples body rows and scores every known layout (standard, mirror and any
custom layouts from --config) by how many rows it reads with the exact
token width. Reports the best layout with a confidence score, the header
measurement time and a ready-to-use YAML configuration snippet.

Optionally generates a starter config file with --write-config.

Example:
  ncplot detect scope_x1.txt
  ncplot detect --sample 500 --all scope_x1.txt
  ncplot detect -w ncplot.yaml scope_x1.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file with custom layouts")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of rows to sample")
	cmd.Flags().IntVar(&opts.StartLine, "start-line", 0, "First body line (1-based)")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching layouts, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	cfg, err := config.LoadOrDefault(ctx, opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("start-line") {
		cfg.StartLine = opts.StartLine
	}

	d := detector.New(
		detector.WithSampleSize(opts.SampleSize),
		detector.WithStartLine(cfg.StartLine),
		detector.WithHeaderFormat(cfg.HeaderFormat()),
		detector.WithLayouts(cfg.Layouts...),
	)

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, cfg, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(out, result, logFile, opts)
	default:
		return outputDetectText(out, result, cfg.StartLine, logFile, opts)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, startLine int, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Scope Log Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Rows sampled: %d\n", result.SampledRows)
	fmt.Fprintf(w, "Most common row width: %d tokens\n", result.CommonWidth)
	if result.HeaderError != "" {
		fmt.Fprintf(w, "Header: %s\n", result.HeaderError)
	} else {
		fmt.Fprintf(w, "Measurement time: %gs\n", result.Duration)
	}
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No layout detected.")
		if result.Note != "" {
			fmt.Fprintf(w, "Note: %s\n", result.Note)
		}
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Layout: %s (%d tokens per row)\n", best.Layout.Name, best.Layout.Width())
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d rows matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledRows)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleRow)
	fmt.Fprintln(w)

	if best.Usable > best.MatchCount {
		fmt.Fprintf(w, "Note: %d more rows are readable when strict_width is false.\n", best.Usable-best.MatchCount)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "start_line: %d\n", startLine)
	fmt.Fprintf(w, "layout: %s\n", best.Layout.Name)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative layouts ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence, %d tokens per row)\n",
				i+2, m.Layout.Name, m.Confidence*100, m.Layout.Width())
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a layout match in JSON output.
type JSONMatch struct {
	Layout     string  `json:"layout"`
	Width      int     `json:"width"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	Usable     int     `json:"usable"`
	SampleRow  string  `json:"sample_row"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File        string      `json:"file"`
	Matches     []JSONMatch `json:"matches"`
	SampledRows int         `json:"sampled_rows"`
	CommonWidth int         `json:"common_width"`
	Duration    float64     `json:"duration"`
	HeaderError string      `json:"header_error,omitempty"`
	Note        string      `json:"note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:        logFile,
		SampledRows: result.SampledRows,
		CommonWidth: result.CommonWidth,
		Duration:    result.Duration,
		HeaderError: result.HeaderError,
		Note:        result.Note,
		Matches:     make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Layout:     m.Layout.Name,
			Width:      m.Layout.Width(),
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			Usable:     m.Usable,
			SampleRow:  m.SampleRow,
		})
	}

	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding detection result: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// writeStarterConfig generates a starter config file for the detected layout.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, cfg *config.Config, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no layout detected")
	}

	data, err := generateStarterConfig(logFile, cfg, result.BestMatch())
	if err != nil {
		return err
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig renders a YAML config for the detected layout.
func generateStarterConfig(logFile string, base *config.Config, match *detector.LayoutMatch) ([]byte, error) {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	starter := config.DefaultConfig()
	starter.LogSources = []string{absLogFile}
	starter.StartLine = base.StartLine
	starter.Header = base.Header
	starter.Layout = match.Layout.Name
	if _, err := ingest.LookupLayout(match.Layout.Name); err != nil {
		starter.Layouts = []ingest.Layout{match.Layout}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# ncplot configuration\n")
	fmt.Fprintf(&buf, "# Generated by: ncplot detect\n")
	fmt.Fprintf(&buf, "# Detected layout: %s (%.0f%% confidence)\n\n", match.Layout.Name, match.Confidence*100)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(starter); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	buf.WriteString(`
# Example limits:
# limits:
#   - name: following-error
#     description: "Position difference must stay within 50 um"
#     channel: pos_diff
#     type: max_abs
#     max: 0.05
#   - name: x-gantry-window
#     channel: x_gantry
#     type: range
#     min: -200
#     max: 200
`)

	return buf.Bytes(), nil
}
