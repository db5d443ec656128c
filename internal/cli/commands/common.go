package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ccollicutt/ncplot/internal/logging"
	"github.com/ccollicutt/ncplot/pkg/config"
	"github.com/ccollicutt/ncplot/pkg/parser"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// LogOptions holds the diagnostic logging flags.
type LogOptions struct {
	Level string
	Debug bool
}

func addLogFlags(cmd *cobra.Command, o *LogOptions) {
	cmd.Flags().StringVar(&o.Level, "log-level", "info", "Log level (debug|info|warn|error)")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Shorthand for --log-level debug; prints the ingestion summary")
}

// setupLogging installs the default logger and returns it. JSON reports get
// JSON diagnostics on stderr.
func (o *LogOptions) setupLogging(jsonOutput bool) *slog.Logger {
	level := logging.ParseLevel(o.Level)
	if o.Debug {
		level = slog.LevelDebug
	}
	logging.Init(jsonOutput, level)
	return slog.Default()
}

// SourceOptions holds the flags that control how logs are read.
type SourceOptions struct {
	ConfigFile   string
	Layout       string
	StartLine    int
	GantryCutoff bool
	StrictWidth  bool
}

func addSourceFlags(cmd *cobra.Command, o *SourceOptions) {
	cmd.Flags().StringVarP(&o.ConfigFile, "config", "c", "", "Configuration file (defaults are used when omitted)")
	cmd.Flags().StringVar(&o.Layout, "layout", config.DefaultLayout, "Row layout (standard|mirror|<custom>)")
	cmd.Flags().IntVar(&o.StartLine, "start-line", 0, "First body line (1-based)")
	cmd.Flags().BoolVar(&o.GantryCutoff, "gantry-cutoff", false, "Truncate gantry channels to a fifth of the NC samples")
	cmd.Flags().BoolVar(&o.StrictWidth, "strict-width", true, "Drop rows whose token count differs from the layout width")
}

// loadConfig loads the configuration and applies the flags the user set.
func loadConfig(cmd *cobra.Command, o *SourceOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(commandContext(cmd), o.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("layout") {
		if err := cfg.SetLayout(o.Layout); err != nil {
			return nil, fmt.Errorf("--layout: %w", err)
		}
	}
	if flags.Changed("start-line") {
		cfg.StartLine = o.StartLine
	}
	if flags.Changed("gantry-cutoff") {
		cfg.GantryCutoff = o.GantryCutoff
	}
	if flags.Changed("strict-width") {
		cfg.StrictWidth = o.StrictWidth
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// resolveInputs expands the command-line patterns, or the config's
// log_sources when none are given.
func resolveInputs(args []string, cfg *config.Config) ([]string, error) {
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.LogSources
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no log files given and no log_sources configured")
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return nil, fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no log files matched patterns: %v", patterns)
	}
	return files, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// terminalWidth returns the width of w when it is a terminal, otherwise 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
