package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ncplot/pkg/watch"
)

// WatchOptions holds command-line options for the watch command.
type WatchOptions struct {
	Plot     PlotOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [flags] <log-file>",
		Short: "Re-plot a scope log whenever it changes",
		Long: `Plot a scope log, then keep watching it and plot again every time the
file is rewritten. Takes the same flags as plot.

Runs until interrupted. Failed runs (for example a half-written export)
are logged and the watch continues.`,
		Example: `  ncplot watch --pdf live.pdf scope_x1.txt
  ncplot watch --out-dir charts/ --debounce 2s scope_x1.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	addSourceFlags(cmd, &opts.Plot.Source)
	addPlotFlags(cmd, &opts.Plot)
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "Quiet period after a write before re-plotting")
	addLogFlags(cmd, &opts.Plot.Log)

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	file := args[0]
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("log file not found: %s", file)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.Plot.Log.setupLogging(opts.Plot.Output == "json")

	cfg, err := loadConfig(cmd, &opts.Plot.Source)
	if err != nil {
		return err
	}
	applyPlotFlags(cmd, cfg, &opts.Plot)

	p, err := newPlotter(cmd, cfg, &opts.Plot, logger)
	if err != nil {
		return err
	}

	plotOnce := func(ctx context.Context, path string) error {
		report, err := p.run(ctx, path, false)
		if err != nil {
			return err
		}
		if report.HasIssues() {
			logger.WarnContext(ctx, "limit issues detected",
				"path", path, "issues", report.Summary.TotalIssues)
		}
		return nil
	}

	if err := plotOnce(ctx, file); err != nil {
		logger.ErrorContext(ctx, "plot failed", "path", file, "error", err)
	}

	w, err := watch.New([]string{file}, watch.WithDebounce(opts.Debounce), watch.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	logger.InfoContext(ctx, "watching for changes", "path", file, "debounce", opts.Debounce)
	return w.Run(ctx, plotOnce)
}
