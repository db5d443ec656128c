// Package cli provides the command-line interface for ncplot.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ncplot/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ncplot",
		Short: "Plot motion-controller scope logs",
		Long: `ncplot reads motion-controller scope logs and plots the axis channels.

A scope log records NC-rate channels (actual and set position, actual and
set velocity, position difference) together with PLC-rate gantry
difference channels. ncplot rebuilds a time axis for each rate from the
header timestamps, checks configured limits and renders the diagnostic
charts as PNG images or a multi-page PDF report.

Two row layouts are built in:
  standard  20 tokens per row, slave axis at the NC rate
  mirror    24 tokens per row, slave axis (with set-points) at the PLC rate

Custom layouts can be declared in the configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
