package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ncplot/pkg/config"
	"github.com/ccollicutt/ncplot/pkg/ingest"
	"github.com/ccollicutt/ncplot/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate an ncplot configuration file without reading any logs.

Checks:
  - YAML syntax
  - Header and start line positions
  - Custom layouts (channel groups, names, token indices)
  - Units, regions of interest and page size
  - Limits (channel exists in the layout, thresholds)
  - Webhooks
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	layout := cfg.ResolvedLayout()

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log sources: %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(w, "  Layout:      %s (%d tokens per row, %d channels)\n", layout.Name, layout.Width(), len(layout.Channels))
	fmt.Fprintf(w, "  Available:   %s\n", layoutNames(cfg.AllLayouts()))
	fmt.Fprintf(w, "  Start line:  %d\n", cfg.StartLine)
	fmt.Fprintf(w, "  Units:       nc=%s gantry=%s\n", cfg.Units.NC, cfg.Units.Gantry)
	fmt.Fprintf(w, "  Limits:      %d\n", len(cfg.Limits))
	fmt.Fprintf(w, "  Webhooks:    %d\n", len(cfg.Webhooks))

	if len(cfg.Limits) > 0 {
		fmt.Fprintf(w, "\nLimits:\n")
		for i, lim := range cfg.Limits {
			fmt.Fprintf(w, "  %d. [%s] %s on %s\n", i+1, lim.Type, lim.Name, lim.Channel)
			if lim.Description != "" {
				fmt.Fprintf(w, "     %s\n", lim.Description)
			}
		}
	}

	if len(cfg.LogSources) == 0 {
		return nil
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(w, "\nWarning: No files match log source patterns\n")
	} else {
		fmt.Fprintf(w, "\nLog files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	return nil
}

func layoutNames(layouts []ingest.Layout) string {
	names := make([]string, len(layouts))
	for i, l := range layouts {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}
