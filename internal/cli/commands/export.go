package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ncplot/pkg/ingest"
	"github.com/ccollicutt/ncplot/pkg/output"
)

// ExportOptions holds command-line options for the export command.
type ExportOptions struct {
	Source SourceOptions
	Log    LogOptions

	Format string
	OutDir string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export [flags] <log-file|glob>...",
		Short: "Export ingested channel data",
		Long: `Ingest scope logs and write the channel groups, including their
synthetic time axes, for use in other tools.

Formats:
  json     - one document per log with both groups
  csv      - <name>_fast.csv and <name>_slow.csv, time in the first column
  msgpack  - the json document in MessagePack encoding`,
		Example: `  ncplot export --format csv --out-dir data/ scope_x1.txt
  ncplot export --layout mirror --format msgpack scope_x2.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "json", "Export format (json|csv|msgpack)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", ".", "Directory for exported files")
	addLogFlags(cmd, &opts.Log)

	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts *ExportOptions) error {
	ctx := commandContext(cmd)
	logger := opts.Log.setupLogging(false)

	format, err := output.ParseExportFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, &opts.Source)
	if err != nil {
		return err
	}

	files, err := resolveInputs(args, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		res, err := ingest.Ingest(ctx, file, cfg.IngestOptions(logger))
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		paths, err := output.Export(ctx, res, format, opts.OutDir, fileStem(file))
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Wrote %s\n", p)
		}
	}

	return nil
}
