package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ncplot/pkg/analyzer"
	"github.com/ccollicutt/ncplot/pkg/config"
	"github.com/ccollicutt/ncplot/pkg/ingest"
	"github.com/ccollicutt/ncplot/pkg/output"
	"github.com/ccollicutt/ncplot/pkg/render"
	"github.com/ccollicutt/ncplot/pkg/webhook"
)

// PlotOptions holds command-line options for the plot command.
type PlotOptions struct {
	Source SourceOptions
	Log    LogOptions

	Output  string
	Limits  []string
	Verbose bool
	Quiet   bool

	// Chart and report overrides
	OutDir       string
	PDF          string
	Title        string
	IncludeSlave bool
	ByIndex      bool
	NCUnit       string
	GantryUnit   string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	opts := &PlotOptions{}

	cmd := &cobra.Command{
		Use:   "plot [flags] <log-file|glob>...",
		Short: "Plot scope logs and check configured limits",
		Long: `Ingest motion-controller scope logs, print a report and render the diagnostic charts.

For every log file:
  - the header duration and body rows are read with the selected layout
  - channel statistics and configured limits are evaluated
  - charts are written as PNG files (--out-dir) and/or a PDF report (--pdf)

With several input files each one gets its own PNG subdirectory and its
own PDF, named after the input file.

Exit codes:
  0 - No limit issues detected
  1 - Limit issues detected
  2 - Configuration or runtime error`,
		Example: `  ncplot plot scope_x1.txt --pdf x1.pdf
  ncplot plot --layout mirror --include-slave --out-dir charts/ scope_x2.txt
  ncplot plot -c ncplot.yaml 'logs/*.txt'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, args, opts)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	addPlotFlags(cmd, opts)
	addLogFlags(cmd, &opts.Log)

	return cmd
}

func addPlotFlags(cmd *cobra.Command, opts *PlotOptions) {
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringSliceVar(&opts.Limits, "limit", nil, "Check specific limit(s) only (can be repeated)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show every issue and its location")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Write one PNG per chart into this directory")
	cmd.Flags().StringVar(&opts.PDF, "pdf", "", "Write a multi-page PDF report to this path")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Title printed on the PDF cover page")
	cmd.Flags().BoolVar(&opts.IncludeSlave, "include-slave", false, "Add the slave axis charts")
	cmd.Flags().BoolVar(&opts.ByIndex, "by-index", false, "Plot against sample index instead of time")
	cmd.Flags().StringVar(&opts.NCUnit, "nc-unit", config.DefaultNCUnit, "Unit of the NC position channels")
	cmd.Flags().StringVar(&opts.GantryUnit, "gantry-unit", config.DefaultGantryUnit, "Unit of the gantry difference channels")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")
}

// applyPlotFlags copies the chart and report flags the user set onto cfg.
func applyPlotFlags(cmd *cobra.Command, cfg *config.Config, opts *PlotOptions) {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.Report.OutDir = opts.OutDir
	}
	if flags.Changed("pdf") {
		cfg.Report.PDF = opts.PDF
	}
	if flags.Changed("title") {
		cfg.Report.Title = opts.Title
	}
	if flags.Changed("include-slave") {
		cfg.Charts.IncludeSlave = opts.IncludeSlave
	}
	if flags.Changed("by-index") {
		cfg.Charts.ByIndex = opts.ByIndex
	}
	if flags.Changed("nc-unit") {
		cfg.Units.NC = opts.NCUnit
	}
	if flags.Changed("gantry-unit") {
		cfg.Units.Gantry = opts.GantryUnit
	}
}

func runPlot(cmd *cobra.Command, args []string, opts *PlotOptions) error {
	ctx := commandContext(cmd)
	logger := opts.Log.setupLogging(opts.Output == "json")

	cfg, err := loadConfig(cmd, &opts.Source)
	if err != nil {
		return err
	}
	applyPlotFlags(cmd, cfg, opts)

	files, err := resolveInputs(args, cfg)
	if err != nil {
		return err
	}

	p, err := newPlotter(cmd, cfg, opts, logger)
	if err != nil {
		return err
	}

	for _, file := range files {
		report, err := p.run(ctx, file, len(files) > 1)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if report.HasIssues() {
			ExitCode = 1
		}
	}

	return nil
}

// plotter runs the ingest, analyze, render and report pipeline for one file
// at a time with a fixed configuration.
type plotter struct {
	cfg       *config.Config
	opts      *PlotOptions
	analyzer  *analyzer.Analyzer
	formatter output.Formatter
	out       io.Writer
	logger    *slog.Logger
}

func newPlotter(cmd *cobra.Command, cfg *config.Config, opts *PlotOptions, logger *slog.Logger) (*plotter, error) {
	var analyzerOpts []analyzer.AnalyzerOption
	if len(opts.Limits) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithRuleFilter(opts.Limits))
	}

	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}

	out := cmd.OutOrStdout()
	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Width:   terminalWidth(out),
	})
	if err != nil {
		return nil, err
	}

	return &plotter{
		cfg:       cfg,
		opts:      opts,
		analyzer:  a,
		formatter: formatter,
		out:       out,
		logger:    logger,
	}, nil
}

func (p *plotter) run(ctx context.Context, file string, multi bool) (*output.Report, error) {
	res, err := ingest.Ingest(ctx, file, p.cfg.IngestOptions(p.logger))
	if err != nil {
		return nil, err
	}
	if res.Duration < 0 {
		p.logger.WarnContext(ctx, "end timestamp precedes start timestamp; time axes run backwards",
			"path", file, "seconds", res.Duration)
	}
	if res.Stats.RowsDiscarded > 0 {
		p.logger.InfoContext(ctx, "discarded malformed rows",
			"path", file, "rows", res.Stats.RowsDiscarded, "width_mismatches", res.Stats.WidthMismatches)
	}

	result, err := p.analyzer.Analyze(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	report := output.NewReport(result, p.opts.Source.ConfigFile)

	artifacts, err := p.render(ctx, res, multi)
	if err != nil {
		return nil, err
	}
	report.Metadata.Artifacts = artifacts

	if err := p.formatter.Format(ctx, report, p.out); err != nil {
		return nil, fmt.Errorf("formatting output: %w", err)
	}

	sendWebhooks(ctx, p.logger, p.cfg, p.opts, report)

	return report, nil
}

// render writes the configured PNG and PDF outputs and returns their paths.
func (p *plotter) render(ctx context.Context, res *ingest.Result, multi bool) ([]string, error) {
	rep := p.cfg.Report
	if rep.OutDir == "" && rep.PDF == "" {
		return nil, nil
	}

	charts := render.StandardCharts(res, chartOptions(p.cfg))
	var artifacts []string

	if rep.OutDir != "" {
		dir := rep.OutDir
		if multi {
			dir = filepath.Join(dir, fileStem(res.Path))
		}
		png := &render.PNGRenderer{Dir: dir, Width: rep.Width, Height: rep.Height}
		if err := png.Render(ctx, charts); err != nil {
			return nil, fmt.Errorf("rendering charts: %w", err)
		}
		artifacts = append(artifacts, png.Files...)
	}

	if rep.PDF != "" {
		path := rep.PDF
		if multi {
			path = pdfPathFor(rep.PDF, res.Path)
		}
		pdf := &render.PDFRenderer{
			Path:   path,
			Title:  rep.Title,
			Source: res.Path,
			Width:  rep.Width,
			Height: rep.Height,
		}
		if err := pdf.Render(ctx, charts); err != nil {
			return nil, fmt.Errorf("rendering PDF: %w", err)
		}
		artifacts = append(artifacts, path)
	}

	for _, a := range artifacts {
		p.logger.DebugContext(ctx, "wrote", "path", a)
	}
	return artifacts, nil
}

// chartOptions converts the chart configuration for the renderer.
func chartOptions(cfg *config.Config) render.ChartOptions {
	return render.ChartOptions{
		NCUnit:       cfg.Units.NC,
		GantryUnit:   cfg.Units.Gantry,
		ByIndex:      cfg.Charts.ByIndex,
		IncludeSlave: cfg.Charts.IncludeSlave,
		HighROI:      roi(cfg.Charts.HighROI),
		LowROI:       roi(cfg.Charts.LowROI),
	}
}

// roi converts a validated ROI config.
func roi(c *config.ROIConfig) *render.ROI {
	if c == nil || len(c.X) != 2 || len(c.Y) != 2 {
		return nil
	}
	return &render.ROI{
		X: render.Range{Min: c.X[0], Max: c.X[1]},
		Y: render.Range{Min: c.Y[0], Max: c.Y[1]},
	}
}

// pdfPathFor inserts the input's stem before the PDF extension:
// report.pdf and scope_x1.txt give report_scope_x1.pdf.
func pdfPathFor(pdfPath, input string) string {
	ext := filepath.Ext(pdfPath)
	if ext == "" {
		ext = ".pdf"
	}
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + "_" + fileStem(input) + ext
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged but don't fail the run.
func sendWebhooks(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts *PlotOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)

	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasIssues()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			logger.InfoContext(ctx, "webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
		} else {
			logger.WarnContext(ctx, "webhook failed", "webhook", name, "error", resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *PlotOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnIssues
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// shouldFireWebhook determines if a webhook should fire based on trigger and issues.
func shouldFireWebhook(trigger config.WebhookTrigger, hasIssues bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	case config.WebhookTriggerOnIssues:
		return hasIssues
	default:
		return hasIssues
	}
}
