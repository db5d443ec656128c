// Package config provides configuration loading and validation for ncplot.
package config

import (
	"time"

	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogSources are paths or glob patterns used when no files are given on
	// the command line.
	LogSources []string `yaml:"log_sources,omitempty"`

	// StartLine is the 1-based first body line.
	StartLine int `yaml:"start_line"`

	// Layout names the layout used to read body rows: a built-in
	// (standard, mirror) or one declared under Layouts.
	Layout string `yaml:"layout"`

	// Layouts declares custom layouts.
	Layouts []ingest.Layout `yaml:"layouts,omitempty"`

	// GantryCutoff truncates the slow group to a fifth of the fast length.
	GantryCutoff bool `yaml:"gantry_cutoff"`

	// StrictWidth drops rows whose token count differs from the layout width.
	StrictWidth bool `yaml:"strict_width"`

	Header   HeaderConfig    `yaml:"header"`
	Units    UnitsConfig     `yaml:"units"`
	Charts   ChartsConfig    `yaml:"charts"`
	Report   ReportConfig    `yaml:"report"`
	Limits   []LimitConfig   `yaml:"limits,omitempty"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`

	// resolvedLayout is populated during validation.
	resolvedLayout ingest.Layout
}

// HeaderConfig locates the start and end timestamps in the header.
type HeaderConfig struct {
	StartLine  int `yaml:"start_line"`
	EndLine    int `yaml:"end_line"`
	TokenIndex int `yaml:"token_index"`
}

// UnitsConfig names the units used in axis labels.
type UnitsConfig struct {
	// NC is the unit of NC-rate position channels.
	NC string `yaml:"nc"`
	// Gantry is the unit of the gantry difference channels.
	Gantry string `yaml:"gantry"`
}

// ChartsConfig selects the chart set.
type ChartsConfig struct {
	// ByIndex plots against sample index instead of time.
	ByIndex bool `yaml:"by_index"`
	// IncludeSlave adds the slave axis charts.
	IncludeSlave bool `yaml:"include_slave"`
	// HighROI adds a "Positive Limits" zoom chart.
	HighROI *ROIConfig `yaml:"high_roi,omitempty"`
	// LowROI adds a "Negative Limits" zoom chart.
	LowROI *ROIConfig `yaml:"low_roi,omitempty"`
}

// ROIConfig is a rectangular region of interest given as [min, max] pairs.
type ROIConfig struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

// ReportConfig controls rendered output.
type ReportConfig struct {
	// Title is printed on the PDF cover page. Defaults to the log basename.
	Title string `yaml:"title,omitempty"`
	// PDF is the path of the multi-page report. Empty disables it.
	PDF string `yaml:"pdf,omitempty"`
	// OutDir receives one PNG per chart. Empty disables PNG output.
	OutDir string `yaml:"out_dir,omitempty"`
	// Width and Height are the page size in inches.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// LimitType is the kind of limit check.
type LimitType string

const (
	// LimitTypeMaxAbs flags samples whose magnitude exceeds Max.
	LimitTypeMaxAbs LimitType = "max_abs"
	// LimitTypeRange flags samples below Min or above Max.
	LimitTypeRange LimitType = "range"
)

// LimitConfig defines a threshold check on one channel.
type LimitConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Channel     string   `yaml:"channel"`
	Type        string   `yaml:"type"` // max_abs, range
	Min         *float64 `yaml:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty"`
}

// LimitTypeEnum returns the limit type as a LimitType.
func (l *LimitConfig) LimitTypeEnum() LimitType {
	return LimitType(l.Type)
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when limit issues are detected (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_issues" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
