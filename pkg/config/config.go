package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig, applies environment overrides
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and resolves the selected layout.
func Validate(cfg *Config) error {
	if err := validateHeader(&cfg.Header); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	if cfg.StartLine < 1 {
		return errors.New("start_line: must be >= 1")
	}
	headerEnd := max(cfg.Header.StartLine, cfg.Header.EndLine)
	if cfg.StartLine <= headerEnd {
		return fmt.Errorf("start_line: body must start after the header (line %d), got %d", headerEnd, cfg.StartLine)
	}

	seen := make(map[string]bool)
	for i := range cfg.Layouts {
		l := &cfg.Layouts[i]
		if err := l.Validate(); err != nil {
			return fmt.Errorf("layouts[%d]: %w", i, err)
		}
		if _, err := ingest.LookupLayout(l.Name); err == nil {
			return fmt.Errorf("layouts[%d] (%s): name shadows a built-in layout", i, l.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("layouts[%d] (%s): duplicate layout name", i, l.Name)
		}
		seen[l.Name] = true
	}

	layout, err := cfg.lookupLayout(cfg.Layout)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	cfg.resolvedLayout = layout

	if strings.TrimSpace(cfg.Units.NC) == "" {
		return errors.New("units.nc: must not be empty")
	}
	if strings.TrimSpace(cfg.Units.Gantry) == "" {
		return errors.New("units.gantry: must not be empty")
	}

	if cfg.Charts.HighROI != nil {
		if err := validateROI(cfg.Charts.HighROI); err != nil {
			return fmt.Errorf("charts.high_roi: %w", err)
		}
	}
	if cfg.Charts.LowROI != nil {
		if err := validateROI(cfg.Charts.LowROI); err != nil {
			return fmt.Errorf("charts.low_roi: %w", err)
		}
	}

	if cfg.Report.Width <= 0 || cfg.Report.Height <= 0 {
		return fmt.Errorf("report: width and height must be > 0, got %gx%g", cfg.Report.Width, cfg.Report.Height)
	}

	names := make(map[string]bool)
	for i := range cfg.Limits {
		lim := &cfg.Limits[i]
		if err := validateLimit(lim, layout); err != nil {
			return fmt.Errorf("limits[%d] (%s): %w", i, lim.Name, err)
		}
		if names[lim.Name] {
			return fmt.Errorf("limits[%d] (%s): duplicate limit name", i, lim.Name)
		}
		names[lim.Name] = true
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ResolvedLayout returns the layout selected by Layout. Valid after Validate.
func (c *Config) ResolvedLayout() ingest.Layout {
	if c.resolvedLayout.Name == "" {
		if l, err := c.lookupLayout(c.Layout); err == nil {
			return l
		}
	}
	return c.resolvedLayout
}

// SetLayout selects a layout by name, checking that it exists.
func (c *Config) SetLayout(name string) error {
	l, err := c.lookupLayout(name)
	if err != nil {
		return err
	}
	c.Layout = name
	c.resolvedLayout = l
	return nil
}

// HeaderFormat returns the header settings in the form ingest expects.
func (c *Config) HeaderFormat() ingest.HeaderFormat {
	return ingest.HeaderFormat{
		StartLine:  c.Header.StartLine,
		EndLine:    c.Header.EndLine,
		TokenIndex: c.Header.TokenIndex,
	}
}

// IngestOptions returns the ingest options described by the config.
func (c *Config) IngestOptions(logger *slog.Logger) ingest.Options {
	return ingest.Options{
		StartLine:    c.StartLine,
		Layout:       c.ResolvedLayout(),
		GantryCutoff: c.GantryCutoff,
		Header:       c.HeaderFormat(),
		StrictWidth:  c.StrictWidth,
		Logger:       logger,
	}
}

// AllLayouts returns the built-in layouts followed by the custom ones.
func (c *Config) AllLayouts() []ingest.Layout {
	return append(ingest.Builtin(), c.Layouts...)
}

func (c *Config) lookupLayout(name string) (ingest.Layout, error) {
	for _, l := range c.Layouts {
		if l.Name == name {
			return l, nil
		}
	}
	return ingest.LookupLayout(name)
}

func validateHeader(h *HeaderConfig) error {
	if h.StartLine < 1 {
		return errors.New("start_line must be >= 1")
	}
	if h.EndLine < 1 {
		return errors.New("end_line must be >= 1")
	}
	if h.TokenIndex < 0 {
		return errors.New("token_index must be >= 0")
	}
	return nil
}

func validateROI(roi *ROIConfig) error {
	if len(roi.X) != 2 {
		return fmt.Errorf("x must be [min, max], got %d values", len(roi.X))
	}
	if len(roi.Y) != 2 {
		return fmt.Errorf("y must be [min, max], got %d values", len(roi.Y))
	}
	if roi.X[0] >= roi.X[1] {
		return fmt.Errorf("x min %g must be below max %g", roi.X[0], roi.X[1])
	}
	if roi.Y[0] >= roi.Y[1] {
		return fmt.Errorf("y min %g must be below max %g", roi.Y[0], roi.Y[1])
	}
	return nil
}

func validateLimit(lim *LimitConfig, layout ingest.Layout) error {
	if lim.Name == "" {
		return errors.New("name is required")
	}
	if lim.Channel == "" {
		return errors.New("channel is required")
	}
	if _, ok := layout.Lookup(lim.Channel); !ok {
		return fmt.Errorf("channel %q is not in layout %q", lim.Channel, layout.Name)
	}

	switch lim.LimitTypeEnum() {
	case LimitTypeMaxAbs:
		if lim.Max == nil {
			return errors.New("max is required for max_abs limits")
		}
		if *lim.Max <= 0 {
			return fmt.Errorf("max must be > 0 for max_abs limits, got %g", *lim.Max)
		}
		if lim.Min != nil {
			return errors.New("min is not used by max_abs limits")
		}
	case LimitTypeRange:
		if lim.Min == nil && lim.Max == nil {
			return errors.New("range limits need min, max or both")
		}
		if lim.Min != nil && lim.Max != nil && *lim.Min >= *lim.Max {
			return fmt.Errorf("min %g must be below max %g", *lim.Min, *lim.Max)
		}
	default:
		return fmt.Errorf("invalid type %q (must be max_abs or range)", lim.Type)
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnIssues
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
