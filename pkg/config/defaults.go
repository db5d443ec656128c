package config

import (
	"os"
	"strings"
	"time"

	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// Default values for configuration.
const (
	DefaultLayout         = "standard"
	DefaultNCUnit         = "mm"
	DefaultGantryUnit     = "nm"
	DefaultWebhookTimeout = 10 * time.Second

	// A4 landscape, in inches.
	DefaultPageWidth  = 11.69
	DefaultPageHeight = 8.27
)

// Environment variable names.
const (
	EnvLogSources = "NCPLOT_LOG_SOURCES"
	EnvLayout     = "NCPLOT_LAYOUT"
	EnvNCUnit     = "NCPLOT_NC_UNIT"
	EnvGantryUnit = "NCPLOT_GANTRY_UNIT"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources:  []string{},
		StartLine:   ingest.DefaultStartLine,
		Layout:      DefaultLayout,
		StrictWidth: true,
		Header: HeaderConfig{
			StartLine:  ingest.DefaultHeaderFormat.StartLine,
			EndLine:    ingest.DefaultHeaderFormat.EndLine,
			TokenIndex: ingest.DefaultHeaderFormat.TokenIndex,
		},
		Units: UnitsConfig{
			NC:     DefaultNCUnit,
			Gantry: DefaultGantryUnit,
		},
		Report: ReportConfig{
			Width:  DefaultPageWidth,
			Height: DefaultPageHeight,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if sources := os.Getenv(EnvLogSources); sources != "" {
		c.LogSources = nil
		for _, s := range strings.Split(sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.LogSources = append(c.LogSources, s)
			}
		}
	}
	if layout := os.Getenv(EnvLayout); layout != "" {
		c.Layout = layout
	}
	if unit := os.Getenv(EnvNCUnit); unit != "" {
		c.Units.NC = unit
	}
	if unit := os.Getenv(EnvGantryUnit); unit != "" {
		c.Units.Gantry = unit
	}
}
