// Package output renders ingestion and analysis results for people and machines.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/ncplot/pkg/analyzer"
)

// Report is the complete output for one log file.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Channels summarises every channel.
	Channels []analyzer.ChannelStats `json:"channels"`

	// Results contains findings from each limit.
	Results []*analyzer.RuleResult `json:"results"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Layout is the name of the layout used to read the log.
	Layout string `json:"layout"`

	// MeasurementTime is the header duration in seconds.
	MeasurementTime float64 `json:"measurement_time"`

	RowsAccepted    int `json:"rows_accepted"`
	RowsDiscarded   int `json:"rows_discarded"`
	WidthMismatches int `json:"width_mismatches"`

	FastSamples   int     `json:"fast_samples"`
	SlowSamples   int     `json:"slow_samples"`
	SlowTruncated int     `json:"slow_truncated"`
	Ratio         float64 `json:"ratio"`

	// LimitsChecked is the number of limits that were executed.
	LimitsChecked int `json:"limits_checked"`

	// LimitsWithIssues is the number of limits that detected issues.
	LimitsWithIssues int `json:"limits_with_issues"`

	// TotalIssues is the total number of issues detected.
	TotalIssues int `json:"total_issues"`
}

// Metadata provides context about the run.
type Metadata struct {
	// RunID identifies this run in webhook payloads and logs.
	RunID string `json:"run_id"`

	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Source is the log file that was analyzed.
	Source string `json:"source"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Elapsed is how long the analysis took.
	Elapsed time.Duration `json:"elapsed"`

	// Artifacts lists the files written for this log (charts, PDF).
	Artifacts []string `json:"artifacts,omitempty"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, configFile string) *Report {
	md := result.Metadata
	return &Report{
		Channels: result.Channels,
		Results:  result.Results,
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: configFile,
			Source:     md.Source,
			AnalyzedAt: md.EndTime,
			Elapsed:    md.EndTime.Sub(md.StartTime),
		},
		Summary: Summary{
			Layout:           md.Layout,
			MeasurementTime:  md.Duration,
			RowsAccepted:     md.Ingest.RowsAccepted,
			RowsDiscarded:    md.Ingest.RowsDiscarded,
			WidthMismatches:  md.Ingest.WidthMismatches,
			FastSamples:      md.Ingest.FastLen,
			SlowSamples:      md.Ingest.SlowLen,
			SlowTruncated:    md.Ingest.SlowTruncated,
			Ratio:            md.Ingest.Ratio(),
			LimitsChecked:    len(result.Results),
			LimitsWithIssues: result.RulesWithIssues(),
			TotalIssues:      result.TotalIssues(),
		},
	}
}

// HasIssues returns true if any issues were detected.
func (r *Report) HasIssues() bool {
	return r.Summary.TotalIssues > 0
}
