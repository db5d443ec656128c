package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/ccollicutt/ncplot/pkg/config"
	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// cancelCheckInterval is how many samples are processed between context checks.
const cancelCheckInterval = 4096

// Analyzer runs the configured limits and channel statistics over an
// ingested log.
type Analyzer struct {
	cfg     *config.Config
	engines []RuleEngine

	// Options
	ruleFilter map[string]bool // nil means all rules
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithRuleFilter limits analysis to the specified limits.
func WithRuleFilter(rules []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(rules) > 0 {
			a.ruleFilter = make(map[string]bool)
			for _, r := range rules {
				a.ruleFilter[r] = true
			}
		}
	}
}

// NewAnalyzer creates a new analyzer from configuration. A config without
// limits is valid and only produces channel statistics.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		cfg:     cfg,
		engines: make([]RuleEngine, 0, len(cfg.Limits)),
	}

	for _, opt := range opts {
		opt(a)
	}

	for i := range cfg.Limits {
		lim := &cfg.Limits[i]

		if a.ruleFilter != nil && !a.ruleFilter[lim.Name] {
			continue
		}

		engine, err := NewLimitEngine(lim)
		if err != nil {
			return nil, fmt.Errorf("creating engine for limit %q: %w", lim.Name, err)
		}
		a.engines = append(a.engines, engine)
	}

	if a.ruleFilter != nil && len(a.engines) == 0 {
		return nil, fmt.Errorf("no limits to execute (check --limit filter)")
	}

	return a, nil
}

// AnalysisResult contains the complete analysis output.
type AnalysisResult struct {
	// Channels summarises every channel of both groups.
	Channels []ChannelStats

	// Results contains findings from each limit.
	Results []*RuleResult

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string

	// Source is the log file that was analyzed.
	Source string

	// Layout is the name of the layout used to read the log.
	Layout string

	// Duration is the measurement time from the log header, in seconds.
	Duration float64

	// Ingest holds the row and sample counts of the ingestion.
	Ingest ingest.Stats

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// SamplesProcessed is the number of samples fed to limit engines.
	SamplesProcessed int
}

// TotalIssues returns the total number of issues across all rules.
func (r *AnalysisResult) TotalIssues() int {
	total := 0
	for _, result := range r.Results {
		total += len(result.Issues)
	}
	return total
}

// RulesWithIssues returns the count of rules that detected issues.
func (r *AnalysisResult) RulesWithIssues() int {
	count := 0
	for _, result := range r.Results {
		if result.HasIssues() {
			count++
		}
	}
	return count
}

// Analyze checks every limit against its channel and summarises all channels.
func (a *Analyzer) Analyze(ctx context.Context, in *ingest.Result) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Results: make([]*RuleResult, 0, len(a.engines)),
		Metadata: AnalysisMetadata{
			Source:    in.Path,
			Layout:    in.Layout.Name,
			Duration:  in.Duration,
			Ingest:    in.Stats,
			StartTime: time.Now(),
		},
	}

	for _, engine := range a.engines {
		engine.Reset()
	}

	for _, engine := range a.engines {
		values, axis, ok := in.Lookup(engine.Channel())
		if !ok {
			return nil, fmt.Errorf("limit %q: channel %q not found in layout %q",
				engine.Name(), engine.Channel(), in.Layout.Name)
		}

		for i, v := range values {
			if i%cancelCheckInterval == 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
				}
			}

			s := Sample{Index: i, Value: v}
			if i < len(axis) {
				s.Time = axis[i]
			}
			if err := engine.Process(ctx, s); err != nil {
				return nil, fmt.Errorf("processing channel %q with limit %q: %w", engine.Channel(), engine.Name(), err)
			}
			result.Metadata.SamplesProcessed++
		}

		ruleResult, err := engine.Finalize(ctx)
		if err != nil {
			return nil, fmt.Errorf("finalizing limit %q: %w", engine.Name(), err)
		}
		for i := range ruleResult.Issues {
			ruleResult.Issues[i].Context.Source = in.Path
		}
		result.Results = append(result.Results, ruleResult)
	}

	result.Channels = append(SummarizeGroup(ingest.GroupFast, in.Fast), SummarizeGroup(ingest.GroupSlow, in.Slow)...)
	result.Metadata.EndTime = time.Now()

	return result, nil
}
