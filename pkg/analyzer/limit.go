package analyzer

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ccollicutt/ncplot/pkg/config"
)

// excursion is a run of consecutive samples outside the limit in the same direction.
type excursion struct {
	kind       IssueType
	startIndex int
	endIndex   int
	startTime  float64
	endTime    float64
	samples    int
	peak       float64
	limit      float64
	// negative is the side of zero a max_abs run is on.
	negative bool
}

// LimitEngine implements RuleEngine for max_abs and range limits.
// Each contiguous run of violating samples becomes one issue.
type LimitEngine struct {
	name        string
	description string
	channel     string
	ruleType    RuleType
	min         *float64
	max         *float64

	// State
	mu         sync.Mutex
	current    *excursion
	excursions []excursion
	stats      RuleStats
}

// NewLimitEngine creates a limit engine from a limit config.
func NewLimitEngine(lim *config.LimitConfig) (*LimitEngine, error) {
	e := &LimitEngine{
		name:        lim.Name,
		description: lim.Description,
		channel:     lim.Channel,
		min:         lim.Min,
		max:         lim.Max,
	}

	switch lim.LimitTypeEnum() {
	case config.LimitTypeMaxAbs:
		if lim.Max == nil {
			return nil, fmt.Errorf("limit %q: max_abs needs max", lim.Name)
		}
		e.ruleType = RuleTypeMaxAbs
	case config.LimitTypeRange:
		if lim.Min == nil && lim.Max == nil {
			return nil, fmt.Errorf("limit %q: range needs min or max", lim.Name)
		}
		e.ruleType = RuleTypeRange
	default:
		return nil, fmt.Errorf("limit %q: unknown type %q", lim.Name, lim.Type)
	}

	return e, nil
}

// Name returns the rule name.
func (e *LimitEngine) Name() string {
	return e.name
}

// Type returns the rule type.
func (e *LimitEngine) Type() RuleType {
	return e.ruleType
}

// Channel returns the checked channel.
func (e *LimitEngine) Channel() string {
	return e.channel
}

// Process handles a single sample.
func (e *LimitEngine) Process(ctx context.Context, s Sample) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.SamplesProcessed++

	kind, limit, outside := e.classify(s.Value)
	if !outside {
		e.closeRun()
		return nil
	}
	e.stats.SamplesOutside++

	negative := kind == IssueTypeMaxAbsExceeded && s.Value < 0
	if e.current != nil && (e.current.kind != kind || e.current.negative != negative) {
		e.closeRun()
	}
	if e.current == nil {
		e.current = &excursion{
			kind:       kind,
			startIndex: s.Index,
			startTime:  s.Time,
			peak:       s.Value,
			limit:      limit,
			negative:   negative,
		}
	}

	run := e.current
	run.endIndex = s.Index
	run.endTime = s.Time
	run.samples++
	if worse(kind, s.Value, run.peak) {
		run.peak = s.Value
	}

	return nil
}

// Finalize completes analysis and returns one issue per excursion.
func (e *LimitEngine) Finalize(ctx context.Context) (*RuleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeRun()

	result := &RuleResult{
		RuleName:    e.name,
		RuleType:    e.ruleType,
		Channel:     e.channel,
		Description: e.description,
		Issues:      make([]Issue, 0, len(e.excursions)),
		Stats:       e.stats,
	}

	for _, x := range e.excursions {
		result.Issues = append(result.Issues, Issue{
			Type:        x.kind,
			Description: describe(e.channel, x),
			Context: IssueContext{
				Channel:    e.channel,
				StartIndex: x.startIndex,
				EndIndex:   x.endIndex,
				StartTime:  x.startTime,
				EndTime:    x.endTime,
				Samples:    x.samples,
				Peak:       x.peak,
				Limit:      x.limit,
			},
		})
	}

	return result, nil
}

// Reset clears internal state for reuse.
func (e *LimitEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.current = nil
	e.excursions = nil
	e.stats = RuleStats{}
}

func (e *LimitEngine) classify(v float64) (IssueType, float64, bool) {
	switch e.ruleType {
	case RuleTypeMaxAbs:
		if math.Abs(v) > *e.max {
			return IssueTypeMaxAbsExceeded, *e.max, true
		}
	case RuleTypeRange:
		if e.min != nil && v < *e.min {
			return IssueTypeBelowMin, *e.min, true
		}
		if e.max != nil && v > *e.max {
			return IssueTypeAboveMax, *e.max, true
		}
	}
	return "", 0, false
}

func (e *LimitEngine) closeRun() {
	if e.current == nil {
		return
	}
	e.excursions = append(e.excursions, *e.current)
	e.current = nil
}

// worse reports whether v is a worse violation than peak for the given kind.
func worse(kind IssueType, v, peak float64) bool {
	switch kind {
	case IssueTypeBelowMin:
		return v < peak
	case IssueTypeAboveMax:
		return v > peak
	default:
		return math.Abs(v) > math.Abs(peak)
	}
}

func describe(channel string, x excursion) string {
	var bound string
	switch x.kind {
	case IssueTypeBelowMin:
		bound = fmt.Sprintf("below min %g", x.limit)
	case IssueTypeAboveMax:
		bound = fmt.Sprintf("above max %g", x.limit)
	default:
		bound = fmt.Sprintf("beyond ±%g", x.limit)
	}
	return fmt.Sprintf("%s %s for %d samples (%.3fs to %.3fs), peak %g",
		channel, bound, x.samples, x.startTime, x.endTime, x.peak)
}
