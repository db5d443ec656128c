package analyzer

import (
	"context"
)

// RuleEngine checks the samples of one channel against a limit.
type RuleEngine interface {
	// Name returns the rule name for reporting.
	Name() string

	// Type returns the rule type (max_abs, range).
	Type() RuleType

	// Channel returns the name of the channel the rule checks.
	Channel() string

	// Process handles a single sample, updating internal state.
	// Samples arrive in index order.
	Process(ctx context.Context, s Sample) error

	// Finalize completes analysis and returns detected issues.
	// Called after every sample of the channel has been processed.
	Finalize(ctx context.Context) (*RuleResult, error)

	// Reset clears internal state for reuse.
	Reset()
}
