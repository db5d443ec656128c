// Package analyzer checks ingested scope channels against configured limits
// and summarises each channel.
package analyzer

// RuleType enumerates limit strategies.
type RuleType string

const (
	RuleTypeMaxAbs RuleType = "max_abs"
	RuleTypeRange  RuleType = "range"
)

// IssueType categorizes detected issues.
type IssueType string

const (
	// IssueTypeMaxAbsExceeded indicates samples whose magnitude exceeds the limit.
	IssueTypeMaxAbsExceeded IssueType = "max_abs_exceeded"

	// IssueTypeAboveMax indicates samples above the upper bound of a range.
	IssueTypeAboveMax IssueType = "above_max"

	// IssueTypeBelowMin indicates samples below the lower bound of a range.
	IssueTypeBelowMin IssueType = "below_min"
)

// Sample is one value of a channel together with its position.
type Sample struct {
	Index int
	Time  float64
	Value float64
}

// RuleResult contains findings from executing a single rule.
type RuleResult struct {
	// RuleName is the name of the rule that produced these results.
	RuleName string

	// RuleType indicates the limit strategy used.
	RuleType RuleType

	// Channel is the checked channel.
	Channel string

	// Description is the rule's description, if any.
	Description string

	// Issues contains one entry per contiguous excursion.
	Issues []Issue

	// Stats provides execution statistics.
	Stats RuleStats
}

// RuleStats contains execution statistics for a rule.
type RuleStats struct {
	// SamplesProcessed is the number of samples examined.
	SamplesProcessed int

	// SamplesOutside is the number of samples that violated the limit.
	SamplesOutside int
}

// HasIssues returns true if any issues were detected.
func (r *RuleResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// Issue represents a single detected problem.
type Issue struct {
	// Type categorizes the issue.
	Type IssueType

	// Description is a human-readable summary of the issue.
	Description string

	// Context provides details about where the issue occurred.
	Context IssueContext
}

// IssueContext locates an excursion in the channel.
type IssueContext struct {
	// Channel is the channel that left its limit.
	Channel string

	// Source is the log file the channel came from.
	Source string

	// StartIndex and EndIndex are the first and last sample indices of the excursion.
	StartIndex int
	EndIndex   int

	// StartTime and EndTime are the matching positions on the time axis, in seconds.
	StartTime float64
	EndTime   float64

	// Samples is the number of samples in the excursion.
	Samples int

	// Peak is the worst value seen during the excursion.
	Peak float64

	// Limit is the bound that was crossed.
	Limit float64
}
