package rubric

import (
	"github.com/signalnine/meshbench/internal/evidence"
)

// CriticalRule zeroes the whole result when a foundational artifact never
// came to exist. None of the category checks run in that case; they would all
// be judging a single vacuous data point.
type CriticalRule struct {
	Name  string
	Label string
	// Failed reports whether the foundational precondition is missing.
	Failed func(*evidence.Bundle) bool
}

// Cap limits the final score to a percentage of total when the named gating
// check failed. Downstream checks may individually pass; the cap models "no
// credit for steps downstream of a step that never happened" without
// re-deriving each one.
type Cap struct {
	CheckName string
	Percent   float64
	Reason    string
}

// MaxFrictionPenalty bounds how many points friction can subtract. The
// penalty is efficiency, not correctness; it never drives the score below
// zero.
const MaxFrictionPenalty = 10

// EstimateRetries approximates retry count as ceil(errors/3). The true
// causal chain from a tool error to a retry is not observable in logs, so
// this stays a documented estimator rather than pretending to be a
// measurement.
func EstimateRetries(errors int) int {
	if errors <= 0 {
		return 0
	}
	return (errors + 2) / 3
}

// ToolErrors counts tool-invocation failures visible in the captured process
// logs.
func ToolErrors(b *evidence.Bundle) int {
	logs := b.AgentLogs()
	return evidence.Count(logs, `exit code [1-9]`) +
		evidence.Count(logs, `command not found`)
}

// HelpLookups counts --help invocations, a signal the agent did not know the
// tool contract.
func HelpLookups(b *evidence.Bundle) int {
	return evidence.Count(b.AgentLogs(), `--help`)
}

// FrictionPenalty is the default penalty function: help lookups plus
// estimated retries, bounded by MaxFrictionPenalty.
func FrictionPenalty(b *evidence.Bundle) int {
	p := HelpLookups(b) + EstimateRetries(ToolErrors(b))
	if p > MaxFrictionPenalty {
		p = MaxFrictionPenalty
	}
	return p
}
