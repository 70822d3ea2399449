package rubric

import (
	"math"

	"github.com/signalnine/meshbench/internal/evidence"
)

// Result labels, strongest to weakest. Thresholds are percentages of the
// run's own total, which varies because some checks are conditional.
const (
	LabelAllPassed = "ALL PASSED"
	LabelExcellent = "EXCELLENT"
	LabelPass      = "PASS"
	LabelFail      = "FAIL"
)

const (
	excellentThreshold = 0.85
	passThreshold      = 0.70
)

type Result struct {
	Checks []CheckResult `json:"checks"`

	Score  int `json:"score"`
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Warned int `json:"warned"`

	Penalty        int     `json:"penalty"`
	CriticalFail   bool    `json:"critical_fail"`
	CriticalReason string  `json:"critical_reason,omitempty"`
	CapApplied     bool    `json:"cap_applied"`
	CapPercent     float64 `json:"cap_percent,omitempty"`
	CapReason      string  `json:"cap_reason,omitempty"`

	Label string `json:"label"`
}

// Scorer is a fixed ordered rubric. Critical rules run first and
// short-circuit; checks accumulate; caps and the friction penalty apply
// afterwards, in that order.
type Scorer struct {
	Critical []CriticalRule
	Checks   []Check
	Caps     []Cap
	Friction func(*evidence.Bundle) int
}

func (s *Scorer) Score(b *evidence.Bundle) *Result {
	for _, rule := range s.Critical {
		if rule.Failed(b) {
			return &Result{
				CriticalFail:   true,
				CriticalReason: rule.Name,
				Label:          rule.Label,
			}
		}
	}

	res := &Result{}
	var acc Accumulator
	for i := range s.Checks {
		c := &s.Checks[i]
		if c.Skip != nil && c.Skip(b) {
			continue
		}
		cr := c.evaluate(b)
		acc.Add(cr)
		res.Checks = append(res.Checks, cr)
	}
	res.Score = acc.Score
	res.Total = acc.Total
	res.Passed = acc.Passed
	res.Failed = acc.Failed
	res.Warned = acc.Warned

	for _, gate := range s.Caps {
		if !s.checkFailed(res, gate.CheckName) {
			continue
		}
		limit := int(math.Round(float64(res.Total) * gate.Percent))
		if res.Score > limit {
			res.Score = limit
		}
		res.CapApplied = true
		res.CapPercent = gate.Percent
		res.CapReason = gate.Reason
	}

	if s.Friction != nil {
		res.Penalty = s.Friction(b)
		res.Score -= res.Penalty
		if res.Score < 0 {
			res.Score = 0
		}
	}

	res.Label = Classify(res.Score, res.Total, res.Failed, res.Warned)
	return res
}

// checkFailed reports whether the named check was evaluated and failed. A
// skipped gate cannot trigger its cap.
func (s *Scorer) checkFailed(res *Result, name string) bool {
	for _, cr := range res.Checks {
		if cr.Name == name {
			return !cr.Passed && !cr.Warned
		}
	}
	return false
}

// Classify buckets a score into a label against the run's own total.
func Classify(score, total, failed, warned int) string {
	if total <= 0 {
		return LabelFail
	}
	if failed == 0 && warned == 0 && score == total {
		return LabelAllPassed
	}
	pct := float64(score) / float64(total)
	switch {
	case pct >= excellentThreshold:
		return LabelExcellent
	case pct >= passThreshold:
		return LabelPass
	default:
		return LabelFail
	}
}
