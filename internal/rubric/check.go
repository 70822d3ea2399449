// Package rubric scores a completed run against a fixed ordered list of
// weighted checks, subject to critical-fail short-circuits, category caps and
// friction penalties. Scoring is pure: the same artifact directory always
// produces the same result bytes.
package rubric

import (
	"github.com/signalnine/meshbench/internal/evidence"
)

// Check is one boolean test. Points are added to the total whenever the
// check is evaluated, pass or fail; Skip guards vacuous checks (e.g. judging
// child titles when no children exist) out of both score and total.
//
// A check with Tiers is graduated: Count buckets into the first tier whose
// Max is >= the count (a negative Max is the catch-all), and the tier's
// Points are awarded against a possible of Tiers[0].Points. Full credit
// counts as a pass, zero as a fail, anything between as a warning.
type Check struct {
	Name     string
	Category string
	Points   int
	Skip     func(*evidence.Bundle) bool
	Run      func(*evidence.Bundle) bool

	Count func(*evidence.Bundle) int
	Tiers []Tier
}

type Tier struct {
	Max    int
	Points int
}

func (c *Check) graduated() bool {
	return len(c.Tiers) > 0 && c.Count != nil
}

type CheckResult struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Passed   bool   `json:"passed"`
	Warned   bool   `json:"warned,omitempty"`
	Awarded  int    `json:"awarded"`
	Possible int    `json:"possible"`
}

func (c *Check) evaluate(b *evidence.Bundle) CheckResult {
	if c.graduated() {
		possible := c.Tiers[0].Points
		n := c.Count(b)
		awarded := c.Tiers[len(c.Tiers)-1].Points
		for _, t := range c.Tiers {
			if t.Max < 0 || n <= t.Max {
				awarded = t.Points
				break
			}
		}
		return CheckResult{
			Name:     c.Name,
			Category: c.Category,
			Passed:   awarded == possible,
			Warned:   awarded > 0 && awarded < possible,
			Awarded:  awarded,
			Possible: possible,
		}
	}

	res := CheckResult{Name: c.Name, Category: c.Category, Possible: c.Points}
	if c.Run(b) {
		res.Passed = true
		res.Awarded = c.Points
	}
	return res
}

// Accumulator threads scoring state through check evaluation; there is no
// ambient mutable scoring state anywhere in the package.
type Accumulator struct {
	Score  int
	Total  int
	Passed int
	Failed int
	Warned int
}

func (a *Accumulator) Add(r CheckResult) {
	a.Score += r.Awarded
	a.Total += r.Possible
	switch {
	case r.Passed:
		a.Passed++
	case r.Warned:
		a.Warned++
	default:
		a.Failed++
	}
}
