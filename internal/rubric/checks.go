package rubric

import (
	"strings"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/evidence"
)

// MissionRubric is the standard check set for mission scenarios: a lead
// recognizes the request, decomposes it into child beads, dispatches workers,
// monitors them, synthesizes results and closes the mission. missionLabel is
// the tracker label the scenario expects on the root bead.
func MissionRubric(missionLabel string) *Scorer {
	return &Scorer{
		Critical: []CriticalRule{
			{
				Name:   "mission never created",
				Label:  "CRITICAL FAIL — mission never created",
				Failed: missionMissing,
			},
		},
		Checks: []Check{
			// recognition
			{
				Name: "mission acknowledged", Category: "recognition", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return evidence.MatchAny(b.Text(artifact.ChannelHistoryText),
						[]string{`mission.*(accepted|received|starting|underway)`, `\back\b`, `on it`, `picking (this|it) up`})
				},
			},
			{
				Name: "lead engaged", Category: "recognition", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return strings.TrimSpace(b.AgentLogs()) != ""
				},
			},
			// decomposition
			{
				Name: "children created", Category: "decomposition", Points: 10,
				Run: func(b *evidence.Bundle) bool { return len(childTasks(b)) > 0 },
			},
			{
				Name: "child count reasonable", Category: "decomposition", Points: 5,
				Skip: noChildren,
				Run: func(b *evidence.Bundle) bool {
					n := len(childTasks(b))
					return n >= 2 && n <= 12
				},
			},
			{
				Name: "child titles clear", Category: "decomposition", Points: 5,
				Skip: noChildren,
				Run: func(b *evidence.Bundle) bool {
					for _, t := range childTasks(b) {
						title, _ := t["title"].(string)
						if len(strings.TrimSpace(title)) < 8 {
							return false
						}
					}
					return true
				},
			},
			{
				Name: "dependencies recorded", Category: "decomposition", Points: 5,
				Skip: noChildren,
				Run: func(b *evidence.Bundle) bool {
					return len(evidence.Items(b.JSON(artifact.Deps), "edges", "dependencies", "nodes")) > 0
				},
			},
			// dispatch: "workers dispatched" gates the 30% cap below
			{
				Name: "workers dispatched", Category: "dispatch", Points: 10,
				Run: func(b *evidence.Bundle) bool { return workersDispatched(b) },
			},
			{
				Name: "work claimed", Category: "dispatch", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					combined := b.Text(artifact.ChannelHistoryText) + "\n" + b.Text(artifact.Claims)
					return evidence.MatchAny(combined, []string{`task-claim`, `claim(ed|s)? stake`, `stake[sd]? .*claim`})
				},
			},
			// monitoring
			{
				Name: "checkpoints posted", Category: "monitoring", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return evidence.Count(b.Text(artifact.ChannelHistoryText), `checkpoint`) >= 1
				},
			},
			{
				Name: "progress tracked", Category: "monitoring", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return evidence.MatchAny(b.Text(artifact.ChannelHistoryText),
						[]string{`task-done`, `\d+/\d+ (done|complete)`, `progress`})
				},
			},
			// synthesis
			{
				Name: "results summarized", Category: "synthesis", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return evidence.MatchAny(b.Text(artifact.ChannelHistoryText),
						[]string{`summary`, `mission complete`, `all tasks (done|complete)`})
				},
			},
			{
				Name: "bead closed", Category: "synthesis", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return missionClosed(b)
				},
			},
			{
				Name: "labels correct", Category: "synthesis", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					for _, l := range missionLabels(b) {
						if l == missionLabel {
							return true
						}
					}
					return false
				},
			},
			// correctness
			{
				Name: "children closed", Category: "correctness", Points: 10,
				Skip: noChildren,
				Run: func(b *evidence.Bundle) bool {
					for _, t := range childTasks(b) {
						if !statusClosed(t["status"]) {
							return false
						}
					}
					return true
				},
			},
			{
				Name: "claims released", Category: "correctness", Points: 5,
				Run: func(b *evidence.Bundle) bool {
					return evidence.Count(b.Text(artifact.Claims), `\bactive\b`) == 0
				},
			},
			{
				Name: "build verified", Category: "correctness", Points: 5,
				Run:  buildEvidence,
			},
			// bonus: only contributes to the total when the build evidently
			// succeeded, so the denominator varies run-to-run.
			{
				Name: "feature flags verified", Category: "correctness", Points: 5,
				Skip: func(b *evidence.Bundle) bool { return !buildEvidence(b) },
				Run: func(b *evidence.Bundle) bool {
					return evidence.MatchAny(b.AgentLogs(), []string{`feature flag.*(on|enabled|works)`, `flags? verified`})
				},
			},
			// coordination
			{
				Name: "workers coordinated", Category: "coordination", Points: 5,
				Run:  workersCoordinated,
			},
			// friction (graduated)
			{
				Name: "tool friction", Category: "friction",
				Count: ToolErrors,
				Tiers: []Tier{
					{Max: 0, Points: 5},
					{Max: 5, Points: 3},
					{Max: 15, Points: 1},
					{Max: -1, Points: 0},
				},
			},
		},
		Caps: []Cap{
			{CheckName: "workers dispatched", Percent: 0.30, Reason: "no workers were ever dispatched"},
		},
		Friction: FrictionPenalty,
	}
}

func missionMissing(b *evidence.Bundle) bool {
	doc := b.JSON(artifact.Mission)
	return evidence.Str(doc, "id", "") == ""
}

func missionClosed(b *evidence.Bundle) bool {
	return statusClosed(evidence.Field(b.JSON(artifact.Mission), "status", ""))
}

func missionLabels(b *evidence.Bundle) []string {
	raw, _ := evidence.Field(b.JSON(artifact.Mission), "labels", nil).([]any)
	var labels []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			labels = append(labels, s)
		}
	}
	return labels
}

func statusClosed(v any) bool {
	s, _ := v.(string)
	switch strings.ToLower(s) {
	case "closed", "done":
		return true
	}
	return false
}

// childTasks returns every task in the snapshot except the mission record
// itself.
func childTasks(b *evidence.Bundle) []map[string]any {
	missionID := evidence.Str(b.JSON(artifact.Mission), "id", "")
	var children []map[string]any
	for _, t := range evidence.Items(b.JSON(artifact.Tasks), "tasks") {
		if id, _ := t["id"].(string); id != "" && id == missionID {
			continue
		}
		children = append(children, t)
	}
	return children
}

func noChildren(b *evidence.Bundle) bool {
	return len(childTasks(b)) == 0
}

// workersDispatched holds when any captured process log belongs to a
// non-lead process, or the channel shows dispatch traffic.
func workersDispatched(b *evidence.Bundle) bool {
	if len(workerLogNames(b)) > 0 {
		return true
	}
	return evidence.MatchAny(b.Text(artifact.ChannelHistoryText),
		[]string{`dispatch(ed|ing)`, `spawn(ed|ing) worker`, `worker.*(started|assigned)`})
}

func workerLogNames(b *evidence.Bundle) []string {
	var names []string
	for _, name := range b.LogNames() {
		base := strings.TrimSuffix(name, ".log")
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[i+1:]
		}
		if !leadName(base) {
			names = append(names, name)
		}
	}
	return names
}

func leadName(id string) bool {
	for _, prefix := range []string{"lead", "mission", "coordinator"} {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

func buildEvidence(b *evidence.Bundle) bool {
	combined := b.AgentLogs() + "\n" + b.Text(artifact.ChannelHistoryText)
	return evidence.MatchAny(combined,
		[]string{`build (passed|succeeded|ok)`, `all tests pass(ed)?`, `BUILD SUCCESS`, `tests? green`})
}

// workersCoordinated passes on two or more explicit coordination messages.
// implicitCoordination is the documented fallback: a successful build implies
// the workers' pieces fit together even when they never said so on the
// channel. Deliberate leniency, kept from the original scoring rules.
func workersCoordinated(b *evidence.Bundle) bool {
	hist := b.Text(artifact.ChannelHistoryText)
	explicit := evidence.Count(hist, `coordinat`) +
		evidence.Count(hist, `handoff`) +
		evidence.Count(hist, `blocked on`)
	if explicit >= 2 {
		return true
	}
	return implicitCoordination(b)
}

func implicitCoordination(b *evidence.Bundle) bool {
	return buildEvidence(b)
}
