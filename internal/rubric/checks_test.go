package rubric_test

import (
	"testing"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/evidence"
	"github.com/signalnine/meshbench/internal/rubric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBundle materializes a run directory from artifact name to content and
// opens it for scoring.
func buildBundle(t *testing.T, files map[string][]byte) *evidence.Bundle {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	for name, data := range files {
		require.NoError(t, store.Write(name, data))
	}
	return evidence.NewBundle(store)
}

func findCheck(t *testing.T, res *rubric.Result, name string) rubric.CheckResult {
	t.Helper()
	for _, cr := range res.Checks {
		if cr.Name == name {
			return cr
		}
	}
	t.Fatalf("check %q not in result", name)
	return rubric.CheckResult{}
}

// A clean run: one claim, two completions, the mission bead closed and
// labelled, and no tool errors anywhere in the worker logs.
func TestMissionRubricCleanRun(t *testing.T) {
	b := buildBundle(t, map[string][]byte{
		artifact.Mission: []byte(`{"id":"b1","status":"closed","labels":["mission"]}`),
		artifact.Tasks: []byte(`[
			{"id":"b1","title":"Root mission","status":"closed"},
			{"id":"b2","title":"Implement the parser","status":"closed"},
			{"id":"b3","title":"Wire up the renderer","status":"closed"}
		]`),
		artifact.Deps: []byte(`{"edges":[{"from":"b3","to":"b2"}]}`),
		artifact.ChannelHistoryText: []byte(
			"lead-1: mission received, picking it up\n" +
				"worker-2: task-claim b2\n" +
				"worker-2: task-done b2\n" +
				"worker-3: task-done b3\n" +
				"lead-1: checkpoint: 2/2 done\n" +
				"lead-1: summary: all tasks complete\n"),
		artifact.Claims:             []byte(""),
		artifact.AgentLog("lead-1"):   []byte("spawning worker-2\nspawning worker-3\n"),
		artifact.AgentLog("worker-2"): []byte("build passed\nfeature flags verified\n"),
	})

	res := rubric.MissionRubric("mission").Score(b)
	require.False(t, res.CriticalFail)

	closed := findCheck(t, res, "bead closed")
	assert.True(t, closed.Passed)
	assert.Equal(t, 5, closed.Awarded)

	labels := findCheck(t, res, "labels correct")
	assert.True(t, labels.Passed)
	assert.Equal(t, 5, labels.Awarded)

	friction := findCheck(t, res, "tool friction")
	assert.True(t, friction.Passed, "zero tool errors must earn full friction credit")
	assert.Equal(t, 5, friction.Awarded)

	assert.Equal(t, 0, res.Penalty)
	assert.False(t, res.CapApplied)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, res.Total, res.Score)
	assert.Equal(t, rubric.LabelAllPassed, res.Label)
}

// The lead never filed a mission bead. Nothing downstream is judged.
func TestMissionRubricMissionNeverCreated(t *testing.T) {
	b := buildBundle(t, map[string][]byte{
		artifact.ChannelHistoryText: []byte("worker-2: hello?\n"),
	})

	res := rubric.MissionRubric("mission").Score(b)
	assert.True(t, res.CriticalFail)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, "CRITICAL FAIL — mission never created", res.Label)
	assert.Empty(t, res.Checks)
}

// Empty-string mission id is the same as no mission at all.
func TestMissionRubricEmptyMissionID(t *testing.T) {
	b := buildBundle(t, map[string][]byte{
		artifact.Mission: []byte(`{"id":"","status":"open"}`),
	})
	res := rubric.MissionRubric("mission").Score(b)
	assert.True(t, res.CriticalFail)
}

func TestMissionRubricDispatchCap(t *testing.T) {
	// Mission exists and closes cleanly, but no worker ever ran: no non-lead
	// logs and no dispatch traffic on the channel.
	b := buildBundle(t, map[string][]byte{
		artifact.Mission: []byte(`{"id":"b1","status":"closed","labels":["mission"]}`),
		artifact.Tasks: []byte(`[
			{"id":"b1","title":"Root mission","status":"closed"},
			{"id":"b2","title":"Implement the parser","status":"closed"},
			{"id":"b3","title":"Wire up the renderer","status":"closed"}
		]`),
		artifact.Deps: []byte(`{"edges":[{"from":"b3","to":"b2"}]}`),
		artifact.ChannelHistoryText: []byte(
			"lead-1: mission received\n" +
				"lead-1: task-claim b2\n" +
				"lead-1: task-done b2\n" +
				"lead-1: task-done b3\n" +
				"lead-1: checkpoint: 2/2 done\n" +
				"lead-1: summary: all tasks complete, build passed\n"),
		artifact.AgentLog("lead-1"): []byte("doing everything myself\n"),
	})

	res := rubric.MissionRubric("mission").Score(b)
	require.False(t, res.CriticalFail)
	require.False(t, findCheck(t, res, "workers dispatched").Passed)
	assert.True(t, res.CapApplied)
	limit := int(float64(res.Total)*0.30 + 0.5)
	assert.LessOrEqual(t, res.Score, limit, "cap must hold score to 30%% of total")
}

func TestMissionRubricConditionalBonusShiftsTotal(t *testing.T) {
	base := map[string][]byte{
		artifact.Mission: []byte(`{"id":"b1","status":"closed","labels":["mission"]}`),
		artifact.Tasks:   []byte(`[{"id":"b1","title":"Root mission","status":"closed"}]`),
		artifact.ChannelHistoryText: []byte("dispatched worker-2\ntask-claim\ntask-done\ncheckpoint\nsummary\n"),
	}
	withoutBuild := buildBundle(t, base)

	withBuildFiles := map[string][]byte{}
	for k, v := range base {
		withBuildFiles[k] = v
	}
	withBuildFiles[artifact.AgentLog("worker-2")] = []byte("build passed\n")
	withBuild := buildBundle(t, withBuildFiles)

	scorer := rubric.MissionRubric("mission")
	a := scorer.Score(withoutBuild)
	b := scorer.Score(withBuild)
	assert.Equal(t, a.Total+5, b.Total,
		"feature-flag bonus joins the total only when the build evidently succeeded")
}

func TestToolErrorsAndPenalty(t *testing.T) {
	b := buildBundle(t, map[string][]byte{
		artifact.AgentLog("worker-1"): []byte(
			"cargo build\nExit code 1\nretrying\nExit code 1\nrelay --help\nbead sho\ncommand not found\n"),
	})
	assert.Equal(t, 3, rubric.ToolErrors(b))
	assert.Equal(t, 1, rubric.HelpLookups(b))
	// 1 help lookup + ceil(3/3) estimated retries
	assert.Equal(t, 2, rubric.FrictionPenalty(b))
}

func TestFrictionPenaltyBounded(t *testing.T) {
	var noisy []byte
	for i := 0; i < 40; i++ {
		noisy = append(noisy, []byte("checking --help\nExit code 1\n")...)
	}
	b := buildBundle(t, map[string][]byte{artifact.AgentLog("worker-1"): noisy})
	assert.Equal(t, rubric.MaxFrictionPenalty, rubric.FrictionPenalty(b))
}

func TestWorkersCoordinatedImplicitFallback(t *testing.T) {
	// No coordination messages on the channel, but the build passed: the
	// lenient fallback treats a working integration as implicit coordination.
	b := buildBundle(t, map[string][]byte{
		artifact.Mission:              []byte(`{"id":"b1","status":"closed","labels":["mission"]}`),
		artifact.ChannelHistoryText:   []byte("task-done b2\n"),
		artifact.AgentLog("worker-2"): []byte("build passed\n"),
	})
	res := rubric.MissionRubric("mission").Score(b)
	assert.True(t, findCheck(t, res, "workers coordinated").Passed)
}
