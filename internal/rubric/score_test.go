package rubric_test

import (
	"encoding/json"
	"testing"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/evidence"
	"github.com/signalnine/meshbench/internal/rubric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyBundle(t *testing.T) *evidence.Bundle {
	t.Helper()
	return evidence.NewBundle(artifact.Open(t.TempDir()))
}

func boolCheck(name, category string, points int, pass bool) rubric.Check {
	return rubric.Check{
		Name: name, Category: category, Points: points,
		Run: func(*evidence.Bundle) bool { return pass },
	}
}

func TestScorerAccumulates(t *testing.T) {
	s := &rubric.Scorer{
		Checks: []rubric.Check{
			boolCheck("a", "x", 5, true),
			boolCheck("b", "x", 10, false),
			boolCheck("c", "y", 5, true),
		},
	}
	res := s.Score(emptyBundle(t))
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, 20, res.Total)
	assert.Equal(t, 2, res.Passed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Warned)
}

func TestScorerSkippedChecksLeaveTotal(t *testing.T) {
	skip := rubric.Check{
		Name: "conditional", Category: "x", Points: 50,
		Skip: func(*evidence.Bundle) bool { return true },
		Run:  func(*evidence.Bundle) bool { return true },
	}
	s := &rubric.Scorer{Checks: []rubric.Check{boolCheck("a", "x", 5, true), skip}}
	res := s.Score(emptyBundle(t))
	assert.Equal(t, 5, res.Total, "skipped check must not count toward total")
	assert.Len(t, res.Checks, 1)
}

func TestGraduatedTiers(t *testing.T) {
	tiers := []rubric.Tier{
		{Max: 0, Points: 5},
		{Max: 5, Points: 3},
		{Max: 15, Points: 1},
		{Max: -1, Points: 0},
	}
	tests := []struct {
		count   int
		awarded int
		passed  bool
		warned  bool
	}{
		{0, 5, true, false},
		{1, 3, false, true},
		{5, 3, false, true},
		{6, 1, false, true},
		{15, 1, false, true},
		{16, 0, false, false},
		{100, 0, false, false},
	}
	for _, tt := range tests {
		n := tt.count
		s := &rubric.Scorer{Checks: []rubric.Check{{
			Name: "friction", Category: "friction",
			Count: func(*evidence.Bundle) int { return n },
			Tiers: tiers,
		}}}
		res := s.Score(emptyBundle(t))
		require.Len(t, res.Checks, 1)
		cr := res.Checks[0]
		assert.Equal(t, tt.awarded, cr.Awarded, "count %d", tt.count)
		assert.Equal(t, 5, cr.Possible, "count %d", tt.count)
		assert.Equal(t, tt.passed, cr.Passed, "count %d", tt.count)
		assert.Equal(t, tt.warned, cr.Warned, "count %d", tt.count)
	}
}

func TestCriticalFailShortCircuit(t *testing.T) {
	s := &rubric.Scorer{
		Critical: []rubric.CriticalRule{{
			Name:   "mission never created",
			Label:  "CRITICAL FAIL — mission never created",
			Failed: func(*evidence.Bundle) bool { return true },
		}},
		Checks: []rubric.Check{boolCheck("a", "x", 5, true)},
	}
	res := s.Score(emptyBundle(t))
	assert.True(t, res.CriticalFail)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Checks, "no category checks may run after a critical fail")
	assert.Equal(t, "CRITICAL FAIL — mission never created", res.Label)
}

func TestCategoryCap(t *testing.T) {
	s := &rubric.Scorer{
		Checks: []rubric.Check{
			boolCheck("gate", "dispatch", 10, false),
			boolCheck("a", "x", 45, true),
			boolCheck("b", "y", 45, true),
		},
		Caps: []rubric.Cap{{CheckName: "gate", Percent: 0.30, Reason: "no workers"}},
	}
	res := s.Score(emptyBundle(t))
	assert.Equal(t, 100, res.Total)
	assert.Equal(t, 30, res.Score, "score must be capped at 30%% of total")
	assert.True(t, res.CapApplied)
	assert.Equal(t, "no workers", res.CapReason)
}

func TestCategoryCapNotAppliedWhenGatePasses(t *testing.T) {
	s := &rubric.Scorer{
		Checks: []rubric.Check{
			boolCheck("gate", "dispatch", 10, true),
			boolCheck("a", "x", 90, true),
		},
		Caps: []rubric.Cap{{CheckName: "gate", Percent: 0.30, Reason: "no workers"}},
	}
	res := s.Score(emptyBundle(t))
	assert.Equal(t, 100, res.Score)
	assert.False(t, res.CapApplied)
}

func TestFrictionPenaltyClampsAtZero(t *testing.T) {
	s := &rubric.Scorer{
		Checks:   []rubric.Check{boolCheck("a", "x", 3, true)},
		Friction: func(*evidence.Bundle) int { return 8 },
	}
	res := s.Score(emptyBundle(t))
	assert.Equal(t, 0, res.Score, "penalty must never push the score negative")
	assert.Equal(t, 8, res.Penalty)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score, total, failed, warned int
		want                         string
	}{
		{100, 100, 0, 0, rubric.LabelAllPassed},
		{90, 100, 1, 0, rubric.LabelExcellent},
		{85, 100, 1, 0, rubric.LabelExcellent},
		{70, 100, 2, 0, rubric.LabelPass},
		{69, 100, 2, 0, rubric.LabelFail},
		{0, 100, 10, 0, rubric.LabelFail},
		{0, 0, 0, 0, rubric.LabelFail},
		// all checks passed but friction penalty applied: not ALL PASSED
		{95, 100, 0, 0, rubric.LabelExcellent},
	}
	for _, tt := range tests {
		got := rubric.Classify(tt.score, tt.total, tt.failed, tt.warned)
		assert.Equal(t, tt.want, got, "Classify(%d, %d, %d, %d)", tt.score, tt.total, tt.failed, tt.warned)
	}
}

func TestEstimateRetries(t *testing.T) {
	tests := []struct{ errors, want int }{
		{0, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 2}, {6, 2}, {7, 3}, {-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rubric.EstimateRetries(tt.errors), "errors=%d", tt.errors)
	}
}

func TestScoreIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Write(artifact.Mission, []byte(`{"id":"b1","status":"closed","labels":["mission"]}`)))
	require.NoError(t, store.Write(artifact.Tasks, []byte(`[{"id":"b1"},{"id":"b2","title":"Implement the parser","status":"closed"}]`)))
	require.NoError(t, store.Write(artifact.ChannelHistoryText, []byte("mission received\ntask-claim b2\ntask-done b2\ncheckpoint: 1/1 done\nsummary: all tasks complete\n")))
	require.NoError(t, store.Write(artifact.AgentLog("worker-1"), []byte("build passed\n")))

	scorer := rubric.MissionRubric("mission")
	first, err := json.Marshal(scorer.Score(evidence.NewBundle(artifact.Open(dir))))
	require.NoError(t, err)
	second, err := json.Marshal(scorer.Score(evidence.NewBundle(artifact.Open(dir))))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "re-scoring an unmodified run dir must be byte-identical")
}
