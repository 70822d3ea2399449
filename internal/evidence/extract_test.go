package evidence_test

import (
	"testing"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/evidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAny(t *testing.T) {
	src := "Worker-3 reported: BUILD PASSED after 2 retries"
	assert.True(t, evidence.MatchAny(src, []string{`build (passed|failed)`}))
	assert.True(t, evidence.MatchAny(src, []string{"nope", "worker-\\d"}))
	assert.False(t, evidence.MatchAny(src, []string{"deploy", "rollback"}))
	assert.False(t, evidence.MatchAny(src, nil))
	assert.False(t, evidence.MatchAny("", []string{"x"}))
}

func TestMatchAnyBadPatternFallsBackToSubstring(t *testing.T) {
	// "[invalid" does not compile; it must still match as a literal.
	assert.True(t, evidence.MatchAny("saw [INVALID token", []string{"[invalid"}))
	assert.False(t, evidence.MatchAny("clean output", []string{"[invalid"}))
}

func TestCount(t *testing.T) {
	src := "task-done\nworking\ntask-done\nExit code 1\n"
	assert.Equal(t, 2, evidence.Count(src, "task-done"))
	assert.Equal(t, 1, evidence.Count(src, `exit code [1-9]`))
	assert.Equal(t, 0, evidence.Count(src, "task-claim"))
	assert.Equal(t, 0, evidence.Count("", "anything"))
	assert.Equal(t, 0, evidence.Count(src, ""))
}

func TestField(t *testing.T) {
	doc := []byte(`{"id":"bead-7","status":"closed","children":[{"id":"bead-8","status":"open"}]}`)
	assert.Equal(t, "closed", evidence.Field(doc, "status", ""))
	assert.Equal(t, "bead-8", evidence.Field(doc, "children.0.id", ""))
	assert.Equal(t, "fallback", evidence.Field(doc, "missing.path", "fallback"))
	assert.Equal(t, "fallback", evidence.Field(doc, "children.5.id", "fallback"))
}

func TestFieldMalformed(t *testing.T) {
	assert.Equal(t, 42, evidence.Field([]byte(`{"truncated`), "status", 42))
	assert.Equal(t, "d", evidence.Field(nil, "status", "d"))
	assert.Equal(t, "d", evidence.Field([]byte(""), "status", "d"))
}

func TestStr(t *testing.T) {
	doc := []byte(`{"id":"bead-7","count":3}`)
	assert.Equal(t, "bead-7", evidence.Str(doc, "id", ""))
	// non-string value degrades to the default
	assert.Equal(t, "d", evidence.Str(doc, "count", "d"))
}

func TestItemsBareArray(t *testing.T) {
	doc := []byte(`[{"id":"a"},{"id":"b"}]`)
	items := evidence.Items(doc, "tasks")
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0]["id"])
}

func TestItemsWrappedObject(t *testing.T) {
	doc := []byte(`{"tasks":[{"id":"a"}],"cursor":"next"}`)
	items := evidence.Items(doc, "tasks")
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0]["id"])
}

func TestItemsTriesKeysInOrder(t *testing.T) {
	doc := []byte(`{"edges":[{"from":"a","to":"b"}]}`)
	items := evidence.Items(doc, "nodes", "edges")
	require.Len(t, items, 1)
}

func TestItemsMalformed(t *testing.T) {
	assert.Nil(t, evidence.Items([]byte(`{"tasks": "not-an-array"}`), "tasks"))
	assert.Nil(t, evidence.Items([]byte(`[1, 2, 3`), "tasks"))
	assert.Nil(t, evidence.Items(nil, "tasks"))
}

func TestBundleMissingArtifacts(t *testing.T) {
	b := evidence.NewBundle(artifact.Open(t.TempDir()))
	assert.Equal(t, "", b.Text(artifact.ChannelHistoryText))
	assert.Nil(t, b.JSON(artifact.Mission))
	assert.Equal(t, "", b.AgentLogs())
	assert.False(t, b.Has(artifact.Tasks))
}

func TestBundleAgentLogs(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Write(artifact.AgentLog("lead-1"), []byte("planning")))
	require.NoError(t, store.Write(artifact.AgentLog("worker-1"), []byte("building")))
	b := evidence.NewBundle(store)
	logs := b.AgentLogs()
	assert.Contains(t, logs, "planning")
	assert.Contains(t, logs, "building")
	assert.Len(t, b.LogNames(), 2)
}
