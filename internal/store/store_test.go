package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slate/internal/harness"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runScenario(t *testing.T) *harness.Result {
	t.Helper()
	scenario, err := harness.ParseScenario([]byte(`
name: archive-demo
description: a run worth archiving
run_token: archive-run-1
steps:
  - commit:
      committer: Alice
      roots: [0, 1]
      nodes:
        - id: 0
          kind: create
          contract: cid-1
          template: Iou
          signatories: [Alice]
          stakeholders: [Alice, Bob]
        - id: 1
          kind: exercise
          contract: cid-1
          template: Iou
          choice: Burn
          actors: [Alice]
          signatories: [Alice]
          stakeholders: [Alice, Bob]
          consuming: true
  - pass_time:
      micros: 1000
`))
	require.NoError(t, err)

	result, err := harness.New().Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	return result
}

func archive(t *testing.T, s *Store, result *harness.Result) {
	t.Helper()
	steps, err := StepsFromResult(result)
	require.NoError(t, err)
	events, err := EventsFromLedger(result.Ledger)
	require.NoError(t, err)

	run := RunRecord{
		Token:     result.RunToken,
		Scenario:  "archive-demo",
		Pass:      result.Pass,
		StartedAt: "2024-01-01T00:00:00Z",
	}
	require.NoError(t, s.WriteRun(context.Background(), run, steps, events))
}

func TestStore_WriteAndReadRun(t *testing.T) {
	s := openTestStore(t)
	result := runScenario(t)
	archive(t, s, result)

	got, err := s.ReadRun(context.Background(), "archive-run-1")
	require.NoError(t, err)

	assert.Equal(t, "archive-demo", got.Run.Scenario)
	assert.True(t, got.Run.Pass)

	require.Len(t, got.Steps, 2)
	assert.Equal(t, harness.TraceCommit, got.Steps[0].Kind)
	assert.Contains(t, got.Steps[0].Payload, `"committer":"Alice"`)
	assert.Len(t, got.Steps[0].Digest, 64)
	assert.Equal(t, harness.TracePassTime, got.Steps[1].Kind)

	// Both committed nodes are archived; the create is marked consumed.
	require.Len(t, got.Events, 2)
	assert.Equal(t, "#0:0", got.Events[0].EventID)
	assert.Equal(t, "create", got.Events[0].Kind)
	assert.True(t, got.Events[0].Consumed)
	assert.Len(t, got.Events[0].Digest, 64)
	assert.Equal(t, "#0:1", got.Events[1].EventID)
	assert.Equal(t, "exercise", got.Events[1].Kind)
	assert.False(t, got.Events[1].Consumed)
}

func TestStore_WriteRunIdempotent(t *testing.T) {
	s := openTestStore(t)
	result := runScenario(t)
	archive(t, s, result)
	archive(t, s, result) // Second write is silently ignored.

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_ReadRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ListRunsEmpty(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStepsFromResult_DeterministicPayloads(t *testing.T) {
	result := runScenario(t)

	s1, err := StepsFromResult(result)
	require.NoError(t, err)
	s2, err := StepsFromResult(result)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestEventsFromLedger_WitnessesSorted(t *testing.T) {
	result := runScenario(t)
	events, err := EventsFromLedger(result.Ledger)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, `["Alice","Bob"]`, events[0].Witnesses)
}
