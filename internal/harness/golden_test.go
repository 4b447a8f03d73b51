package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Lifecycle(t *testing.T) {
	scenario, err := LoadScenario("testdata/iou_lifecycle.yaml")
	require.NoError(t, err)

	result := RunWithGolden(t, New(), scenario)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestTraceSnapshot_CanonicalMapShape(t *testing.T) {
	snapshot := &TraceSnapshot{
		ScenarioName: "s",
		RunToken:     "tok",
		Pass:         false,
		Trace: []TraceEvent{
			{Seq: 0, Kind: TracePassTime, DeltaMicros: 0},
		},
		Errors: []string{"boom"},
	}

	m := snapshot.toCanonicalMap()
	assert.Equal(t, "s", m["scenario_name"])
	assert.Equal(t, false, m["pass"])
	assert.Contains(t, m, "errors")

	// A zero-delta pass-time still records its delta explicitly.
	event := m["trace"].([]any)[0].(map[string]any)
	assert.Equal(t, int64(0), event["delta_micros"])
}
