package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slate/internal/ir"
)

// TraceSnapshot captures a scenario execution for golden comparison. All
// fields serialize through canonical JSON so snapshots are byte-stable.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunToken     string       `json:"run_token"`
	Pass         bool         `json:"pass"`
	Trace        []TraceEvent `json:"trace"`
	Errors       []string     `json:"errors,omitempty"`
}

// toCanonicalMap converts the snapshot to plain maps for ir.MarshalCanonical,
// which handles only IR values and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		eventMap := map[string]any{
			"seq":  ev.Seq,
			"kind": ev.Kind,
		}
		if ev.Committer != "" {
			eventMap["committer"] = ev.Committer
		}
		if ev.StepID != "" {
			eventMap["step_id"] = ev.StepID
		}
		if len(ev.Roots) > 0 {
			roots := make([]any, len(ev.Roots))
			for j, r := range ev.Roots {
				roots[j] = r
			}
			eventMap["roots"] = roots
		}
		if ev.Rejected != "" {
			eventMap["rejected"] = ev.Rejected
		}
		if ev.Kind == TracePassTime {
			eventMap["delta_micros"] = ev.DeltaMicros
		}
		if ev.Actor != "" {
			eventMap["actor"] = ev.Actor
		}
		if ev.Contract != "" {
			eventMap["contract"] = ev.Contract
		}
		if ev.View != "" {
			eventMap["view"] = ev.View
		}
		if ev.Outcome != "" {
			eventMap["outcome"] = ev.Outcome
		}
		traceList[i] = eventMap
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"run_token":     s.RunToken,
		"pass":          s.Pass,
		"trace":         traceList,
	}
	if len(s.Errors) > 0 {
		errs := make([]any, len(s.Errors))
		for i, e := range s.Errors {
			errs[i] = e
		}
		out["errors"] = errs
	}
	return out
}

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, scenario *Scenario) *Result {
	t.Helper()

	result, err := h.Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	snapshot := &TraceSnapshot{
		ScenarioName: scenario.Name,
		RunToken:     result.RunToken,
		Pass:         result.Pass,
		Trace:        result.Trace,
		Errors:       result.Errors,
	}
	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		t.Fatalf("scenario %s: marshal snapshot: %v", scenario.Name, err)
	}

	g := goldie.New(t)
	g.Assert(t, scenario.Name, data)
	return result
}
