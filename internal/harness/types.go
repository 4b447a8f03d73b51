package harness

import (
	"fmt"

	"github.com/roach88/slate/internal/ledger"
)

// TraceEvent records the outcome of one scenario step. Seq is the step's
// position in the scenario (not the ledger step id: a rejected commit
// consumes no ledger step but still appears in the trace).
type TraceEvent struct {
	Seq  int    `json:"seq"`
	Kind string `json:"kind"`

	// Commit fields.
	Committer string   `json:"committer,omitempty"`
	StepID    string   `json:"step_id,omitempty"`
	Roots     []string `json:"roots,omitempty"`
	Rejected  string   `json:"rejected,omitempty"` // rejection kind, if any

	// PassTime fields.
	DeltaMicros int64 `json:"delta_micros,omitempty"`

	// MustFail fields.
	Actor string `json:"actor,omitempty"`

	// Lookup fields.
	Contract string `json:"contract,omitempty"`
	View     string `json:"view,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

// Trace event kind constants.
const (
	TraceCommit         = "commit"
	TraceCommitRejected = "commit_rejected"
	TracePassTime       = "pass_time"
	TraceMustFail       = "must_fail"
	TraceLookup         = "lookup"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// RunToken identifies this execution.
	RunToken string `json:"run_token"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// Ledger is the final ledger version, for archive export and direct
	// inspection by callers.
	Ledger *ledger.Ledger `json:"-"`
}

// NewResult creates a passing result with an empty trace.
func NewResult(runToken string) *Result {
	return &Result{
		Pass:     true,
		RunToken: runToken,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// AddTrace appends a trace event stamped with the next sequence number.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace)
	r.Trace = append(r.Trace, ev)
}
