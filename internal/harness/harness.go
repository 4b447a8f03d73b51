// Package harness executes ledger test scenarios.
//
// A scenario drives a fresh in-memory ledger through an ordered step list
// (commits, time passage, must-fail markers, visibility-scoped lookups),
// checks each step's outcome against its expect clause, and finally
// evaluates assertions over the ledger state. The produced trace is
// deterministic: the same scenario with the same run token yields a
// byte-identical golden snapshot.
//
// Unlike a production client, the harness builds transaction trees directly
// from the scenario's node specs - there is no interpreter in front of the
// ledger, so scenarios can express shapes (bad authorization, duplicate
// keys) an interpreter would never emit. That is the point: the ledger's
// validation is the subject under test.
package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/slate/internal/ir"
	"github.com/roach88/slate/internal/ledger"
)

// RunTokenGenerator mints run tokens. Implemented by UUIDv7RunTokens
// (production) and testutil.FixedRunTokens (tests).
type RunTokenGenerator interface {
	Generate() string
}

// UUIDv7RunTokens generates time-sortable uuidv7 run tokens.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7RunTokens struct{}

// Generate creates a new uuidv7 and returns it as a hyphenated string.
func (UUIDv7RunTokens) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Harness executes scenarios. The zero value is not usable; construct with
// New.
type Harness struct {
	tokens RunTokenGenerator
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithRunTokens overrides the run-token generator. Tests pin a fixed token
// for golden comparison.
func WithRunTokens(g RunTokenGenerator) Option {
	return func(h *Harness) {
		h.tokens = g
	}
}

// WithLogger sets the harness logger. Defaults to a discarding logger so
// test output stays quiet.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		tokens: UUIDv7RunTokens{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario against a fresh ledger and returns the result.
// Step expectation mismatches and assertion failures are reported in the
// result, not as errors; the error return is reserved for scenarios the
// runner cannot execute at all (malformed values, unparseable keys).
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	token := scenario.RunToken
	if token == "" {
		token = h.tokens.Generate()
	}
	result := NewResult(token)

	l := ledger.New(scenario.startTime())
	h.logger.Info("scenario start",
		"scenario", scenario.Name,
		"run_token", token,
		"steps", len(scenario.Steps))

	for i, step := range scenario.Steps {
		var err error
		switch {
		case step.Commit != nil:
			l, err = h.runCommit(l, step.Commit, result)
		case step.PassTime != nil:
			l = h.runPassTime(l, step.PassTime, result)
		case step.MustFail != nil:
			l = h.runMustFail(l, step.MustFail, result)
		case step.Lookup != nil:
			h.runLookup(l, step.Lookup, result)
		}
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	evaluateAssertions(l, scenario.Assertions, result)
	result.Ledger = l

	h.logger.Info("scenario done",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))
	return result, nil
}

// runCommit submits the spec's transaction and reconciles the outcome with
// the expect clause. A rejected commit leaves the ledger unchanged, so an
// expected rejection lets the scenario continue on the same version.
func (h *Harness) runCommit(l *ledger.Ledger, spec *CommitSpec, result *Result) (*ledger.Ledger, error) {
	tx, err := buildTransaction(spec)
	if err != nil {
		return nil, err
	}

	expect := spec.Expect
	if expect == "" {
		expect = ExpectSuccess
	}
	effectiveAt := l.CurrentTime().Add(time.Duration(spec.EffectiveOffsetMicros) * time.Microsecond)

	res, cerr := l.CommitTransaction(ir.Party(spec.Committer), effectiveAt, nil, tx)
	if cerr != nil {
		rejected := rejectionKind(cerr)
		result.AddTrace(TraceEvent{
			Kind:      TraceCommitRejected,
			Committer: spec.Committer,
			Rejected:  rejected,
		})
		if expect != rejected {
			result.AddError("commit by %s: expected %s, got %s: %v",
				spec.Committer, expect, rejected, cerr)
		}
		return l, nil
	}

	roots := make([]string, len(res.Tx.Roots))
	for i, r := range res.Tx.Roots {
		roots[i] = r.String()
	}
	result.AddTrace(TraceEvent{
		Kind:      TraceCommit,
		Committer: spec.Committer,
		StepID:    res.StepID.Text(),
		Roots:     roots,
	})
	if expect != ExpectSuccess {
		result.AddError("commit by %s: expected %s but the commit succeeded",
			spec.Committer, expect)
	}
	return res.Ledger, nil
}

func rejectionKind(cerr ledger.CommitError) string {
	if ledger.IsUniqueKeyViolation(cerr) {
		return ExpectUniqueKeyViolation
	}
	return ExpectFailedAuthorizations
}

func (h *Harness) runPassTime(l *ledger.Ledger, spec *PassTimeSpec, result *Result) *ledger.Ledger {
	result.AddTrace(TraceEvent{Kind: TracePassTime, DeltaMicros: spec.Micros})
	return l.PassTime(time.Duration(spec.Micros) * time.Microsecond)
}

func (h *Harness) runMustFail(l *ledger.Ledger, spec *MustFailSpec, result *Result) *ledger.Ledger {
	result.AddTrace(TraceEvent{Kind: TraceMustFail, Actor: spec.Actor})
	return l.InsertAssertMustFail(ir.Party(spec.Actor), nil)
}

func (h *Harness) runLookup(l *ledger.Ledger, spec *LookupSpec, result *Result) {
	view := ledger.View(ledger.OperatorView{})
	if spec.View != "operator" {
		view = ledger.ParticipantView{Party: ir.Party(spec.View)}
	}
	at := l.CurrentTime().Add(time.Duration(spec.OffsetMicros) * time.Microsecond)

	outcome := outcomeKind(l.LookupGlobalContract(view, at, ir.ContractID(spec.Contract)))
	result.AddTrace(TraceEvent{
		Kind:     TraceLookup,
		Contract: spec.Contract,
		View:     spec.View,
		Outcome:  outcome,
	})
	if outcome != spec.Expect {
		result.AddError("lookup %s via %s: expected %s, got %s",
			spec.Contract, spec.View, spec.Expect, outcome)
	}
}

func outcomeKind(res ledger.LookupResult) string {
	switch res.(type) {
	case ledger.LookupOK:
		return OutcomeOK
	case ledger.LookupNotFound:
		return OutcomeNotFound
	case ledger.LookupNotEffective:
		return OutcomeNotEffective
	case ledger.LookupNotActive:
		return OutcomeNotActive
	case ledger.LookupNotVisible:
		return OutcomeNotVisible
	default:
		// The interface is sealed.
		panic(fmt.Sprintf("harness: unknown lookup result %T", res))
	}
}
