package ledger

import (
	"time"

	"github.com/roach88/slate/internal/ir"
)

// Step is the sealed record of one ledger operation in the step log.
type Step interface {
	step() // Sealed - only Commit, PassTime, and AssertMustFail implement it
}

// CommitStep records a committed transaction.
type CommitStep struct {
	ID       ir.StepID
	Tx       *RichTransaction
	Location *ir.Location
}

func (CommitStep) step() {}

// PassTimeStep records a time advance.
type PassTimeStep struct {
	Delta time.Duration
}

func (PassTimeStep) step() {}

// AssertMustFailStep records that a mustFail assertion consumed a step.
type AssertMustFailStep struct {
	ID       ir.StepID
	Actor    ir.Party
	Time     time.Time
	Location *ir.Location
}

func (AssertMustFailStep) step() {}

// Ledger is one immutable version of the scenario ledger. Operations
// return a new version; the receiver is never modified, so any version can
// be read concurrently or kept for later inspection.
type Ledger struct {
	currentTime time.Time
	nextStepID  ir.StepID
	steps       []Step
	data        *LedgerData
}

// New returns an empty ledger whose clock starts at t0.
func New(t0 time.Time) *Ledger {
	return &Ledger{
		currentTime: t0,
		nextStepID:  0,
		steps:       nil,
		data:        NewLedgerData(),
	}
}

// CurrentTime returns the ledger clock.
func (l *Ledger) CurrentTime() time.Time {
	return l.currentTime
}

// NextStepID returns the id the next step will take.
func (l *Ledger) NextStepID() ir.StepID {
	return l.nextStepID
}

// Steps returns the ordered step log. The slice is shared; callers must
// not modify it.
func (l *Ledger) Steps() []Step {
	return l.steps
}

// Data returns the node-info index of this version. Read-only: mutating it
// would corrupt every version sharing the maps.
func (l *Ledger) Data() *LedgerData {
	return l.data
}

// PTXEventID forms the event id a node of a not-yet-committed transaction
// would get, against the next step id. Used in messages about a partial
// transaction.
func (l *Ledger) PTXEventID(node ir.NodeID) ir.EventID {
	return ir.NewEventID(l.nextStepID, node)
}

// CommitResult carries the outcome of a successful commit.
type CommitResult struct {
	Ledger *Ledger
	StepID ir.StepID
	Tx     *RichTransaction
}

// CommitTransaction enriches tx under the committer's authority, validates
// it, and folds it into a new ledger version.
//
// Rejections (failed authorizations, key collisions) are returned as a
// CommitError and leave the receiver's state unreferenced by any new
// version - the caller keeps using the old ledger.
func (l *Ledger) CommitTransaction(committer ir.Party, effectiveAt time.Time, loc *ir.Location, tx ir.Transaction) (*CommitResult, CommitError) {
	mode := Authorize{Authorizers: ir.NewPartySet(committer)}
	etx := EnrichTransaction(tx, mode)

	step := l.nextStepID
	rtx := richTransaction(committer, effectiveAt, step, etx)
	data, cerr := commitTransaction(step, rtx, l.data)
	if cerr != nil {
		return nil, cerr
	}

	next := &Ledger{
		currentTime: l.currentTime,
		nextStepID:  step + 1,
		steps:       appendStep(l.steps, CommitStep{ID: step, Tx: rtx, Location: loc}),
		data:        data,
	}
	return &CommitResult{Ledger: next, StepID: step, Tx: rtx}, nil
}

// PassTime advances the ledger clock by delta (which may be negative) and
// appends a pass-time step. The index is unaffected.
func (l *Ledger) PassTime(delta time.Duration) *Ledger {
	return &Ledger{
		currentTime: l.currentTime.Add(delta),
		nextStepID:  l.nextStepID + 1,
		steps:       appendStep(l.steps, PassTimeStep{Delta: delta}),
		data:        l.data,
	}
}

// InsertAssertMustFail appends an assert-must-fail step recording the
// actor and the time at which the assertion was made.
func (l *Ledger) InsertAssertMustFail(actor ir.Party, loc *ir.Location) *Ledger {
	step := l.nextStepID
	return &Ledger{
		currentTime: l.currentTime,
		nextStepID:  step + 1,
		steps: appendStep(l.steps, AssertMustFailStep{
			ID:       step,
			Actor:    actor,
			Time:     l.currentTime,
			Location: loc,
		}),
		data: l.data,
	}
}

// appendStep appends without aliasing the prior version's backing array.
func appendStep(steps []Step, s Step) []Step {
	out := make([]Step, len(steps)+1)
	copy(out, steps)
	out[len(steps)] = s
	return out
}
