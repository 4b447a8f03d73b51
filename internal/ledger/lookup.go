package ledger

import (
	"time"

	"github.com/roach88/slate/internal/ir"
)

// View is the sealed read lens for lookups: the operator sees everything,
// a participant sees only what was disclosed to its party.
type View interface {
	view() // Sealed - only OperatorView and ParticipantView implement it
}

// OperatorView is the omniscient lens.
type OperatorView struct{}

func (OperatorView) view() {}

// ParticipantView restricts visibility to one party.
type ParticipantView struct {
	Party ir.Party
}

func (ParticipantView) view() {}

// LookupResult is the sealed classification of a contract-id lookup.
type LookupResult interface {
	lookupResult()
}

// LookupOK is a visible, active, effective contract.
type LookupOK struct {
	ContractID   ir.ContractID
	Instance     ir.ContractInstance
	Stakeholders ir.PartySet
}

func (LookupOK) lookupResult() {}

// LookupNotFound reports a contract id this ledger never created.
type LookupNotFound struct{}

func (LookupNotFound) lookupResult() {}

// LookupNotEffective reports a contract created after the queried time.
type LookupNotEffective struct {
	EffectiveAt time.Time
	Template    ir.TemplateID
}

func (LookupNotEffective) lookupResult() {}

// LookupNotActive reports a consumed contract.
type LookupNotActive struct {
	Template   ir.TemplateID
	ConsumedBy ir.EventID
}

func (LookupNotActive) lookupResult() {}

// LookupNotVisible reports a contract the view's party never observed.
type LookupNotVisible struct {
	Template  ir.TemplateID
	Observers ir.PartySet
}

func (LookupNotVisible) lookupResult() {}

// LookupGlobalContract classifies coid relative to the view and the given
// effective time. Rules apply in order: unknown ids and non-create events
// are not-found, then effectiveness, then consumption, then visibility.
// Only creates materialize contracts; an exercise, fetch, or lookup event
// indexed under the id does not.
func (l *Ledger) LookupGlobalContract(view View, effectiveAt time.Time, coid ir.ContractID) LookupResult {
	eid, ok := l.data.ContractEvents[coid]
	if !ok {
		return LookupNotFound{}
	}
	info, ok := l.data.Nodes[eid]
	if !ok {
		crash("lookup: contract %s indexed at %s but node info is missing", coid, eid)
	}
	create, ok := info.Node.(ir.CreateNode[ir.EventID])
	if !ok {
		return LookupNotFound{}
	}

	if info.EffectiveAt.After(effectiveAt) {
		return LookupNotEffective{EffectiveAt: info.EffectiveAt, Template: create.Template()}
	}
	if info.Consumer != nil {
		return LookupNotActive{Template: create.Template(), ConsumedBy: *info.Consumer}
	}
	if !visibleIn(view, info) {
		return LookupNotVisible{Template: create.Template(), Observers: info.observers()}
	}
	return LookupOK{
		ContractID:   coid,
		Instance:     create.Instance,
		Stakeholders: create.Stakeholders,
	}
}

// visibleIn applies the view to a node's observer onsets.
func visibleIn(view View, info *NodeInfo) bool {
	switch v := view.(type) {
	case OperatorView:
		return true
	case ParticipantView:
		return info.observedBy(v.Party)
	default:
		crash("lookup: unknown view kind %T", view)
		return false
	}
}
