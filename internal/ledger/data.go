package ledger

import (
	"maps"
	"time"

	"github.com/roach88/slate/internal/ir"
)

// NodeInfo is the per-event-id record kept in the index. The node itself
// and the effective-at time are denormalized so the lookup hot path never
// re-reads the owning step.
type NodeInfo struct {
	// Node is the committed node, children rewritten to event ids.
	Node ir.Node[ir.EventID]

	// StepID is the step that committed the node.
	StepID ir.StepID

	// EffectiveAt is the owning transaction's effective time.
	EffectiveAt time.Time

	// ObservingSince maps each observer to the step id at which it began
	// observing this node. Once set, an onset never moves later.
	ObservingSince map[ir.Party]ir.StepID

	// ReferencedBy holds the event ids of fetches, exercises, and positive
	// key lookups that reference this node's contract.
	ReferencedBy map[ir.EventID]struct{}

	// Consumer is the consuming exercise's event id, if any.
	Consumer *ir.EventID

	// Parent is the enclosing exercise's event id; nil for roots.
	Parent *ir.EventID
}

// clone returns an independent copy. The node value is immutable and
// shared; the maps are copied.
func (i *NodeInfo) clone() *NodeInfo {
	out := *i
	out.ObservingSince = maps.Clone(i.ObservingSince)
	out.ReferencedBy = maps.Clone(i.ReferencedBy)
	return &out
}

// observedBy reports whether p ever began observing this node.
func (i *NodeInfo) observedBy(p ir.Party) bool {
	_, ok := i.ObservingSince[p]
	return ok
}

// observers returns the set of parties with an observation onset.
func (i *NodeInfo) observers() ir.PartySet {
	out := make(ir.PartySet, len(i.ObservingSince))
	for p := range i.ObservingSince {
		out[p] = struct{}{}
	}
	return out
}

// LedgerData is the node-info index: the global maps a committed ledger
// maintains across steps.
//
// Invariants, after every committed step:
//   - every active contract id maps to a create whose info has no consumer
//   - every consumed contract id is absent from ActiveContracts and its
//     info's Consumer names the consuming exercise
//   - an active keyed contract appears in ActiveKeys; inactive ones never do
type LedgerData struct {
	// ActiveContracts is the set of created, not-yet-consumed contracts.
	ActiveContracts ir.ContractIDSet

	// ActiveKeys maps each live contract key to its contract.
	ActiveKeys map[ir.GlobalKey]ir.ContractID

	// ContractEvents maps each created contract id to its create event.
	ContractEvents map[ir.ContractID]ir.EventID

	// Nodes is the per-event-id info map.
	Nodes map[ir.EventID]*NodeInfo
}

// NewLedgerData returns an empty index.
func NewLedgerData() *LedgerData {
	return &LedgerData{
		ActiveContracts: make(ir.ContractIDSet),
		ActiveKeys:      make(map[ir.GlobalKey]ir.ContractID),
		ContractEvents:  make(map[ir.ContractID]ir.EventID),
		Nodes:           make(map[ir.EventID]*NodeInfo),
	}
}

// clone returns an independent copy of the whole index. A commit mutates
// only its clone, so an aborted commit leaves the prior version untouched
// and old versions stay safe to read concurrently.
func (d *LedgerData) clone() *LedgerData {
	nodes := make(map[ir.EventID]*NodeInfo, len(d.Nodes))
	for eid, info := range d.Nodes {
		nodes[eid] = info.clone()
	}
	return &LedgerData{
		ActiveContracts: d.ActiveContracts.Clone(),
		ActiveKeys:      maps.Clone(d.ActiveKeys),
		ContractEvents:  maps.Clone(d.ContractEvents),
		Nodes:           nodes,
	}
}

// createInfo resolves a contract id to its create's event id and info.
// Both lookups are index invariants; a miss means the transaction producer
// referenced a contract this ledger never created.
func (d *LedgerData) createInfo(coid ir.ContractID) (ir.EventID, *NodeInfo) {
	eid, ok := d.ContractEvents[coid]
	if !ok {
		crash("contract %s referenced but never created", coid)
	}
	info, ok := d.Nodes[eid]
	if !ok {
		crash("contract %s indexed at %s but node info is missing", coid, eid)
	}
	return eid, info
}

// recordReference adds referrer to the referenced contract's node info.
// A reference to an already-consumed contract is recorded as-is: whether a
// fetch of a consumed contract is an error is the transaction producer's
// guarantee, not this index's.
func (d *LedgerData) recordReference(coid ir.ContractID, referrer ir.EventID) {
	_, info := d.createInfo(coid)
	info.ReferencedBy[referrer] = struct{}{}
}
