package ledger

import (
	"time"

	"github.com/roach88/slate/internal/ir"
)

// RichTransaction is the post-commit form of a transaction: the same tree
// with every local node id rewritten to its global event id, plus the
// relations the enrichment computed.
type RichTransaction struct {
	Committer   ir.Party
	EffectiveAt time.Time
	Roots       []ir.EventID
	Nodes       map[ir.EventID]ir.Node[ir.EventID]

	// ExplicitDisclosure maps each event to the parties entitled to see it.
	ExplicitDisclosure map[ir.EventID]ir.PartySet

	// LocalImplicitDisclosure maps events to parties that learned of them
	// implicitly within the transaction.
	LocalImplicitDisclosure map[ir.EventID]ir.PartySet

	// GlobalImplicitDisclosure maps contract ids to parties that learned of
	// them through a parent node. Contract-id keyed: the ids resolve to
	// events only against the index, at fold time.
	GlobalImplicitDisclosure map[ir.ContractID]ir.PartySet

	// FailedAuthorizations is keyed by local node id: failures concern the
	// uncommitted tree and are reported against it.
	FailedAuthorizations map[ir.NodeID]FailedAuthorization
}

// richTransaction rewrites an enriched transaction's local node ids to
// event ids under the given step.
func richTransaction(committer ir.Party, effectiveAt time.Time, step ir.StepID, etx EnrichedTransaction) *RichTransaction {
	eventID := func(n ir.NodeID) ir.EventID { return ir.NewEventID(step, n) }

	roots := make([]ir.EventID, len(etx.Tx.Roots))
	for i, r := range etx.Tx.Roots {
		roots[i] = eventID(r)
	}

	nodes := make(map[ir.EventID]ir.Node[ir.EventID], len(etx.Tx.Nodes))
	for nid, node := range etx.Tx.Nodes {
		nodes[eventID(nid)] = ir.MapNodeID(node, eventID)
	}

	explicit := make(map[ir.EventID]ir.PartySet, len(etx.Disclosures))
	for nid, parties := range etx.Disclosures {
		explicit[eventID(nid)] = parties
	}

	local := make(map[ir.EventID]ir.PartySet, len(etx.LocalDivulgences))
	for nid, parties := range etx.LocalDivulgences {
		local[eventID(nid)] = parties
	}

	return &RichTransaction{
		Committer:                committer,
		EffectiveAt:              effectiveAt,
		Roots:                    roots,
		Nodes:                    nodes,
		ExplicitDisclosure:       explicit,
		LocalImplicitDisclosure:  local,
		GlobalImplicitDisclosure: etx.GlobalDivulgences,
		FailedAuthorizations:     etx.FailedAuthorizations,
	}
}

// commitFrame is one unit of pre-order fold work.
type commitFrame struct {
	event  ir.EventID
	parent *ir.EventID
}

// commitTransaction folds a rich transaction into a copy of the index and
// returns the new version. On rejection the returned error is a
// CommitError and the prior index is untouched - no partial state survives
// a failed commit.
func commitTransaction(step ir.StepID, rtx *RichTransaction, prior *LedgerData) (*LedgerData, CommitError) {
	if len(rtx.FailedAuthorizations) > 0 {
		return nil, &FailedAuthorizationsError{Failures: rtx.FailedAuthorizations}
	}

	data := prior.clone()

	var stack []commitFrame
	for i := len(rtx.Roots) - 1; i >= 0; i-- {
		stack = append(stack, commitFrame{event: rtx.Roots[i]})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := rtx.Nodes[frame.event]
		if !ok {
			crash("commit: transaction refers to missing node %s", frame.event)
		}

		data.Nodes[frame.event] = &NodeInfo{
			Node:           node,
			StepID:         step,
			EffectiveAt:    rtx.EffectiveAt,
			ObservingSince: make(map[ir.Party]ir.StepID),
			ReferencedBy:   make(map[ir.EventID]struct{}),
			Parent:         frame.parent,
		}

		switch n := node.(type) {
		case ir.CreateNode[ir.EventID]:
			data.ActiveContracts.Add(n.ContractID)
			data.ContractEvents[n.ContractID] = frame.event
			if n.Key != nil {
				if _, taken := data.ActiveKeys[n.Key.Key]; taken {
					return nil, &UniqueKeyViolationError{Key: n.Key.Key}
				}
				data.ActiveKeys[n.Key.Key] = n.ContractID
			}

		case ir.FetchNode[ir.EventID]:
			data.recordReference(n.ContractID, frame.event)

		case ir.ExerciseNode[ir.EventID]:
			data.recordReference(n.TargetID, frame.event)
			if n.Consuming {
				consume(data, n.TargetID, frame.event)
			}
			parent := frame.event
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, commitFrame{event: n.Children[i], parent: &parent})
			}

		case ir.LookupByKeyNode[ir.EventID]:
			if n.Result != nil {
				data.recordReference(*n.Result, frame.event)
			}

		default:
			crash("commit: unknown node kind %T", node)
		}
	}

	applyObservers(step, rtx, data)
	return data, nil
}

// consume marks the target contract consumed by the given exercise:
// removed from the active set, consumer link set, and its key (if any)
// released.
func consume(data *LedgerData, target ir.ContractID, consumer ir.EventID) {
	eid, info := data.createInfo(target)
	if info.Consumer != nil {
		crash("contract %s consumed twice (%s, then %s)", target, *info.Consumer, consumer)
	}
	create, ok := info.Node.(ir.CreateNode[ir.EventID])
	if !ok {
		crash("contract %s indexed at %s which is not a create", target, eid)
	}
	info.Consumer = &consumer
	delete(data.ActiveContracts, target)
	if create.Key != nil {
		delete(data.ActiveKeys, create.Key.Key)
	}
}

// applyObservers rewrites the global implicit disclosure to event ids and
// folds the union of all three disclosure relations into observer onsets.
// A party already observing keeps its earlier onset; step ids only move
// earlier in step order, never later.
func applyObservers(step ir.StepID, rtx *RichTransaction, data *LedgerData) {
	observe := func(event ir.EventID, parties ir.PartySet) {
		info, ok := data.Nodes[event]
		if !ok {
			crash("observer fold: missing node info for %s", event)
		}
		for p := range parties {
			if _, seen := info.ObservingSince[p]; !seen {
				info.ObservingSince[p] = step
			}
		}
	}

	for event, parties := range rtx.ExplicitDisclosure {
		observe(event, parties)
	}
	for event, parties := range rtx.LocalImplicitDisclosure {
		observe(event, parties)
	}
	for coid, parties := range rtx.GlobalImplicitDisclosure {
		event, _ := data.createInfo(coid)
		observe(event, parties)
	}
}
