package ledger

import (
	"github.com/roach88/slate/internal/ir"
)

// EnrichedTransaction augments a transaction tree with the relations the
// commit processor folds into the index. The tree itself is unchanged.
type EnrichedTransaction struct {
	Tx ir.Transaction

	// Disclosures maps each node to the parties entitled to see it.
	Disclosures map[ir.NodeID]ir.PartySet

	// LocalDivulgences maps nodes to parties that learn of them implicitly
	// within this transaction. The traversal below never populates it; the
	// relation exists because the rich transaction and the commit fold carry
	// it alongside the other two.
	LocalDivulgences map[ir.NodeID]ir.PartySet

	// GlobalDivulgences maps contract ids to parties that learn of them by
	// witnessing a parent node that referenced them.
	GlobalDivulgences map[ir.ContractID]ir.PartySet

	// FailedAuthorizations records, first-wins per node, the authorization
	// failures found during the traversal. Empty under DontAuthorize.
	FailedAuthorizations map[ir.NodeID]FailedAuthorization
}

// enrichFrame is one unit of pre-order work: a node together with the
// witness set and authorization mode in force when it is entered.
type enrichFrame struct {
	node      ir.NodeID
	witnesses ir.PartySet
	mode      AuthorizationMode
}

// EnrichTransaction runs the single top-down traversal that computes
// disclosures, divulgences, and authorization failures for a whole
// transaction.
//
// Roots are visited in order, exercise children in child-list order. The
// parent-exercise witness set starts as the authorizer set under Authorize
// and empty under DontAuthorize; entering an exercise extends the witness
// set with the exercise's informees and, under Authorize, replaces the
// authorizer set for the subtree with signatories union acting parties.
//
// The traversal is iterative with an explicit work stack so long exercise
// chains cannot exhaust the call stack. Enrichment is idempotent: re-running
// it over the same tree yields identical relations and failures.
func EnrichTransaction(tx ir.Transaction, mode AuthorizationMode) EnrichedTransaction {
	out := EnrichedTransaction{
		Tx:                   tx,
		Disclosures:          make(map[ir.NodeID]ir.PartySet),
		LocalDivulgences:     make(map[ir.NodeID]ir.PartySet),
		GlobalDivulgences:    make(map[ir.ContractID]ir.PartySet),
		FailedAuthorizations: make(map[ir.NodeID]FailedAuthorization),
	}

	rootWitnesses := ir.NewPartySet()
	if auth, ok := mode.(Authorize); ok {
		rootWitnesses = auth.Authorizers.Clone()
	}

	var stack []enrichFrame
	pushFrames(&stack, tx.Roots, rootWitnesses, mode)

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := tx.Nodes[frame.node]
		if !ok {
			crash("enrich: transaction refers to missing node %d", frame.node)
		}

		switch n := node.(type) {
		case ir.CreateNode[ir.NodeID]:
			out.recordFailures(frame.node, authorizeNode(frame.mode, n))
			out.disclose(frame.node, frame.witnesses.Union(n.Stakeholders))

		case ir.FetchNode[ir.NodeID]:
			out.disclose(frame.node, frame.witnesses.Union(n.Stakeholders))
			out.divulge(n.ContractID, frame.witnesses.Minus(n.Stakeholders))
			out.recordFailures(frame.node, authorizeNode(frame.mode, n))

		case ir.ExerciseNode[ir.NodeID]:
			out.recordFailures(frame.node, authorizeNode(frame.mode, n))
			informees := n.Signatories.Union(n.ActingParties)
			witnesses := frame.witnesses.Union(informees)
			out.disclose(frame.node, witnesses)
			out.divulge(n.TargetID, frame.witnesses.Minus(n.Stakeholders))

			childMode := frame.mode
			if _, ok := frame.mode.(Authorize); ok {
				childMode = Authorize{Authorizers: informees}
			}
			pushFrames(&stack, n.Children, witnesses, childMode)

		case ir.LookupByKeyNode[ir.NodeID]:
			out.recordFailures(frame.node, authorizeNode(frame.mode, n))
			out.disclose(frame.node, frame.witnesses.Union(n.Maintainers))

		default:
			crash("enrich: unknown node kind %T", node)
		}
	}

	return out
}

// pushFrames schedules nodes in reverse so the stack pops them in order.
func pushFrames(stack *[]enrichFrame, nodes []ir.NodeID, witnesses ir.PartySet, mode AuthorizationMode) {
	for i := len(nodes) - 1; i >= 0; i-- {
		*stack = append(*stack, enrichFrame{
			node:      nodes[i],
			witnesses: witnesses,
			mode:      mode,
		})
	}
}

// disclose unions witnesses into the node's disclosure set. Disclosure is
// cumulative: a re-visited node id unions rather than overwrites.
func (e *EnrichedTransaction) disclose(node ir.NodeID, witnesses ir.PartySet) {
	if existing, ok := e.Disclosures[node]; ok {
		e.Disclosures[node] = existing.Union(witnesses)
		return
	}
	e.Disclosures[node] = witnesses
}

// divulge unions parties into the contract's global divulgence set. The
// relation only ever grows as the traversal proceeds.
func (e *EnrichedTransaction) divulge(coid ir.ContractID, parties ir.PartySet) {
	if parties.IsEmpty() {
		return
	}
	if existing, ok := e.GlobalDivulgences[coid]; ok {
		e.GlobalDivulgences[coid] = existing.Union(parties)
		return
	}
	e.GlobalDivulgences[coid] = parties
}

// recordFailures stores the node's failures first-wins: a failure already
// recorded for the node id stays intact.
func (e *EnrichedTransaction) recordFailures(node ir.NodeID, failures []FailedAuthorization) {
	for _, f := range failures {
		if _, ok := e.FailedAuthorizations[node]; ok {
			return
		}
		e.FailedAuthorizations[node] = f
	}
}
