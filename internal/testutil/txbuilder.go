package testutil

import (
	"github.com/roach88/slate/internal/ir"
)

// TxBuilder assembles transaction forests for tests. Node ids are assigned
// in registration order, which keeps trees readable: register children
// first, then the exercise that lists them.
type TxBuilder struct {
	roots []ir.NodeID
	nodes map[ir.NodeID]ir.Node[ir.NodeID]
	next  ir.NodeID
}

// NewTxBuilder returns an empty builder.
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{nodes: make(map[ir.NodeID]ir.Node[ir.NodeID])}
}

// Root registers n as the next root and returns its node id.
func (b *TxBuilder) Root(n ir.Node[ir.NodeID]) ir.NodeID {
	id := b.Node(n)
	b.roots = append(b.roots, id)
	return id
}

// Node registers n without making it a root. Use for exercise children:
// register the child, then reference its id in the parent's child list.
func (b *TxBuilder) Node(n ir.Node[ir.NodeID]) ir.NodeID {
	id := b.next
	b.next++
	b.nodes[id] = n
	return id
}

// Build returns the assembled transaction.
func (b *TxBuilder) Build() ir.Transaction {
	return ir.Transaction{Roots: b.roots, Nodes: b.nodes}
}

// Create returns a create node with the common fields set.
func Create(coid ir.ContractID, template ir.TemplateID, signatories, stakeholders []ir.Party) ir.CreateNode[ir.NodeID] {
	return ir.CreateNode[ir.NodeID]{
		ContractID:   coid,
		Instance:     ir.ContractInstance{Template: template, Arg: ir.ValueUnit{}},
		Signatories:  ir.NewPartySet(signatories...),
		Stakeholders: ir.NewPartySet(stakeholders...),
	}
}

// Fetch returns a fetch node.
func Fetch(coid ir.ContractID, template ir.TemplateID, stakeholders []ir.Party) ir.FetchNode[ir.NodeID] {
	return ir.FetchNode[ir.NodeID]{
		ContractID:   coid,
		Template:     template,
		Stakeholders: ir.NewPartySet(stakeholders...),
	}
}

// Exercise returns an exercise node. Pass children ids from prior Node
// calls; nil means a leaf exercise.
func Exercise(target ir.ContractID, template ir.TemplateID, choice ir.ChoiceName, actors, signatories, stakeholders []ir.Party, consuming bool, children []ir.NodeID) ir.ExerciseNode[ir.NodeID] {
	return ir.ExerciseNode[ir.NodeID]{
		TargetID:      target,
		Template:      template,
		Choice:        choice,
		Consuming:     consuming,
		ActingParties: ir.NewPartySet(actors...),
		Signatories:   ir.NewPartySet(signatories...),
		Stakeholders:  ir.NewPartySet(stakeholders...),
		Children:      children,
	}
}

// LookupByKey returns a key lookup node; result may be empty for a
// negative lookup.
func LookupByKey(template ir.TemplateID, key ir.GlobalKey, maintainers []ir.Party, result ir.ContractID) ir.LookupByKeyNode[ir.NodeID] {
	n := ir.LookupByKeyNode[ir.NodeID]{
		Template:    template,
		Key:         key,
		Maintainers: ir.NewPartySet(maintainers...),
	}
	if result != "" {
		n.Result = &result
	}
	return n
}

// Keyed attaches a key with maintainers to a create node.
func Keyed(n ir.CreateNode[ir.NodeID], key ir.GlobalKey, maintainers ...ir.Party) ir.CreateNode[ir.NodeID] {
	n.Key = &ir.KeyWithMaintainers{Key: key, Maintainers: ir.NewPartySet(maintainers...)}
	return n
}

// TextKey builds a global key from a bare text value.
func TextKey(template ir.TemplateID, text string) ir.GlobalKey {
	key, err := ir.NewGlobalKey(template, ir.ValueText(text))
	if err != nil {
		panic(err)
	}
	return key
}
