package harness

import (
	"github.com/roach88/slate/internal/ir"
	"github.com/roach88/slate/internal/ledger"
)

// evaluateAssertions checks each assertion against the final ledger and
// records failures on the result. All assertions run; the first failure
// does not short-circuit the rest.
func evaluateAssertions(l *ledger.Ledger, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		switch a.Type {
		case AssertActiveContracts:
			assertActiveContracts(l, i, a, result)
		case AssertActiveKey:
			assertActiveKey(l, i, a, result)
		case AssertConsumedBy:
			assertConsumedBy(l, i, a, result)
		case AssertObserverSince:
			assertObserverSince(l, i, a, result)
		}
	}
}

// assertActiveContracts compares the exact active set.
func assertActiveContracts(l *ledger.Ledger, i int, a Assertion, result *Result) {
	want := make(ir.ContractIDSet, len(a.Contracts))
	for _, c := range a.Contracts {
		want.Add(ir.ContractID(c))
	}
	got := l.Data().ActiveContracts
	if len(got) != len(want) {
		result.AddError("assertions[%d] active_contracts: expected %v, got %v",
			i, want.ContractIDs(), got.ContractIDs())
		return
	}
	for c := range want {
		if !got.Contains(c) {
			result.AddError("assertions[%d] active_contracts: expected %v, got %v",
				i, want.ContractIDs(), got.ContractIDs())
			return
		}
	}
}

// assertActiveKey checks a key binding; with an empty contract field the
// assertion is that the key is free.
func assertActiveKey(l *ledger.Ledger, i int, a Assertion, result *Result) {
	key, err := ir.NewGlobalKey(ir.TemplateID(a.Template), ir.ValueText(a.Key))
	if err != nil {
		result.AddError("assertions[%d] active_key: %v", i, err)
		return
	}
	coid, bound := l.Data().ActiveKeys[key]
	switch {
	case a.Contract == "" && bound:
		result.AddError("assertions[%d] active_key: expected key %q free, bound to %s",
			i, a.Key, coid)
	case a.Contract != "" && !bound:
		result.AddError("assertions[%d] active_key: expected key %q bound to %s, but it is free",
			i, a.Key, a.Contract)
	case a.Contract != "" && coid != ir.ContractID(a.Contract):
		result.AddError("assertions[%d] active_key: expected key %q bound to %s, bound to %s",
			i, a.Key, a.Contract, coid)
	}
}

// assertConsumedBy checks the consumer link of a contract's create.
func assertConsumedBy(l *ledger.Ledger, i int, a Assertion, result *Result) {
	info := findCreateInfo(l, a.Contract)
	if info == nil {
		result.AddError("assertions[%d] consumed_by: contract %s not found", i, a.Contract)
		return
	}
	if info.Consumer == nil {
		result.AddError("assertions[%d] consumed_by: contract %s is not consumed", i, a.Contract)
		return
	}
	if info.Consumer.String() != a.Event {
		result.AddError("assertions[%d] consumed_by: contract %s consumed by %s, expected %s",
			i, a.Contract, info.Consumer, a.Event)
	}
}

// assertObserverSince checks a party's observation onset on a create.
func assertObserverSince(l *ledger.Ledger, i int, a Assertion, result *Result) {
	info := findCreateInfo(l, a.Contract)
	if info == nil {
		result.AddError("assertions[%d] observer_since: contract %s not found", i, a.Contract)
		return
	}
	onset, ok := info.ObservingSince[ir.Party(a.Party)]
	if !ok {
		result.AddError("assertions[%d] observer_since: %s never observed %s",
			i, a.Party, a.Contract)
		return
	}
	if onset != ir.StepID(a.Step) {
		result.AddError("assertions[%d] observer_since: %s observed %s since step %s, expected %d",
			i, a.Party, a.Contract, onset.Text(), a.Step)
	}
}

func findCreateInfo(l *ledger.Ledger, contract string) *ledger.NodeInfo {
	eid, ok := l.Data().ContractEvents[ir.ContractID(contract)]
	if !ok {
		return nil
	}
	return l.Data().Nodes[eid]
}
