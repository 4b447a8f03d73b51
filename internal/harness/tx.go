package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/slate/internal/ir"
)

// buildTransaction converts a commit spec's node list into a transaction
// forest. Validation has already checked ids and cross-references; this
// conversion only fails on malformed values or keys.
func buildTransaction(spec *CommitSpec) (ir.Transaction, error) {
	nodes := make(map[ir.NodeID]ir.Node[ir.NodeID], len(spec.Nodes))
	for _, ns := range spec.Nodes {
		node, err := buildNode(ns)
		if err != nil {
			return ir.Transaction{}, fmt.Errorf("node %d: %w", ns.ID, err)
		}
		nodes[ir.NodeID(ns.ID)] = node
	}

	roots := make([]ir.NodeID, len(spec.Roots))
	for i, r := range spec.Roots {
		roots[i] = ir.NodeID(r)
	}
	return ir.Transaction{Roots: roots, Nodes: nodes}, nil
}

func buildNode(ns NodeSpec) (ir.Node[ir.NodeID], error) {
	switch ns.Kind {
	case KindCreate:
		arg := ir.Value(ir.ValueUnit{})
		if ns.Arg != nil {
			converted, err := valueFromYAML(ns.Arg)
			if err != nil {
				return nil, fmt.Errorf("arg: %w", err)
			}
			arg = converted
		}
		node := ir.CreateNode[ir.NodeID]{
			ContractID:   ir.ContractID(ns.Contract),
			Instance:     ir.ContractInstance{Template: ir.TemplateID(ns.Template), Arg: arg},
			Signatories:  partySet(ns.Signatories),
			Stakeholders: partySet(ns.Stakeholders),
		}
		if ns.Key != nil {
			key, err := ir.NewGlobalKey(ir.TemplateID(ns.Template), ir.ValueText(ns.Key.Text))
			if err != nil {
				return nil, fmt.Errorf("key: %w", err)
			}
			node.Key = &ir.KeyWithMaintainers{Key: key, Maintainers: partySet(ns.Key.Maintainers)}
		}
		return node, nil

	case KindFetch:
		return ir.FetchNode[ir.NodeID]{
			ContractID:   ir.ContractID(ns.Contract),
			Template:     ir.TemplateID(ns.Template),
			Stakeholders: partySet(ns.Stakeholders),
		}, nil

	case KindExercise:
		children := make([]ir.NodeID, len(ns.Children))
		for i, c := range ns.Children {
			children[i] = ir.NodeID(c)
		}
		return ir.ExerciseNode[ir.NodeID]{
			TargetID:                    ir.ContractID(ns.Contract),
			Template:                    ir.TemplateID(ns.Template),
			Choice:                      ir.ChoiceName(ns.Choice),
			Consuming:                   ns.Consuming,
			ActingParties:               partySet(ns.Actors),
			Signatories:                 partySet(ns.Signatories),
			Stakeholders:                partySet(ns.Stakeholders),
			ControllersDifferFromActors: ns.ControllersDifferFromActors,
			Children:                    children,
		}, nil

	case KindLookupByKey:
		key, err := ir.NewGlobalKey(ir.TemplateID(ns.Template), ir.ValueText(ns.Key.Text))
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		node := ir.LookupByKeyNode[ir.NodeID]{
			Template:    ir.TemplateID(ns.Template),
			Key:         key,
			Maintainers: partySet(ns.Maintainers),
		}
		if ns.Found != "" {
			coid := ir.ContractID(ns.Found)
			node.Result = &coid
		}
		return node, nil

	default:
		return nil, fmt.Errorf("invalid kind %q", ns.Kind)
	}
}

func partySet(names []string) ir.PartySet {
	s := make(ir.PartySet, len(names))
	for _, n := range names {
		s[ir.Party(n)] = struct{}{}
	}
	return s
}

// valueFromYAML converts a decoded YAML value into an ir.Value. Strings,
// integers, and booleans map to the matching leaves; sequences to lists;
// mappings to records with fields in sorted label order. The single-field
// mapping {contract: <id>} denotes a contract-id leaf, which is how a
// scenario embeds contract ids inside instance arguments. Floats are
// rejected.
func valueFromYAML(v any) (ir.Value, error) {
	switch val := v.(type) {
	case string:
		return ir.ValueText(val), nil
	case int:
		return ir.ValueInt64(int64(val)), nil
	case int64:
		return ir.ValueInt64(val), nil
	case bool:
		return ir.ValueBool(val), nil
	case []any:
		list := make(ir.ValueList, len(val))
		for i, elem := range val {
			converted, err := valueFromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	case map[string]any:
		if coid, ok := contractIDLeaf(val); ok {
			return ir.ValueContractID(coid), nil
		}
		labels := make([]string, 0, len(val))
		for k := range val {
			labels = append(labels, k)
		}
		slices.Sort(labels)
		record := ir.ValueRecord{Fields: make([]ir.RecordField, 0, len(val))}
		for _, label := range labels {
			converted, err := valueFromYAML(val[label])
			if err != nil {
				return nil, fmt.Errorf("%q: %w", label, err)
			}
			record.Fields = append(record.Fields, ir.RecordField{Label: label, Value: converted})
		}
		return record, nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in scenario values: %v", val)
	case nil:
		return nil, fmt.Errorf("null is forbidden in scenario values")
	default:
		return nil, fmt.Errorf("unsupported scenario value type %T", v)
	}
}

// contractIDLeaf recognizes the {contract: <id>} shape.
func contractIDLeaf(m map[string]any) (ir.ContractID, bool) {
	if len(m) != 1 {
		return "", false
	}
	raw, ok := m["contract"]
	if !ok {
		return "", false
	}
	coid, ok := raw.(string)
	return ir.ContractID(coid), ok
}
