package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slate/internal/ir"
)

func TestValueFromYAML(t *testing.T) {
	cases := []struct {
		desc string
		in   any
		want ir.Value
	}{
		{"string", "hi", ir.ValueText("hi")},
		{"int", 7, ir.ValueInt64(7)},
		{"bool", true, ir.ValueBool(true)},
		{"list", []any{"a", 1}, ir.ValueList{ir.ValueText("a"), ir.ValueInt64(1)}},
		{"contract leaf", map[string]any{"contract": "cid-1"}, ir.ValueContractID("cid-1")},
		{"record sorted", map[string]any{"b": 2, "a": 1}, ir.ValueRecord{Fields: []ir.RecordField{
			{Label: "a", Value: ir.ValueInt64(1)},
			{Label: "b", Value: ir.ValueInt64(2)},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := valueFromYAML(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValueFromYAML_Rejected(t *testing.T) {
	_, err := valueFromYAML(3.14)
	assert.Error(t, err)

	_, err = valueFromYAML(nil)
	assert.Error(t, err)

	_, err = valueFromYAML(map[string]any{"x": 1.5})
	assert.Error(t, err)
}

func TestBuildTransaction_ExerciseChildren(t *testing.T) {
	spec := &CommitSpec{
		Committer: "Alice",
		Roots:     []int{1},
		Nodes: []NodeSpec{
			{ID: 0, Kind: KindFetch, Contract: "c", Template: "T", Stakeholders: []string{"Alice"}},
			{ID: 1, Kind: KindExercise, Contract: "c", Template: "T", Choice: "X",
				Actors: []string{"Alice"}, Children: []int{0}},
		},
	}
	tx, err := buildTransaction(spec)
	require.NoError(t, err)

	ex := tx.Nodes[1].(ir.ExerciseNode[ir.NodeID])
	assert.Equal(t, []ir.NodeID{0}, ex.Children)
	assert.Equal(t, []ir.NodeID{1}, tx.Roots)
}

func TestBuildTransaction_NegativeLookup(t *testing.T) {
	spec := &CommitSpec{
		Committer: "Alice",
		Roots:     []int{0},
		Nodes: []NodeSpec{
			{ID: 0, Kind: KindLookupByKey, Template: "T",
				Key: &KeySpec{Text: "k"}, Maintainers: []string{"Alice"}},
		},
	}
	tx, err := buildTransaction(spec)
	require.NoError(t, err)

	lookup := tx.Nodes[0].(ir.LookupByKeyNode[ir.NodeID])
	assert.Nil(t, lookup.Result)
	assert.Equal(t, ir.TemplateID("T"), lookup.Key.Template)
}
