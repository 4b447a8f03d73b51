package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContractIDs_Leaves(t *testing.T) {
	// Every leaf kind without contract ids contributes nothing.
	leaves := []struct {
		desc  string
		value Value
	}{
		{"unit", ValueUnit{}},
		{"bool", ValueBool(true)},
		{"int64", ValueInt64(42)},
		{"numeric", ValueNumeric("3.1400000000")},
		{"text", ValueText("hello")},
		{"date", ValueDate(18262)},
		{"timestamp", ValueTimestamp(1596000000000000)},
		{"party", ValueParty("Alice")},
		{"enum", ValueEnum{Constructor: "Red"}},
		{"none", ValueOptional{}},
	}
	for _, tc := range leaves {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Empty(t, ContractIDs(tc.value))
		})
	}

	assert.Equal(t, NewContractIDSet("cid-1"), ContractIDs(ValueContractID("cid-1")))
}

func TestContractIDs_Composites(t *testing.T) {
	// Contract ids hide in records, variants, lists, optionals, text maps,
	// and on BOTH sides of general maps.
	v := ValueRecord{Fields: []RecordField{
		{Label: "owner", Value: ValueParty("Alice")},
		{Label: "self", Value: ValueContractID("cid-1")},
		{Label: "friend", Value: ValueOptional{Value: ValueContractID("cid-2")}},
		{Label: "history", Value: ValueList{
			ValueVariant{Constructor: "Ref", Value: ValueContractID("cid-3")},
			ValueInt64(7),
		}},
		{Label: "byName", Value: ValueTextMap{
			{Key: "first", Value: ValueContractID("cid-4")},
		}},
		{Label: "byRef", Value: ValueGenMap{
			{Key: ValueContractID("cid-5"), Value: ValueContractID("cid-6")},
		}},
	}}

	assert.Equal(t,
		NewContractIDSet("cid-1", "cid-2", "cid-3", "cid-4", "cid-5", "cid-6"),
		ContractIDs(v))
}

func TestContractIDs_DeepNesting(t *testing.T) {
	// The walker uses an explicit stack; deep nesting must not overflow.
	v := Value(ValueContractID("cid-deep"))
	for i := 0; i < 100000; i++ {
		v = ValueOptional{Value: v}
	}
	assert.Equal(t, NewContractIDSet("cid-deep"), ContractIDs(v))
}

func TestCollectContractIDs_Accumulates(t *testing.T) {
	into := NewContractIDSet("cid-existing")
	CollectContractIDs(ValueContractID("cid-new"), into)
	assert.Equal(t, NewContractIDSet("cid-existing", "cid-new"), into)
}
