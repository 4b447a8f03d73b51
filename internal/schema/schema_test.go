package schema

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_Valid(t *testing.T) {
	err := ValidateDocument([]byte(`
name: demo
description: a minimal commit
steps:
  - commit:
      committer: Alice
      roots: [0]
      nodes:
        - id: 0
          kind: create
          contract: cid-1
          template: Iou
          signatories: [Alice]
          stakeholders: [Alice]
  - lookup:
      view: operator
      contract: cid-1
      expect: ok
assertions:
  - type: active_contracts
    contracts: [cid-1]
`))
	assert.NoError(t, err)
}

func TestValidateDocument_HarnessTestdata(t *testing.T) {
	data, err := os.ReadFile("../harness/testdata/iou_lifecycle.yaml")
	require.NoError(t, err)
	assert.NoError(t, ValidateDocument(data))
}

func TestValidateDocument_Invalid(t *testing.T) {
	cases := []struct {
		desc string
		yaml string
	}{
		{
			"bad node kind",
			`
name: n
description: d
steps:
  - commit:
      committer: A
      roots: [0]
      nodes:
        - {id: 0, kind: explode, template: T}
`,
		},
		{
			"bad lookup expect",
			`
name: n
description: d
steps:
  - lookup: {view: operator, contract: c, expect: maybe}
`,
		},
		{
			"unknown step field",
			`
name: n
description: d
steps:
  - sleep: {micros: 1}
`,
		},
		{
			"negative node id",
			`
name: n
description: d
steps:
  - commit:
      committer: A
      roots: [0]
      nodes:
        - {id: -1, kind: fetch, contract: c, template: T}
`,
		},
		{
			"empty steps",
			"name: n\ndescription: d\nsteps: []\n",
		},
		{
			"missing description",
			"name: n\nsteps:\n  - pass_time: {micros: 1}\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := ValidateDocument([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestValidateDocument_NotYAML(t *testing.T) {
	err := ValidateDocument([]byte("\tnot: [valid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}
