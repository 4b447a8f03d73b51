// Package schema validates scenario documents against an embedded CUE
// schema. The harness's own Go-side validation catches what it needs to
// run; the CUE pass is the user-facing one - it rejects structural
// mistakes (wrong enum values, misplaced fields, negative ids) with
// positioned messages before anything executes.
package schema

import (
	"bytes"
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var scenarioCUE string

// ValidationError reports a scenario document that does not satisfy the
// schema. Details lists one message per violation.
type ValidationError struct {
	Details []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Details) == 1 {
		return fmt.Sprintf("scenario does not match schema: %s", e.Details[0])
	}
	return fmt.Sprintf("scenario does not match schema (%d violations): %s",
		len(e.Details), e.Details[0])
}

// ValidateDocument checks YAML scenario bytes against the #Scenario
// definition. A nil return means the document is structurally valid; the
// harness still performs its own cross-reference checks (root ids, child
// ids) at load time.
func ValidateDocument(data []byte) error {
	var doc any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioCUE)
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a build defect.
		return fmt.Errorf("internal: scenario schema does not compile: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if !def.Exists() {
		return fmt.Errorf("internal: scenario schema has no #Scenario definition")
	}

	unified := def.Unify(ctx.Encode(doc))
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		details := make([]string, 0, 4)
		for _, e := range cueerrors.Errors(err) {
			details = append(details, e.Error())
		}
		return &ValidationError{Details: details}
	}
	return nil
}
