package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines one ledger test scenario: a sequence of steps executed
// against a fresh ledger, plus assertions over the final state. The YAML
// form of a scenario is what `slate run` and `slate validate` consume.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartTime is the ledger's initial clock, RFC 3339. Defaults to the
	// Unix epoch when empty.
	StartTime string `yaml:"start_time,omitempty"`

	// RunToken is an optional fixed run token for deterministic tests.
	// If empty, a uuidv7 token is generated per run; golden tests should
	// pin one.
	RunToken string `yaml:"run_token,omitempty"`

	// Steps is the ordered step list.
	Steps []ScenarioStep `yaml:"steps"`

	// Assertions validate the final ledger state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ScenarioStep is one step; exactly one of the four fields is set.
type ScenarioStep struct {
	Commit   *CommitSpec   `yaml:"commit,omitempty"`
	PassTime *PassTimeSpec `yaml:"pass_time,omitempty"`
	MustFail *MustFailSpec `yaml:"must_fail,omitempty"`
	Lookup   *LookupSpec   `yaml:"lookup,omitempty"`
}

// CommitSpec submits a transaction forest.
type CommitSpec struct {
	// Committer is the party whose authority the commit runs under.
	Committer string `yaml:"committer"`

	// Roots lists root node ids in execution order.
	Roots []int `yaml:"roots"`

	// Nodes is the forest's node list; ids must be unique.
	Nodes []NodeSpec `yaml:"nodes"`

	// EffectiveOffsetMicros shifts the transaction's effective time
	// relative to the ledger clock. Zero means effective now.
	EffectiveOffsetMicros int64 `yaml:"effective_offset_micros,omitempty"`

	// Expect is the expected outcome: "success" (default),
	// "failed_authorizations", or "unique_key_violation".
	Expect string `yaml:"expect,omitempty"`
}

// Commit expectation constants.
const (
	ExpectSuccess              = "success"
	ExpectFailedAuthorizations = "failed_authorizations"
	ExpectUniqueKeyViolation   = "unique_key_violation"
)

// NodeSpec is the YAML form of one transaction node. Kind selects the
// variant; the other fields apply per kind.
type NodeSpec struct {
	ID   int    `yaml:"id"`
	Kind string `yaml:"kind"` // "create", "fetch", "exercise", "lookup_by_key"

	Contract     string   `yaml:"contract,omitempty"`
	Template     string   `yaml:"template,omitempty"`
	Signatories  []string `yaml:"signatories,omitempty"`
	Stakeholders []string `yaml:"stakeholders,omitempty"`

	// Arg is the create's instance argument; see valueFromYAML for the
	// accepted shapes.
	Arg any `yaml:"arg,omitempty"`

	// Key declares a contract key (create, lookup_by_key).
	Key *KeySpec `yaml:"key,omitempty"`

	// Exercise fields.
	Choice                      string `yaml:"choice,omitempty"`
	Actors                      []string `yaml:"actors,omitempty"`
	Consuming                   bool   `yaml:"consuming,omitempty"`
	ControllersDifferFromActors bool   `yaml:"controllers_differ_from_actors,omitempty"`
	Children                    []int  `yaml:"children,omitempty"`

	// Lookup fields. Found names the contract a positive lookup resolved;
	// empty means negative.
	Maintainers []string `yaml:"maintainers,omitempty"`
	Found       string   `yaml:"found,omitempty"`
}

// Node kind constants.
const (
	KindCreate      = "create"
	KindFetch       = "fetch"
	KindExercise    = "exercise"
	KindLookupByKey = "lookup_by_key"
)

// KeySpec is the YAML form of a contract key: a text key value plus, on
// creates, the maintainer parties.
type KeySpec struct {
	Text        string   `yaml:"text"`
	Maintainers []string `yaml:"maintainers,omitempty"`
}

// PassTimeSpec advances the ledger clock.
type PassTimeSpec struct {
	Micros int64 `yaml:"micros"`
}

// MustFailSpec appends an assert-must-fail step.
type MustFailSpec struct {
	Actor string `yaml:"actor"`
}

// LookupSpec queries a contract through a view.
type LookupSpec struct {
	// View is "operator" or a party name.
	View string `yaml:"view"`

	Contract string `yaml:"contract"`

	// OffsetMicros shifts the queried effective time relative to the
	// ledger clock.
	OffsetMicros int64 `yaml:"offset_micros,omitempty"`

	// Expect is the expected outcome: "ok", "not_found", "not_effective",
	// "not_active", or "not_visible".
	Expect string `yaml:"expect"`
}

// Lookup outcome constants, shared by expectations and trace events.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeNotEffective = "not_effective"
	OutcomeNotActive    = "not_active"
	OutcomeNotVisible   = "not_visible"
)

// Assertion validates the final ledger state.
type Assertion struct {
	// Type is one of the Assert* constants below.
	Type string `yaml:"type"`

	// Contracts is the exact expected active set (active_contracts).
	Contracts []string `yaml:"contracts,omitempty"`

	// Template + Key + Contract locate an active-key binding (active_key)
	// or, without Contract, assert the key is free.
	Template string `yaml:"template,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Contract string `yaml:"contract,omitempty"`

	// Event names the consuming exercise (consumed_by).
	Event string `yaml:"event,omitempty"`

	// Party + Step assert an observer onset (observer_since).
	Party string `yaml:"party,omitempty"`
	Step  int    `yaml:"step,omitempty"`
}

// Assertion type constants.
const (
	AssertActiveContracts = "active_contracts"
	AssertActiveKey       = "active_key"
	AssertConsumedBy      = "consumed_by"
	AssertObserverSince   = "observer_since"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly; required fields are validated before the
// scenario can run.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and cross-references.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.StartTime != "" {
		if _, err := time.Parse(time.RFC3339, s.StartTime); err != nil {
			return fmt.Errorf("start_time: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step ScenarioStep) error {
	set := 0
	if step.Commit != nil {
		set++
	}
	if step.PassTime != nil {
		set++
	}
	if step.MustFail != nil {
		set++
	}
	if step.Lookup != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of commit, pass_time, must_fail, lookup is required")
	}

	switch {
	case step.Commit != nil:
		return validateCommit(step.Commit)
	case step.MustFail != nil:
		if step.MustFail.Actor == "" {
			return fmt.Errorf("must_fail: actor is required")
		}
	case step.Lookup != nil:
		return validateLookup(step.Lookup)
	}
	return nil
}

func validateCommit(c *CommitSpec) error {
	if c.Committer == "" {
		return fmt.Errorf("commit: committer is required")
	}
	if len(c.Nodes) == 0 {
		return fmt.Errorf("commit: nodes list is required and must be non-empty")
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("commit: roots list is required and must be non-empty")
	}
	switch c.Expect {
	case "", ExpectSuccess, ExpectFailedAuthorizations, ExpectUniqueKeyViolation:
	default:
		return fmt.Errorf("commit: invalid expect %q", c.Expect)
	}

	ids := make(map[int]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("commit: nodes[%d]: duplicate node id %d", i, n.ID)
		}
		ids[n.ID] = true
		if err := validateNode(n); err != nil {
			return fmt.Errorf("commit: nodes[%d]: %w", i, err)
		}
	}
	for _, r := range c.Roots {
		if !ids[r] {
			return fmt.Errorf("commit: root %d names no node", r)
		}
	}
	for _, n := range c.Nodes {
		for _, child := range n.Children {
			if !ids[child] {
				return fmt.Errorf("commit: node %d: child %d names no node", n.ID, child)
			}
		}
	}
	return nil
}

func validateNode(n NodeSpec) error {
	switch n.Kind {
	case KindCreate, KindFetch:
		if n.Contract == "" {
			return fmt.Errorf("%s: contract is required", n.Kind)
		}
	case KindExercise:
		if n.Contract == "" {
			return fmt.Errorf("exercise: contract is required")
		}
		if n.Choice == "" {
			return fmt.Errorf("exercise: choice is required")
		}
	case KindLookupByKey:
		if n.Key == nil {
			return fmt.Errorf("lookup_by_key: key is required")
		}
	default:
		return fmt.Errorf("invalid kind %q", n.Kind)
	}
	if n.Template == "" {
		return fmt.Errorf("%s: template is required", n.Kind)
	}
	return nil
}

func validateLookup(l *LookupSpec) error {
	if l.View == "" {
		return fmt.Errorf("lookup: view is required")
	}
	if l.Contract == "" {
		return fmt.Errorf("lookup: contract is required")
	}
	switch l.Expect {
	case OutcomeOK, OutcomeNotFound, OutcomeNotEffective, OutcomeNotActive, OutcomeNotVisible:
		return nil
	default:
		return fmt.Errorf("lookup: invalid expect %q", l.Expect)
	}
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertActiveContracts:
	case AssertActiveKey:
		if a.Template == "" || a.Key == "" {
			return fmt.Errorf("active_key: template and key are required")
		}
	case AssertConsumedBy:
		if a.Contract == "" || a.Event == "" {
			return fmt.Errorf("consumed_by: contract and event are required")
		}
	case AssertObserverSince:
		if a.Contract == "" || a.Party == "" {
			return fmt.Errorf("observer_since: contract and party are required")
		}
	default:
		return fmt.Errorf("invalid assertion type %q", a.Type)
	}
	return nil
}

// startTime resolves the scenario's initial clock.
func (s *Scenario) startTime() time.Time {
	if s.StartTime == "" {
		return time.Unix(0, 0).UTC()
	}
	t, err := time.Parse(time.RFC3339, s.StartTime)
	if err != nil {
		// validateScenario already accepted it.
		panic(err)
	}
	return t.UTC()
}
