package ir

// Node is a sealed interface over the four transaction node kinds. The type
// parameter is the node-reference type: NodeID inside an uncommitted
// transaction tree, EventID after commit. Only exercise nodes carry
// references (their child list); the parameter rides along on the other
// variants so a whole tree shares one reference type.
type Node[ID comparable] interface {
	node() // Sealed - only the four node kinds implement it
}

// ContractInstance is the payload of a create node: the template plus the
// argument value, which may itself contain contract ids.
type ContractInstance struct {
	Template TemplateID `json:"template"`
	Arg      Value      `json:"-"`
}

// GlobalKey identifies a contract key across the whole ledger: the template
// scoped with the canonical text of the key value. Two keys are the same
// exactly when their canonical texts match.
type GlobalKey struct {
	Template TemplateID `json:"template"`
	Text     string     `json:"text"`
}

// NewGlobalKey forms the global key for a key value under a template. The
// key value is reduced to canonical JSON so equality is structural.
func NewGlobalKey(template TemplateID, key Value) (GlobalKey, error) {
	text, err := MarshalCanonical(key)
	if err != nil {
		return GlobalKey{}, err
	}
	return GlobalKey{Template: template, Text: string(text)}, nil
}

// KeyWithMaintainers pairs a contract key with its maintainer parties.
type KeyWithMaintainers struct {
	Key         GlobalKey
	Maintainers PartySet
}

// CreateNode instantiates a contract.
type CreateNode[ID comparable] struct {
	ContractID   ContractID
	Instance     ContractInstance
	Signatories  PartySet
	Stakeholders PartySet
	Key          *KeyWithMaintainers
	Location     *Location
}

func (CreateNode[ID]) node() {}

// Template returns the template of the created contract.
func (n CreateNode[ID]) Template() TemplateID {
	return n.Instance.Template
}

// FetchNode references an existing contract without changing it.
type FetchNode[ID comparable] struct {
	ContractID   ContractID
	Template     TemplateID
	Stakeholders PartySet
	Location     *Location
}

func (FetchNode[ID]) node() {}

// ExerciseNode exercises a choice on a target contract. Children execute in
// order under the exercise's authority.
type ExerciseNode[ID comparable] struct {
	TargetID                    ContractID
	Template                    TemplateID
	Choice                      ChoiceName
	Consuming                   bool
	ActingParties               PartySet
	Signatories                 PartySet
	Stakeholders                PartySet
	ControllersDifferFromActors bool
	Children                    []ID
	Location                    *Location
}

func (ExerciseNode[ID]) node() {}

// LookupByKeyNode resolves a contract key. Result is non-nil exactly when
// the lookup was positive.
type LookupByKeyNode[ID comparable] struct {
	Template    TemplateID
	Key         GlobalKey
	Maintainers PartySet
	Result      *ContractID
	Location    *Location
}

func (LookupByKeyNode[ID]) node() {}

// Transaction is the input forest: root node ids in execution order and the
// node mapping. Child ordering inside exercises is significant.
type Transaction struct {
	Roots []NodeID
	Nodes map[NodeID]Node[NodeID]
}

// MapNodeID rewrites a node's references through f. Only exercise children
// actually hold references; the other kinds convert by field copy.
func MapNodeID[A, B comparable](n Node[A], f func(A) B) Node[B] {
	switch node := n.(type) {
	case CreateNode[A]:
		return CreateNode[B]{
			ContractID:   node.ContractID,
			Instance:     node.Instance,
			Signatories:  node.Signatories,
			Stakeholders: node.Stakeholders,
			Key:          node.Key,
			Location:     node.Location,
		}
	case FetchNode[A]:
		return FetchNode[B]{
			ContractID:   node.ContractID,
			Template:     node.Template,
			Stakeholders: node.Stakeholders,
			Location:     node.Location,
		}
	case ExerciseNode[A]:
		children := make([]B, len(node.Children))
		for i, c := range node.Children {
			children[i] = f(c)
		}
		return ExerciseNode[B]{
			TargetID:                    node.TargetID,
			Template:                    node.Template,
			Choice:                      node.Choice,
			Consuming:                   node.Consuming,
			ActingParties:               node.ActingParties,
			Signatories:                 node.Signatories,
			Stakeholders:                node.Stakeholders,
			ControllersDifferFromActors: node.ControllersDifferFromActors,
			Children:                    children,
			Location:                    node.Location,
		}
	case LookupByKeyNode[A]:
		return LookupByKeyNode[B]{
			Template:    node.Template,
			Key:         node.Key,
			Maintainers: node.Maintainers,
			Result:      node.Result,
			Location:    node.Location,
		}
	default:
		// The interface is sealed; a fifth kind cannot exist.
		panic("ir: unknown node kind")
	}
}
