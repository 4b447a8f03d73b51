package ir

import (
	"slices"
	"strings"
)

// Party is an opaque party identifier supplied by the caller.
type Party string

// ContractID is an opaque contract identifier. Contract ids appear both as
// node targets and embedded inside value bodies; CollectContractIDs finds
// the embedded occurrences.
type ContractID string

// TemplateID is an opaque template identifier.
type TemplateID string

// ChoiceName is an opaque choice identifier on an exercise node.
type ChoiceName string

// Location is an optional source position carried through for diagnostics.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// PartySet is a set of parties. The zero value is ready to use for reads;
// use NewPartySet or Add for writes. Mutating methods operate in place -
// call Clone first when the receiver is shared.
type PartySet map[Party]struct{}

// NewPartySet builds a set from the given parties.
func NewPartySet(parties ...Party) PartySet {
	s := make(PartySet, len(parties))
	for _, p := range parties {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p into the set.
func (s PartySet) Add(p Party) {
	s[p] = struct{}{}
}

// Contains reports whether p is a member.
func (s PartySet) Contains(p Party) bool {
	_, ok := s[p]
	return ok
}

// IsEmpty reports whether the set has no members.
func (s PartySet) IsEmpty() bool {
	return len(s) == 0
}

// Clone returns an independent copy of the set.
func (s PartySet) Clone() PartySet {
	out := make(PartySet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Union returns a new set containing the members of both sets.
func (s PartySet) Union(other PartySet) PartySet {
	out := make(PartySet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Minus returns a new set containing the members of s not in other.
func (s PartySet) Minus(other PartySet) PartySet {
	out := make(PartySet)
	for p := range s {
		if !other.Contains(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// SubsetOf reports whether every member of s is in other.
func (s PartySet) SubsetOf(other PartySet) bool {
	for p := range s {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Intersects reports whether the two sets share at least one member.
func (s PartySet) Intersects(other PartySet) bool {
	// Iterate the smaller side.
	if len(other) < len(s) {
		s, other = other, s
	}
	for p := range s {
		if other.Contains(p) {
			return true
		}
	}
	return false
}

// Parties returns the members in sorted order for deterministic output.
func (s PartySet) Parties() []Party {
	out := make([]Party, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// String renders the set as "{a, b, c}" with sorted members.
func (s PartySet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range s.Parties() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(p))
	}
	b.WriteByte('}')
	return b.String()
}

// ContractIDSet is a set of contract ids.
type ContractIDSet map[ContractID]struct{}

// NewContractIDSet builds a set from the given contract ids.
func NewContractIDSet(coids ...ContractID) ContractIDSet {
	s := make(ContractIDSet, len(coids))
	for _, c := range coids {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts c into the set.
func (s ContractIDSet) Add(c ContractID) {
	s[c] = struct{}{}
}

// Contains reports whether c is a member.
func (s ContractIDSet) Contains(c ContractID) bool {
	_, ok := s[c]
	return ok
}

// Clone returns an independent copy of the set.
func (s ContractIDSet) Clone() ContractIDSet {
	out := make(ContractIDSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// ContractIDs returns the members in sorted order for deterministic output.
func (s ContractIDSet) ContractIDs() []ContractID {
	out := make([]ContractID, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
