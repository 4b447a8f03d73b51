package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// StepID identifies a ledger step. Step ids start at 0 and increase by one
// per step; bounding the counter to int32 keeps the decimal text within 11
// characters.
type StepID int32

// Text returns the unpadded decimal representation of the step id.
func (s StepID) Text() string {
	return strconv.FormatInt(int64(s), 10)
}

// NodeID identifies a node within a single transaction tree. Node ids are
// local: two transactions reuse the same numbers.
type NodeID int

// MaxEventIDLen bounds the textual form of an event id.
const MaxEventIDLen = 255

// EventID globally identifies a committed node as the pair of the owning
// step's decimal text and the node's local id. The step component is kept
// as text so that parsing and formatting are exact inverses.
type EventID struct {
	Step string `json:"step"`
	Node NodeID `json:"node"`
}

// NewEventID forms the event id for node within step.
func NewEventID(step StepID, node NodeID) EventID {
	return EventID{Step: step.Text(), Node: node}
}

// String renders the canonical textual form "#<step>:<node>".
func (e EventID) String() string {
	return "#" + e.Step + ":" + strconv.Itoa(int(e.Node))
}

// ParseError reports a string that is not a well-formed event id.
type ParseError struct {
	Input string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse eventId %s", e.Input)
}

// ParseEventID parses the canonical textual form produced by String. It is
// the exact inverse: ParseEventID(e.String()) == e for every valid event id,
// and s == ParseEventID(s).String() for every accepted s. Any other shape
// yields a *ParseError.
func ParseEventID(s string) (EventID, error) {
	if len(s) > MaxEventIDLen || len(s) < len("#0:0") || s[0] != '#' {
		return EventID{}, &ParseError{Input: s}
	}
	step, nodeText, ok := strings.Cut(s[1:], ":")
	if !ok || !isStepText(step) {
		return EventID{}, &ParseError{Input: s}
	}
	node, ok := parseNodeText(nodeText)
	if !ok {
		return EventID{}, &ParseError{Input: s}
	}
	return EventID{Step: step, Node: node}, nil
}

// isStepText accepts non-empty all-digit step text of at most 11 characters.
func isStepText(s string) bool {
	if len(s) == 0 || len(s) > 11 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseNodeText accepts an unpadded non-negative decimal. Leading zeros are
// rejected so formatting stays a strict inverse.
func parseNodeText(s string) (NodeID, bool) {
	if len(s) == 0 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return NodeID(n), true
}
