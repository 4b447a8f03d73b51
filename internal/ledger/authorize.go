package ledger

import (
	"fmt"

	"github.com/roach88/slate/internal/ir"
)

// AuthorizationMode is the sealed two-variant authorization switch: either
// no checks at all, or checks against an explicit authorizer set. A boolean
// plus an optional set would invite an inconsistent fourth state; the sum
// type cannot express one.
type AuthorizationMode interface {
	authorizationMode() // Sealed - only DontAuthorize and Authorize implement it
}

// DontAuthorize disables every authorization check. The failure map of an
// enrichment under DontAuthorize is always empty, irrespective of node
// shapes.
type DontAuthorize struct{}

func (DontAuthorize) authorizationMode() {}

// Authorize checks each node against the given authorizer set. On entry to
// an exercise the set for the subtree is replaced by the exercise's
// signatories union acting parties.
type Authorize struct {
	Authorizers ir.PartySet
}

func (Authorize) authorizationMode() {}

// FailureCode categorizes authorization failures.
type FailureCode string

const (
	// FailureCreateMissingAuthorization indicates create signatories not
	// covered by the authorizers.
	FailureCreateMissingAuthorization FailureCode = "create-missing-auth"

	// FailureNoSignatories indicates a create without signatories.
	FailureNoSignatories FailureCode = "no-signatories"

	// FailureMaintainersNotSubsetOfSignatories indicates a keyed create
	// whose maintainers are not all signatories.
	FailureMaintainersNotSubsetOfSignatories FailureCode = "maintainers-not-subset-of-signatories"

	// FailureNoControllers indicates an exercise without acting parties.
	FailureNoControllers FailureCode = "no-controllers"

	// FailureActorMismatch indicates an exercise whose controllers differ
	// from its actors.
	FailureActorMismatch FailureCode = "actor-mismatch"

	// FailureExerciseMissingAuthorization indicates exercise acting parties
	// not covered by the authorizers.
	FailureExerciseMissingAuthorization FailureCode = "exercise-missing-auth"

	// FailureFetchMissingAuthorization indicates a fetch whose stakeholders
	// do not overlap the authorizers.
	FailureFetchMissingAuthorization FailureCode = "fetch-missing-auth"

	// FailureLookupByKeyMissingAuthorization indicates a key lookup whose
	// maintainers are not all authorizers. Stricter than fetch: a negative
	// lookup leaks existence, so maintainer authority is required in full.
	FailureLookupByKeyMissingAuthorization FailureCode = "lookup-by-key-missing-auth"
)

// FailedAuthorization records one authorization failure with the context a
// test needs to assert on it. Authorizers is the authorizer set at the
// moment of failure and Required the set the check demanded; both are
// preserved literally. For the maintainers-subset check the two sets are
// the signatories and the maintainers.
type FailedAuthorization struct {
	Code        FailureCode
	Template    ir.TemplateID
	Location    *ir.Location
	Authorizers ir.PartySet
	Required    ir.PartySet
}

// String renders the failure for diagnostics.
func (f FailedAuthorization) String() string {
	return fmt.Sprintf("%s: template=%s authorizers=%s required=%s",
		f.Code, f.Template, f.Authorizers, f.Required)
}

// authorizeNode evaluates the per-kind predicates for one node and returns
// the failures in check order. Under DontAuthorize no predicate runs and
// the result is always nil.
func authorizeNode(mode AuthorizationMode, node ir.Node[ir.NodeID]) []FailedAuthorization {
	auth, ok := mode.(Authorize)
	if !ok {
		return nil
	}
	switch n := node.(type) {
	case ir.CreateNode[ir.NodeID]:
		return authorizeCreate(auth.Authorizers, n)
	case ir.FetchNode[ir.NodeID]:
		return authorizeFetch(auth.Authorizers, n)
	case ir.ExerciseNode[ir.NodeID]:
		return authorizeExercise(auth.Authorizers, n)
	case ir.LookupByKeyNode[ir.NodeID]:
		return authorizeLookupByKey(auth.Authorizers, n)
	default:
		crash("authorize: unknown node kind %T", node)
		return nil
	}
}

func authorizeCreate(authorizers ir.PartySet, n ir.CreateNode[ir.NodeID]) []FailedAuthorization {
	var failures []FailedAuthorization
	if !n.Signatories.SubsetOf(authorizers) {
		failures = append(failures, FailedAuthorization{
			Code:        FailureCreateMissingAuthorization,
			Template:    n.Template(),
			Location:    n.Location,
			Authorizers: authorizers.Clone(),
			Required:    n.Signatories.Clone(),
		})
	}
	if n.Signatories.IsEmpty() {
		failures = append(failures, FailedAuthorization{
			Code:        FailureNoSignatories,
			Template:    n.Template(),
			Location:    n.Location,
			Authorizers: authorizers.Clone(),
			Required:    ir.NewPartySet(),
		})
	}
	if n.Key != nil && !n.Key.Maintainers.SubsetOf(n.Signatories) {
		failures = append(failures, FailedAuthorization{
			Code:        FailureMaintainersNotSubsetOfSignatories,
			Template:    n.Template(),
			Location:    n.Location,
			Authorizers: n.Signatories.Clone(),
			Required:    n.Key.Maintainers.Clone(),
		})
	}
	return failures
}

func authorizeFetch(authorizers ir.PartySet, n ir.FetchNode[ir.NodeID]) []FailedAuthorization {
	if n.Stakeholders.Intersects(authorizers) {
		return nil
	}
	return []FailedAuthorization{{
		Code:        FailureFetchMissingAuthorization,
		Template:    n.Template,
		Location:    n.Location,
		Authorizers: authorizers.Clone(),
		Required:    n.Stakeholders.Clone(),
	}}
}

func authorizeExercise(authorizers ir.PartySet, n ir.ExerciseNode[ir.NodeID]) []FailedAuthorization {
	var failures []FailedAuthorization
	if n.ActingParties.IsEmpty() {
		failures = append(failures, FailedAuthorization{
			Code:        FailureNoControllers,
			Template:    n.Template,
			Location:    n.Location,
			Authorizers: authorizers.Clone(),
			Required:    ir.NewPartySet(),
		})
	}
	if n.ControllersDifferFromActors {
		failures = append(failures, FailedAuthorization{
			Code:        FailureActorMismatch,
			Template:    n.Template,
			Location:    n.Location,
			Authorizers: authorizers.Clone(),
			Required:    n.ActingParties.Clone(),
		})
	}
	if !n.ActingParties.SubsetOf(authorizers) {
		failures = append(failures, FailedAuthorization{
			Code:        FailureExerciseMissingAuthorization,
			Template:    n.Template,
			Location:    n.Location,
			Authorizers: authorizers.Clone(),
			Required:    n.ActingParties.Clone(),
		})
	}
	return failures
}

func authorizeLookupByKey(authorizers ir.PartySet, n ir.LookupByKeyNode[ir.NodeID]) []FailedAuthorization {
	if n.Maintainers.SubsetOf(authorizers) {
		return nil
	}
	return []FailedAuthorization{{
		Code:        FailureLookupByKeyMissingAuthorization,
		Template:    n.Template,
		Location:    n.Location,
		Authorizers: authorizers.Clone(),
		Required:    n.Maintainers.Clone(),
	}}
}
