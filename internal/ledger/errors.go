package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/slate/internal/ir"
)

// CommitError is the sealed set of expected commit rejections. A rejected
// commit leaves the ledger value unchanged.
type CommitError interface {
	error
	commitError() // Sealed - only the two rejection kinds implement it
}

// FailedAuthorizationsError rejects a transaction whose enrichment recorded
// at least one authorization failure. The map preserves, per node, the
// authorizer set at the moment of failure and the required set.
type FailedAuthorizationsError struct {
	Failures map[ir.NodeID]FailedAuthorization
}

func (*FailedAuthorizationsError) commitError() {}

// Error implements the error interface.
func (e *FailedAuthorizationsError) Error() string {
	return fmt.Sprintf("commit rejected: %d node(s) failed authorization", len(e.Failures))
}

// UniqueKeyViolationError rejects a transaction that would create a second
// active contract under an already-taken key.
type UniqueKeyViolationError struct {
	Key ir.GlobalKey
}

func (*UniqueKeyViolationError) commitError() {}

// Error implements the error interface.
func (e *UniqueKeyViolationError) Error() string {
	return fmt.Sprintf("commit rejected: contract key already active (template=%s key=%s)",
		e.Key.Template, e.Key.Text)
}

// IsFailedAuthorizations returns true if err is a failed-authorizations
// rejection. Uses errors.As to handle wrapped errors.
func IsFailedAuthorizations(err error) bool {
	var fe *FailedAuthorizationsError
	return errors.As(err, &fe)
}

// IsUniqueKeyViolation returns true if err is a unique-key-violation
// rejection. Uses errors.As to handle wrapped errors.
func IsUniqueKeyViolation(err error) bool {
	var ke *UniqueKeyViolationError
	return errors.As(err, &ke)
}

// Crash reports an internal invariant violation: a node referenced during
// traversal is missing, a contract id is consumed but not indexed, or a
// consumer link points at a non-create. These are programmer errors in the
// transaction producer, not user-facing failures; they abort via panic.
type Crash struct {
	Reason string
}

// Error implements the error interface.
func (c *Crash) Error() string {
	return "ledger-crash: " + c.Reason
}

// crash panics with a *Crash carrying the formatted reason.
func crash(format string, args ...any) {
	panic(&Crash{Reason: fmt.Sprintf(format, args...)})
}
