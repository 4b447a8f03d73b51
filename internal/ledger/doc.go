// Package ledger implements the in-memory scenario ledger: a deterministic
// simulator that commits transaction trees, computes per-node disclosure
// and divulgence, checks authorization against a dynamically evolving
// authorizer set, and answers visibility-scoped contract lookups.
//
// The ledger is a value. Every mutating operation returns a new *Ledger;
// the input is never modified, so holding an old version for read-only use
// is always safe. No operation blocks, suspends, or performs I/O.
//
// Expected failures (authorization, key collisions, lookup misses) are
// returned as values. A *Crash panic is reserved for invariant violations
// that indicate a defective transaction producer; recovery is not
// attempted.
package ledger
