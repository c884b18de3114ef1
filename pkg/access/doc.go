// Package access enforces the aliasing rules that make lock-free parallel
// iteration sound.
//
// A Ledger records, per component, either one exclusive borrow or any number
// of shared borrows. A query acquires a Token covering every component it
// reads (shared) and writes (exclusive) in a single all-or-nothing step. While
// the Token is held no conflicting Token can be created, so whoever holds an
// exclusive Token is the only live access path to that component's data and
// may hand disjoint parts of it to concurrent workers without further locking.
//
// Violations fail fast with a *ConflictError wrapping ErrAliasing instead of
// letting two writers race on the same data.
//
// Metrics:
//
//   - access_borrows_total{mode} (Counter): tokens granted by mode (shared, exclusive)
//   - access_conflicts_total{mode} (Counter): acquisitions refused by requested mode
package access
