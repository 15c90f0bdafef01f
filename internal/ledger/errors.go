package ledger

import "errors"

// Sentinel errors for the two failure classes the caller can distinguish.
// Backends wrap these so errors.Is works across the repository boundary;
// any other store fault is propagated as a plain wrapped error.
var (
	// ErrSessionUnavailable means no session/transaction could be
	// established: connectivity, or topology not ready within the bounded
	// selection timeout. Terminates the run.
	ErrSessionUnavailable = errors.New("session unavailable")

	// ErrCommitFailed means the store rejected the commit (write conflict,
	// stale snapshot, network partition). Abort has already been attempted
	// by the time the caller sees this; retrying means retrying the whole
	// transaction body, which this demo deliberately does not do.
	ErrCommitFailed = errors.New("transaction commit failed")
)
