package ledger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AccountRepository is an interface for account storage operations.
// Find methods return (nil, nil) when no record matches.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Insert(ctx context.Context, a *Account) (bson.ObjectID, error)
	UpdateName(ctx context.Context, id bson.ObjectID, name string, at time.Time) error
	List(ctx context.Context) ([]Account, error)

	// DeleteAll is the out-of-band reset step. It is never called inside a
	// transaction.
	DeleteAll(ctx context.Context) error
}

// PurchaseRepository is an interface for purchase storage operations.
type PurchaseRepository interface {
	FindByOwnerAndProduct(ctx context.Context, owner bson.ObjectID, product string) (*Purchase, error)
	Insert(ctx context.Context, p *Purchase) (bson.ObjectID, error)
	UpdateAmount(ctx context.Context, id bson.ObjectID, amount bson.Decimal128, at time.Time) error

	// Upsert atomically replaces the record matching p's natural key, or
	// inserts p when no match exists. The returned flag reports which of
	// the two happened; callers use it for reporting only.
	Upsert(ctx context.Context, p *Purchase) (created bool, err error)

	List(ctx context.Context) ([]Purchase, error)
	DeleteAll(ctx context.Context) error
}

// Txn is one open transaction bound to a client session.
type Txn interface {
	// Context binds ctx to the transaction's session. Repository calls made
	// with the returned context participate in the transaction.
	Context(ctx context.Context) context.Context

	// Commit durably applies all buffered operations atomically.
	Commit(ctx context.Context) error

	// Abort discards all buffered operations. It is a no-op after a
	// successful commit or a previous abort, and safe after a failed commit.
	Abort(ctx context.Context) error

	// Close ends the underlying session, aborting the transaction if it is
	// still open. Always called, usually via defer.
	Close(ctx context.Context)
}

// TxnManager opens transactions against the store's active topology.
type TxnManager interface {
	// Begin acquires a session and starts a transaction on it. Failures are
	// wrapped in ErrSessionUnavailable.
	Begin(ctx context.Context) (Txn, error)
}

// Store bundles everything the workflow needs from a backend.
type Store interface {
	TxnManager
	Accounts() AccountRepository
	Purchases() PurchaseRepository
}
