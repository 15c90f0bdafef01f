package mongo

import (
	"context"
	"fmt"

	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// Begin implements the ledger.TxnManager interface. The session is causally
// consistent, so reads inside the transaction observe its earlier writes;
// the transaction reads from a snapshot and commits with majority
// acknowledgement.
func (s *Store) Begin(ctx context.Context) (ledger.Txn, error) {
	sess, err := s.client.StartSession(options.Session().SetCausalConsistency(true))
	if err != nil {
		return nil, fmt.Errorf("Begin: start session: %w: %w", err, ledger.ErrSessionUnavailable)
	}

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		sess.EndSession(ctx)
		return nil, fmt.Errorf("Begin: start transaction: %w: %w", err, ledger.ErrSessionUnavailable)
	}

	return &Txn{session: sess}, nil
}

// Txn wraps one session with one started transaction. The demo runs no
// retry loop: a failed commit is reported, not replayed.
type Txn struct {
	session *mongo.Session
	done    bool
}

// Context implements the ledger.Txn interface. Repository calls made with
// the returned context run inside the transaction.
func (t *Txn) Context(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, t.session)
}

// Commit implements the ledger.Txn interface. On failure the transaction is
// left open so Abort can still run; callers may check IsTransient on the
// returned error to see whether the server suggested retrying the whole
// transaction body.
func (t *Txn) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("Commit: transaction already finished: %w", ledger.ErrCommitFailed)
	}
	if err := t.session.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("Commit: %w: %w", err, ledger.ErrCommitFailed)
	}
	t.done = true
	return nil
}

// Abort implements the ledger.Txn interface. At most one abort reaches the
// server; later calls and calls after a successful commit are no-ops.
func (t *Txn) Abort(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.session.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("Abort: %w", err)
	}
	return nil
}

// Close implements the ledger.Txn interface. Ending the session aborts any
// transaction still open on it.
func (t *Txn) Close(ctx context.Context) {
	t.session.EndSession(ctx)
}

var _ ledger.Txn = (*Txn)(nil)
