// Package memory is an in-memory implementation of the ledger store with
// per-transaction write staging. It backs the test suite and the demo
// binary's -memory mode, so the workflow can run without a replica set.
// Data is lost on process exit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store holds both collections in maps and is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	accounts  map[bson.ObjectID]ledger.Account
	purchases map[bson.ObjectID]ledger.Purchase
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[bson.ObjectID]ledger.Account),
		purchases: make(map[bson.ObjectID]ledger.Purchase),
	}
}

// Accounts implements the ledger.Store interface.
func (s *Store) Accounts() ledger.AccountRepository { return accountRepo{s} }

// Purchases implements the ledger.Store interface.
func (s *Store) Purchases() ledger.PurchaseRepository { return purchaseRepo{s} }

// Begin implements the ledger.TxnManager interface. Writes made through the
// transaction's context are staged and invisible to other readers until
// Commit applies them under the store lock.
func (s *Store) Begin(ctx context.Context) (ledger.Txn, error) {
	return &Txn{
		store:     s,
		accounts:  make(map[bson.ObjectID]ledger.Account),
		purchases: make(map[bson.ObjectID]ledger.Purchase),
	}, nil
}

type txnKey struct{}

// Txn stages writes until commit. Reads made with the transaction's context
// see the staged writes first, which gives the same causal consistency a
// session-bound transaction provides.
type Txn struct {
	store     *Store
	accounts  map[bson.ObjectID]ledger.Account
	purchases map[bson.ObjectID]ledger.Purchase
	done      bool
}

// Context implements the ledger.Txn interface.
func (t *Txn) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, txnKey{}, t)
}

// Commit implements the ledger.Txn interface. It applies all staged writes
// atomically under the store lock.
func (t *Txn) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("Commit: transaction already finished: %w", ledger.ErrCommitFailed)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, a := range t.accounts {
		t.store.accounts[id] = a
	}
	for id, p := range t.purchases {
		t.store.purchases[id] = p
	}
	t.done = true
	return nil
}

// Abort implements the ledger.Txn interface. It discards all staged writes;
// repeated calls and calls after commit are no-ops.
func (t *Txn) Abort(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.accounts = nil
	t.purchases = nil
	return nil
}

// Close implements the ledger.Txn interface.
func (t *Txn) Close(ctx context.Context) {
	if !t.done {
		_ = t.Abort(ctx)
	}
}

// txnFrom extracts the open transaction from a context produced by
// Txn.Context, if any.
func txnFrom(ctx context.Context) *Txn {
	t, _ := ctx.Value(txnKey{}).(*Txn)
	if t == nil || t.done {
		return nil
	}
	return t
}

// Ensure Store implements the ledger interfaces.
var _ ledger.Store = (*Store)(nil)
var _ ledger.Txn = (*Txn)(nil)
