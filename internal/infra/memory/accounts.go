package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type accountRepo struct {
	s *Store
}

// FindByEmail implements the ledger.AccountRepository interface. Staged
// writes of the caller's own transaction are visible; everyone else sees
// committed state only.
func (r accountRepo) FindByEmail(ctx context.Context, email string) (*ledger.Account, error) {
	if t := txnFrom(ctx); t != nil {
		for _, a := range t.accounts {
			if a.Email == email {
				cp := a
				return &cp, nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

// Insert implements the ledger.AccountRepository interface.
func (r accountRepo) Insert(ctx context.Context, a *ledger.Account) (bson.ObjectID, error) {
	cp := *a
	if cp.ID.IsZero() {
		cp.ID = bson.NewObjectID()
	}
	if t := txnFrom(ctx); t != nil {
		t.accounts[cp.ID] = cp
		return cp.ID, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[cp.ID] = cp
	return cp.ID, nil
}

// UpdateName implements the ledger.AccountRepository interface. Only the
// name and timestamp change; the identity and creation time never do.
func (r accountRepo) UpdateName(ctx context.Context, id bson.ObjectID, name string, at time.Time) error {
	if t := txnFrom(ctx); t != nil {
		a, ok := t.accounts[id]
		if !ok {
			r.s.mu.RLock()
			a, ok = r.s.accounts[id]
			r.s.mu.RUnlock()
			if !ok {
				return fmt.Errorf("UpdateName: account not found: %s", id.Hex())
			}
		}
		a.Name = name
		a.UpdatedAt = at
		t.accounts[id] = a
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return fmt.Errorf("UpdateName: account not found: %s", id.Hex())
	}
	a.Name = name
	a.UpdatedAt = at
	r.s.accounts[id] = a
	return nil
}

// List implements the ledger.AccountRepository interface. Map iteration
// order stands in for the store-default order: unspecified.
func (r accountRepo) List(ctx context.Context) ([]ledger.Account, error) {
	t := txnFrom(ctx)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(r.s.accounts))
	for id, a := range r.s.accounts {
		if t != nil {
			if staged, ok := t.accounts[id]; ok {
				a = staged
			}
		}
		out = append(out, a)
	}
	if t != nil {
		for id, a := range t.accounts {
			if _, committed := r.s.accounts[id]; !committed {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// DeleteAll implements the ledger.AccountRepository interface.
func (r accountRepo) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts = make(map[bson.ObjectID]ledger.Account)
	return nil
}
