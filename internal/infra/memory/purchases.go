package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type purchaseRepo struct {
	s *Store
}

// FindByOwnerAndProduct implements the ledger.PurchaseRepository interface.
func (r purchaseRepo) FindByOwnerAndProduct(ctx context.Context, owner bson.ObjectID, product string) (*ledger.Purchase, error) {
	if t := txnFrom(ctx); t != nil {
		for _, p := range t.purchases {
			if p.AccountID == owner && p.Product == product {
				cp := p
				return &cp, nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.purchases {
		if p.AccountID == owner && p.Product == product {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

// Insert implements the ledger.PurchaseRepository interface.
func (r purchaseRepo) Insert(ctx context.Context, p *ledger.Purchase) (bson.ObjectID, error) {
	cp := *p
	if cp.ID.IsZero() {
		cp.ID = bson.NewObjectID()
	}
	if t := txnFrom(ctx); t != nil {
		t.purchases[cp.ID] = cp
		return cp.ID, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.purchases[cp.ID] = cp
	return cp.ID, nil
}

// UpdateAmount implements the ledger.PurchaseRepository interface.
func (r purchaseRepo) UpdateAmount(ctx context.Context, id bson.ObjectID, amount bson.Decimal128, at time.Time) error {
	if t := txnFrom(ctx); t != nil {
		p, ok := t.purchases[id]
		if !ok {
			r.s.mu.RLock()
			p, ok = r.s.purchases[id]
			r.s.mu.RUnlock()
			if !ok {
				return fmt.Errorf("UpdateAmount: purchase not found: %s", id.Hex())
			}
		}
		p.Amount = amount
		p.PurchasedAt = at
		t.purchases[id] = p
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.purchases[id]
	if !ok {
		return fmt.Errorf("UpdateAmount: purchase not found: %s", id.Hex())
	}
	p.Amount = amount
	p.PurchasedAt = at
	r.s.purchases[id] = p
	return nil
}

// Upsert implements the ledger.PurchaseRepository interface. A matched
// record keeps its identity; everything else is replaced.
func (r purchaseRepo) Upsert(ctx context.Context, p *ledger.Purchase) (bool, error) {
	existing, err := r.FindByOwnerAndProduct(ctx, p.AccountID, p.Product)
	if err != nil {
		return false, fmt.Errorf("Upsert: %w", err)
	}

	cp := *p
	if existing != nil {
		cp.ID = existing.ID
	} else if cp.ID.IsZero() {
		cp.ID = bson.NewObjectID()
	}

	if t := txnFrom(ctx); t != nil {
		t.purchases[cp.ID] = cp
	} else {
		r.s.mu.Lock()
		r.s.purchases[cp.ID] = cp
		r.s.mu.Unlock()
	}
	return existing == nil, nil
}

// List implements the ledger.PurchaseRepository interface.
func (r purchaseRepo) List(ctx context.Context) ([]ledger.Purchase, error) {
	t := txnFrom(ctx)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]ledger.Purchase, 0, len(r.s.purchases))
	for id, p := range r.s.purchases {
		if t != nil {
			if staged, ok := t.purchases[id]; ok {
				p = staged
			}
		}
		out = append(out, p)
	}
	if t != nil {
		for id, p := range t.purchases {
			if _, committed := r.s.purchases[id]; !committed {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// DeleteAll implements the ledger.PurchaseRepository interface.
func (r purchaseRepo) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.purchases = make(map[bson.ObjectID]ledger.Purchase)
	return nil
}
