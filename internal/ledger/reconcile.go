package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AmountRule computes the next amount for a purchase that already exists,
// given the currently stored amount. A nil rule keeps the initial amount.
type AmountRule func(prev bson.Decimal128) (bson.Decimal128, error)

// OverwriteAmount unconditionally replaces the stored amount with the given
// constant.
func OverwriteAmount(next bson.Decimal128) AmountRule {
	return func(bson.Decimal128) (bson.Decimal128, error) {
		return next, nil
	}
}

// DiscountAmount keeps pct percent of the previously stored amount, rounded
// half-to-even to two decimals. Applied to the stored amount on every run,
// so reruns compound.
func DiscountAmount(pct int64) AmountRule {
	return func(prev bson.Decimal128) (bson.Decimal128, error) {
		return ApplyPercent(prev, pct)
	}
}

// PurchaseSpec is the desired state for one product line within a
// transaction.
type PurchaseSpec struct {
	AccountID bson.ObjectID
	Product   string

	// Initial is the amount recorded when no purchase exists yet, and the
	// replacement amount for the upsert strategy.
	Initial bson.Decimal128

	// OnExisting derives the new amount when a purchase is found. Ignored
	// by the upsert strategy.
	OnExisting AmountRule

	Now time.Time
}

// ReconcileStrategy brings one purchase line to its desired state inside the
// active transaction. Two implementations exist: the explicit two-step
// find-then-branch and the single atomic upsert. The choice is fixed per
// product line at the call site.
type ReconcileStrategy interface {
	Reconcile(ctx context.Context, repo PurchaseRepository, spec PurchaseSpec) (Outcome, error)
}

// TwoStepStrategy reads the current record by natural key, then either
// inserts the desired state or mutates only the rule's fields. The record's
// identity is never touched on update.
type TwoStepStrategy struct{}

func (TwoStepStrategy) Reconcile(ctx context.Context, repo PurchaseRepository, spec PurchaseSpec) (Outcome, error) {
	existing, err := repo.FindByOwnerAndProduct(ctx, spec.AccountID, spec.Product)
	if err != nil {
		return Outcome{}, fmt.Errorf("TwoStepStrategy.Reconcile: find %q: %w", spec.Product, err)
	}

	if existing == nil {
		p := &Purchase{
			AccountID:   spec.AccountID,
			Product:     spec.Product,
			Amount:      spec.Initial,
			Receipt:     uuid.NewString(),
			PurchasedAt: spec.Now,
		}
		if _, err := repo.Insert(ctx, p); err != nil {
			return Outcome{}, fmt.Errorf("TwoStepStrategy.Reconcile: insert %q: %w", spec.Product, err)
		}
		return Outcome{
			Kind:   "purchase",
			Label:  spec.Product,
			Action: ActionInserted,
			After:  FormatAmount(spec.Initial),
		}, nil
	}

	next := spec.Initial
	if spec.OnExisting != nil {
		if next, err = spec.OnExisting(existing.Amount); err != nil {
			return Outcome{}, fmt.Errorf("TwoStepStrategy.Reconcile: amount rule for %q: %w", spec.Product, err)
		}
	}
	if err := repo.UpdateAmount(ctx, existing.ID, next, spec.Now); err != nil {
		return Outcome{}, fmt.Errorf("TwoStepStrategy.Reconcile: update %q: %w", spec.Product, err)
	}
	return Outcome{
		Kind:   "purchase",
		Label:  spec.Product,
		Action: ActionUpdated,
		Before: FormatAmount(existing.Amount),
		After:  FormatAmount(next),
	}, nil
}

// UpsertStrategy issues a single replace-with-upsert. The store's response
// says whether an insert or a replace happened; that flag feeds reporting
// and nothing else.
type UpsertStrategy struct{}

func (UpsertStrategy) Reconcile(ctx context.Context, repo PurchaseRepository, spec PurchaseSpec) (Outcome, error) {
	p := &Purchase{
		AccountID:   spec.AccountID,
		Product:     spec.Product,
		Amount:      spec.Initial,
		Receipt:     uuid.NewString(),
		PurchasedAt: spec.Now,
	}
	created, err := repo.Upsert(ctx, p)
	if err != nil {
		return Outcome{}, fmt.Errorf("UpsertStrategy.Reconcile: upsert %q: %w", spec.Product, err)
	}

	action := ActionUpsertReplaced
	if created {
		action = ActionUpsertInserted
	}
	return Outcome{
		Kind:   "purchase",
		Label:  spec.Product,
		Action: action,
		After:  FormatAmount(spec.Initial),
	}, nil
}
