package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/shop-ledger/internal/infra/memory"
	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func seedAccount(t *testing.T, store ledger.Store) bson.ObjectID {
	t.Helper()
	now := time.Now().UTC()
	id, err := store.Accounts().Insert(context.Background(), &ledger.Account{
		Name:      "Owner",
		Email:     "owner@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding account: %v", err)
	}
	return id
}

func TestTwoStepStrategy_InsertThenUpdate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := seedAccount(t, store)

	spec := ledger.PurchaseSpec{
		AccountID:  accountID,
		Product:    "Camera",
		Initial:    ledger.MustAmount("450.00"),
		OnExisting: ledger.DiscountAmount(80),
		Now:        time.Now().UTC(),
	}

	out, err := ledger.TwoStepStrategy{}.Reconcile(ctx, store.Purchases(), spec)
	if err != nil {
		t.Fatalf("First reconcile: %v", err)
	}
	if out.Action != ledger.ActionInserted || out.Before != "" || out.After != "450.00" {
		t.Errorf("Unexpected insert outcome: %+v", out)
	}

	out, err = ledger.TwoStepStrategy{}.Reconcile(ctx, store.Purchases(), spec)
	if err != nil {
		t.Fatalf("Second reconcile: %v", err)
	}
	if out.Action != ledger.ActionUpdated {
		t.Errorf("Expected update, got %+v", out)
	}
	if out.Before != "450.00" || out.After != "360.00" {
		t.Errorf("Expected before/after 450.00 -> 360.00, got %s -> %s", out.Before, out.After)
	}

	all, err := store.Purchases().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("Two-step reconcile duplicated the record: %d", len(all))
	}
}

func TestUpsertStrategy_ReportsWithoutBranching(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accountID := seedAccount(t, store)

	spec := ledger.PurchaseSpec{
		AccountID: accountID,
		Product:   "Speaker",
		Initial:   ledger.MustAmount("120.00"),
		Now:       time.Now().UTC(),
	}

	out, err := ledger.UpsertStrategy{}.Reconcile(ctx, store.Purchases(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if out.Action != ledger.ActionUpsertInserted {
		t.Errorf("First upsert: expected insert report, got %+v", out)
	}

	for i := 0; i < 3; i++ {
		out, err = ledger.UpsertStrategy{}.Reconcile(ctx, store.Purchases(), spec)
		if err != nil {
			t.Fatal(err)
		}
		if out.Action != ledger.ActionUpsertReplaced {
			t.Errorf("Repeat upsert: expected replace report, got %+v", out)
		}
	}

	all, err := store.Purchases().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("Expected exactly one record after repeated upserts, got %d", len(all))
	}
}
