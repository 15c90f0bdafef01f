package ledger_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dvloznov/shop-ledger/internal/infra/memory"
	"github.com/dvloznov/shop-ledger/internal/ledger"
	"github.com/dvloznov/shop-ledger/internal/logger"
)

func newRunner(store ledger.Store) (*ledger.Runner, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return ledger.NewRunner(store, logger.NewWithWriter(io.Discard), buf), buf
}

func findPurchase(t *testing.T, store ledger.Store, product string) ledger.Purchase {
	t.Helper()
	purchases, err := store.Purchases().List(context.Background())
	if err != nil {
		t.Fatalf("listing purchases: %v", err)
	}
	for _, p := range purchases {
		if p.Product == product {
			return p
		}
	}
	t.Fatalf("purchase %q not found", product)
	return ledger.Purchase{}
}

func counts(t *testing.T, store ledger.Store) (int, int) {
	t.Helper()
	accounts, err := store.Accounts().List(context.Background())
	if err != nil {
		t.Fatalf("listing accounts: %v", err)
	}
	purchases, err := store.Purchases().List(context.Background())
	if err != nil {
		t.Fatalf("listing purchases: %v", err)
	}
	return len(accounts), len(purchases)
}

func TestSuccessScenario_FromEmpty(t *testing.T) {
	store := memory.NewStore()
	runner, _ := newRunner(store)

	outcomes, err := runner.RunSuccessScenario(context.Background())
	if err != nil {
		t.Fatalf("RunSuccessScenario: %v", err)
	}

	accounts, purchases := counts(t, store)
	if accounts != 1 || purchases != 3 {
		t.Fatalf("Expected 1 account and 3 purchases, got %d and %d", accounts, purchases)
	}

	if len(outcomes) != 4 {
		t.Fatalf("Expected 4 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Kind != "account" || outcomes[0].Action != ledger.ActionInserted {
		t.Errorf("Expected account insert first, got %+v", outcomes[0])
	}
	last := outcomes[len(outcomes)-1]
	if last.Action != ledger.ActionUpsertInserted {
		t.Errorf("Expected first upsert to insert, got %+v", last)
	}

	for product, amount := range map[string]string{
		"Laptop":     "1499.99",
		"Phone":      "899.00",
		"Headphones": "199.99",
	} {
		p := findPurchase(t, store, product)
		if got := ledger.FormatAmount(p.Amount); got != amount {
			t.Errorf("%s amount = %s, want %s", product, got, amount)
		}
	}
}

func TestSuccessScenario_RerunKeepsOneOfEach(t *testing.T) {
	store := memory.NewStore()
	runner, _ := newRunner(store)
	ctx := context.Background()

	if _, err := runner.RunSuccessScenario(ctx); err != nil {
		t.Fatalf("First run: %v", err)
	}
	firstPhone := findPurchase(t, store, "Phone")
	firstHeadphones := findPurchase(t, store, "Headphones")

	outcomes, err := runner.RunSuccessScenario(ctx)
	if err != nil {
		t.Fatalf("Second run: %v", err)
	}

	accounts, purchases := counts(t, store)
	if accounts != 1 {
		t.Errorf("Account must not be duplicated, got %d", accounts)
	}
	if purchases != 3 {
		t.Errorf("Purchases must not be duplicated, got %d", purchases)
	}

	if outcomes[0].Action != ledger.ActionUpdated {
		t.Errorf("Expected account update on rerun, got %+v", outcomes[0])
	}
	last := outcomes[len(outcomes)-1]
	if last.Action != ledger.ActionUpsertReplaced {
		t.Errorf("Expected upsert to replace on rerun, got %+v", last)
	}

	// Identities survive reconciliation; only rule fields change.
	if findPurchase(t, store, "Phone").ID != firstPhone.ID {
		t.Error("Phone identity changed on update")
	}
	if findPurchase(t, store, "Headphones").ID != firstHeadphones.ID {
		t.Error("Headphones identity changed on upsert replace")
	}

	if got := ledger.FormatAmount(findPurchase(t, store, "Laptop").Amount); got != "1499.99" {
		t.Errorf("Laptop overwrite rule: amount = %s, want 1499.99", got)
	}
	if got := ledger.FormatAmount(firstPhone.Amount); got != "899.00" {
		t.Errorf("Phone initial amount = %s, want 899.00", got)
	}
	if got := ledger.FormatAmount(findPurchase(t, store, "Phone").Amount); got != "719.20" {
		t.Errorf("Phone discounted amount = %s, want 719.20", got)
	}
}

// The Phone discount applies to whatever is stored, so each rerun compounds
// it. Asserted as compounding on purpose.
func TestSuccessScenario_DiscountCompounds(t *testing.T) {
	store := memory.NewStore()
	runner, _ := newRunner(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := runner.RunSuccessScenario(ctx); err != nil {
			t.Fatalf("Run %d: %v", i+1, err)
		}
	}

	if got := ledger.FormatAmount(findPurchase(t, store, "Phone").Amount); got != "575.36" {
		t.Errorf("Phone after two discounts = %s, want 575.36", got)
	}
}

func TestFailureScenario_LeavesNoTrace(t *testing.T) {
	store := memory.NewStore()
	runner, out := newRunner(store)
	ctx := context.Background()

	if _, err := runner.RunSuccessScenario(ctx); err != nil {
		t.Fatalf("RunSuccessScenario: %v", err)
	}
	if err := runner.RunFailureScenario(ctx); err != nil {
		t.Fatalf("RunFailureScenario must swallow the rejection, got: %v", err)
	}

	accounts, purchases := counts(t, store)
	if accounts != 1 || purchases != 3 {
		t.Errorf("Aborted transaction leaked records: %d accounts, %d purchases", accounts, purchases)
	}

	all, err := store.Accounts().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range all {
		if a.Name == "Jane Smith" {
			t.Error("Aborted account is visible")
		}
	}
	allP, err := store.Purchases().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range allP {
		if p.Product == "Tablet" {
			t.Error("Aborted purchase is visible")
		}
	}

	if !strings.Contains(out.String(), "transaction aborted") {
		t.Errorf("Expected abort marker in output, got: %s", out.String())
	}
}

func TestFailureScenario_OnEmptyStore(t *testing.T) {
	store := memory.NewStore()
	runner, _ := newRunner(store)

	if err := runner.RunFailureScenario(context.Background()); err != nil {
		t.Fatalf("RunFailureScenario: %v", err)
	}

	accounts, purchases := counts(t, store)
	if accounts != 0 || purchases != 0 {
		t.Errorf("Expected empty store after abort, got %d accounts, %d purchases", accounts, purchases)
	}
}

func TestVerifierReport(t *testing.T) {
	store := memory.NewStore()
	runner, _ := newRunner(store)
	ctx := context.Background()

	if _, err := runner.RunSuccessScenario(ctx); err != nil {
		t.Fatal(err)
	}

	buf := &bytes.Buffer{}
	if err := ledger.NewVerifier(store, buf).Report(ctx); err != nil {
		t.Fatalf("Report: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"accounts: 1", "purchases: 3", "John Doe", "Laptop", "Phone", "Headphones", "1499.99"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected listing to contain %q, got:\n%s", want, got)
		}
	}
}
