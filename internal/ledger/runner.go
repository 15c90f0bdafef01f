package ledger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Demo fixtures. The success scenario reconciles one account and three
// product lines; the failure scenario tries to record a purchase that the
// spending policy rejects.
const (
	demoAccountName  = "John Doe"
	demoAccountEmail = "john.doe@example.com"

	productLaptop     = "Laptop"
	productPhone      = "Phone"
	productHeadphones = "Headphones"

	rejectedAccountName  = "Jane Smith"
	rejectedAccountEmail = "jane.smith@example.com"
	rejectedProduct      = "Tablet"

	// discountKeepPct is what survives the Phone line's 20% discount.
	discountKeepPct = 80
)

var (
	laptopPrice     = MustAmount("1499.99")
	phoneInitial    = MustAmount("899.00")
	headphonesPrice = MustAmount("199.99")
	tabletPrice     = MustAmount("649.99")

	// purchaseLimit is the single-purchase spending cap enforced by the
	// failure scenario's policy check.
	purchaseLimit = MustAmount("500.00")
)

// Runner sequences the demo's two transactional workflows against a Store.
type Runner struct {
	store Store
	log   zerolog.Logger
	out   io.Writer
	now   func() time.Time
}

// NewRunner creates a runner writing human-readable status lines to out.
func NewRunner(store Store, log zerolog.Logger, out io.Writer) *Runner {
	return &Runner{
		store: store,
		log:   log,
		out:   out,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RunSuccessScenario reconciles the demo account and its three product lines
// inside a single transaction and commits. Returned outcomes report what
// each step did, with before/after amounts on updates.
//
// Each product line's rule is fixed here at the call site: Laptop is an
// unconditional price overwrite, Phone keeps 80% of whatever amount is
// currently stored (so reruns compound the discount; that is the
// demonstrated behavior, not an accident to correct), and Headphones goes
// through the atomic upsert path.
func (r *Runner) RunSuccessScenario(ctx context.Context) ([]Outcome, error) {
	log := r.log.With().Str("run_id", uuid.NewString()).Str("scenario", "success").Logger()

	txn, err := r.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("RunSuccessScenario: begin transaction: %w", err)
	}
	defer txn.Close(ctx)
	sc := txn.Context(ctx)
	now := r.now()

	accountID, accountOutcome, err := r.reconcileAccount(sc, demoAccountName, demoAccountEmail, now)
	if err != nil {
		r.abort(ctx, txn, log)
		return nil, fmt.Errorf("RunSuccessScenario: %w", err)
	}
	outcomes := []Outcome{accountOutcome}

	lines := []struct {
		strategy ReconcileStrategy
		spec     PurchaseSpec
	}{
		{TwoStepStrategy{}, PurchaseSpec{
			AccountID:  accountID,
			Product:    productLaptop,
			Initial:    laptopPrice,
			OnExisting: OverwriteAmount(laptopPrice),
			Now:        now,
		}},
		{TwoStepStrategy{}, PurchaseSpec{
			AccountID:  accountID,
			Product:    productPhone,
			Initial:    phoneInitial,
			OnExisting: DiscountAmount(discountKeepPct),
			Now:        now,
		}},
		{UpsertStrategy{}, PurchaseSpec{
			AccountID: accountID,
			Product:   productHeadphones,
			Initial:   headphonesPrice,
			Now:       now,
		}},
	}

	for _, line := range lines {
		outcome, err := line.strategy.Reconcile(sc, r.store.Purchases(), line.spec)
		if err != nil {
			r.abort(ctx, txn, log)
			return nil, fmt.Errorf("RunSuccessScenario: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := txn.Commit(ctx); err != nil {
		r.abort(ctx, txn, log)
		return nil, fmt.Errorf("RunSuccessScenario: %w", err)
	}

	log.Info().Int("steps", len(outcomes)).Msg("transaction committed")
	fmt.Fprintln(r.out, "--- transaction committed ---")
	for _, o := range outcomes {
		fmt.Fprintf(r.out, "  %s\n", o)
	}
	return outcomes, nil
}

// RunFailureScenario opens an independent transaction, inserts a second
// account and one purchase, and then runs the spending policy check. The
// check rejects the purchase, so the transaction is aborted and the
// rejection is logged and swallowed; commit is never reached on this path.
// Only store faults are returned.
func (r *Runner) RunFailureScenario(ctx context.Context) error {
	log := r.log.With().Str("run_id", uuid.NewString()).Str("scenario", "failure").Logger()

	txn, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("RunFailureScenario: begin transaction: %w", err)
	}
	defer txn.Close(ctx)
	sc := txn.Context(ctx)
	now := r.now()

	account := &Account{
		Name:      rejectedAccountName,
		Email:     rejectedAccountEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	accountID, err := r.store.Accounts().Insert(sc, account)
	if err != nil {
		r.abort(ctx, txn, log)
		return fmt.Errorf("RunFailureScenario: insert account: %w", err)
	}

	purchase := &Purchase{
		AccountID:   accountID,
		Product:     rejectedProduct,
		Amount:      tabletPrice,
		Receipt:     uuid.NewString(),
		PurchasedAt: now,
	}
	if _, err := r.store.Purchases().Insert(sc, purchase); err != nil {
		r.abort(ctx, txn, log)
		return fmt.Errorf("RunFailureScenario: insert purchase: %w", err)
	}

	if rejection := checkPurchaseLimit(purchase); rejection != nil {
		log.Warn().
			Str("rule", rejection.Rule).
			Str("detail", rejection.Detail).
			Msg("business rule rejected the purchase, aborting transaction")
		if err := txn.Abort(ctx); err != nil {
			return fmt.Errorf("RunFailureScenario: abort: %w", err)
		}
		fmt.Fprintf(r.out, "--- transaction aborted: %s ---\n", rejection.Reason())
		return nil
	}

	if err := txn.Commit(ctx); err != nil {
		r.abort(ctx, txn, log)
		return fmt.Errorf("RunFailureScenario: %w", err)
	}
	log.Info().Msg("transaction committed")
	return nil
}

// reconcileAccount finds the account by email inside the transaction,
// inserting it on first run and touching name/timestamp on later ones.
func (r *Runner) reconcileAccount(ctx context.Context, name, email string, now time.Time) (bson.ObjectID, Outcome, error) {
	existing, err := r.store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		return bson.NilObjectID, Outcome{}, fmt.Errorf("reconcileAccount: find %q: %w", email, err)
	}

	if existing == nil {
		a := &Account{
			Name:      name,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		id, err := r.store.Accounts().Insert(ctx, a)
		if err != nil {
			return bson.NilObjectID, Outcome{}, fmt.Errorf("reconcileAccount: insert %q: %w", email, err)
		}
		return id, Outcome{Kind: "account", Label: email, Action: ActionInserted, After: name}, nil
	}

	if err := r.store.Accounts().UpdateName(ctx, existing.ID, name, now); err != nil {
		return bson.NilObjectID, Outcome{}, fmt.Errorf("reconcileAccount: update %q: %w", email, err)
	}
	return existing.ID, Outcome{
		Kind:   "account",
		Label:  email,
		Action: ActionUpdated,
		Before: existing.Name,
		After:  name,
	}, nil
}

// abort attempts the rollback once and logs instead of failing: the caller
// is already propagating the primary error.
func (r *Runner) abort(ctx context.Context, txn Txn, log zerolog.Logger) {
	if err := txn.Abort(ctx); err != nil {
		log.Error().Err(err).Msg("abort after failure also failed")
	}
}

// checkPurchaseLimit is the demo's spending policy: any single purchase over
// the cap is rejected.
func checkPurchaseLimit(p *Purchase) *PolicyRejection {
	cents, err := ParseCents(p.Amount)
	if err != nil {
		return &PolicyRejection{Rule: "purchase-limit", Detail: fmt.Sprintf("unreadable amount: %v", err)}
	}
	limit, err := ParseCents(purchaseLimit)
	if err != nil {
		return &PolicyRejection{Rule: "purchase-limit", Detail: fmt.Sprintf("unreadable limit: %v", err)}
	}
	if cents > limit {
		return &PolicyRejection{
			Rule: "purchase-limit",
			Detail: fmt.Sprintf("%s at %s exceeds the %s single-purchase limit",
				p.Product, FormatAmount(p.Amount), FormatAmount(purchaseLimit)),
		}
	}
	return nil
}
