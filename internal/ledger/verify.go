package ledger

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Verifier reads both collections outside any transaction and renders their
// full contents, so an observer can confirm what committed and what rolled
// back. Records come back in store-default order; no sort is applied.
type Verifier struct {
	store Store
	out   io.Writer
}

// NewVerifier creates a verifier writing listings to out.
func NewVerifier(store Store, out io.Writer) *Verifier {
	return &Verifier{store: store, out: out}
}

// Report lists every account and purchase currently visible to a
// session-free reader.
func (v *Verifier) Report(ctx context.Context) error {
	accounts, err := v.store.Accounts().List(ctx)
	if err != nil {
		return fmt.Errorf("Report: list accounts: %w", err)
	}
	fmt.Fprintf(v.out, "accounts: %d\n", len(accounts))
	for _, a := range accounts {
		fmt.Fprintf(v.out, "  %s  %s <%s>  updated %s\n",
			a.ID.Hex(), a.Name, a.Email, a.UpdatedAt.Format(time.RFC3339))
	}

	purchases, err := v.store.Purchases().List(ctx)
	if err != nil {
		return fmt.Errorf("Report: list purchases: %w", err)
	}
	fmt.Fprintf(v.out, "purchases: %d\n", len(purchases))
	for _, p := range purchases {
		fmt.Fprintf(v.out, "  %s  %-12s %10s  account=%s receipt=%s\n",
			p.ID.Hex(), p.Product, FormatAmount(p.Amount), p.AccountID.Hex(), p.Receipt)
	}
	return nil
}
