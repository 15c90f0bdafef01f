package ledger

import "fmt"

// Action reports what a reconciliation step did to a record.
type Action string

const (
	ActionInserted       Action = "inserted"
	ActionUpdated        Action = "updated"
	ActionUpsertInserted Action = "upsert-inserted"
	ActionUpsertReplaced Action = "upsert-replaced"
)

// Outcome is one reconciliation step's report. Before/After carry the
// mutated value (amount or name) for auditability; Before is empty for
// inserts.
type Outcome struct {
	Kind   string // "account" or "purchase"
	Label  string // the natural key's display form: email or product
	Action Action
	Before string
	After  string
}

func (o Outcome) String() string {
	if o.Before == "" {
		return fmt.Sprintf("%s %q %s (%s)", o.Kind, o.Label, o.Action, o.After)
	}
	return fmt.Sprintf("%s %q %s (%s -> %s)", o.Kind, o.Label, o.Action, o.Before, o.After)
}

// PolicyRejection is a business rule's explicit refusal of an in-flight
// transaction. It is an outcome, not an error: the runner branches on it,
// aborts, and carries on.
type PolicyRejection struct {
	Rule   string
	Detail string
}

// Reason renders the rejection for logs and listings.
func (r *PolicyRejection) Reason() string {
	return fmt.Sprintf("%s: %s", r.Rule, r.Detail)
}
