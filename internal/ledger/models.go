package ledger

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account is a named entity owning zero or more purchases. Email is the
// natural key; the workflow never creates two accounts with the same email.
type Account struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// Purchase belongs to exactly one Account. The (AccountID, Product) pair is
// the natural key; the foreign key is enforced by workflow order (the account
// is always reconciled before its purchases), not by a store constraint.
type Purchase struct {
	ID          bson.ObjectID   `bson:"_id,omitempty"`
	AccountID   bson.ObjectID   `bson:"account_id"`
	Product     string          `bson:"product"`
	Amount      bson.Decimal128 `bson:"amount"`
	Receipt     string          `bson:"receipt"`
	PurchasedAt time.Time       `bson:"purchased_at"`
}
