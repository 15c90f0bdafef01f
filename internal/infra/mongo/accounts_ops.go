package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// AccountRepo is the MongoDB-backed implementation of
// ledger.AccountRepository.
type AccountRepo struct {
	coll *mongo.Collection
}

// NewAccountRepo creates a repository over the given collection.
func NewAccountRepo(coll *mongo.Collection) *AccountRepo {
	return &AccountRepo{coll: coll}
}

// FindByEmail implements the ledger.AccountRepository interface. A missing
// record is (nil, nil), not an error.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*ledger.Account, error) {
	var a ledger.Account
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByEmail: %q: %w", email, err)
	}
	return &a, nil
}

// Insert implements the ledger.AccountRepository interface.
func (r *AccountRepo) Insert(ctx context.Context, a *ledger.Account) (bson.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, a)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("Insert: account %q: %w", a.Email, err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return bson.NilObjectID, fmt.Errorf("Insert: account %q: unexpected id type %T", a.Email, res.InsertedID)
	}
	return id, nil
}

// UpdateName implements the ledger.AccountRepository interface. Mutates the
// name and timestamp only, never the identity.
func (r *AccountRepo) UpdateName(ctx context.Context, id bson.ObjectID, name string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "updated_at": at}})
	if err != nil {
		return fmt.Errorf("UpdateName: %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("UpdateName: account not found: %s", id.Hex())
	}
	return nil
}

// List implements the ledger.AccountRepository interface. No sort is
// applied; order is whatever the server returns.
func (r *AccountRepo) List(ctx context.Context) ([]ledger.Account, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("List: accounts: %w", err)
	}
	var accounts []ledger.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("List: decoding accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAll implements the ledger.AccountRepository interface. The
// out-of-band reset step; never part of a transaction.
func (r *AccountRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("DeleteAll: accounts: %w", err)
	}
	return nil
}

var _ ledger.AccountRepository = (*AccountRepo)(nil)
