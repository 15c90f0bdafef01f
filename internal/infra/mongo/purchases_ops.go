package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PurchaseRepo is the MongoDB-backed implementation of
// ledger.PurchaseRepository.
type PurchaseRepo struct {
	coll *mongo.Collection
}

// NewPurchaseRepo creates a repository over the given collection.
func NewPurchaseRepo(coll *mongo.Collection) *PurchaseRepo {
	return &PurchaseRepo{coll: coll}
}

// FindByOwnerAndProduct implements the ledger.PurchaseRepository interface.
func (r *PurchaseRepo) FindByOwnerAndProduct(ctx context.Context, owner bson.ObjectID, product string) (*ledger.Purchase, error) {
	var p ledger.Purchase
	err := r.coll.FindOne(ctx, bson.M{"account_id": owner, "product": product}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByOwnerAndProduct: %q: %w", product, err)
	}
	return &p, nil
}

// Insert implements the ledger.PurchaseRepository interface.
func (r *PurchaseRepo) Insert(ctx context.Context, p *ledger.Purchase) (bson.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("Insert: purchase %q: %w", p.Product, err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return bson.NilObjectID, fmt.Errorf("Insert: purchase %q: unexpected id type %T", p.Product, res.InsertedID)
	}
	return id, nil
}

// UpdateAmount implements the ledger.PurchaseRepository interface.
func (r *PurchaseRepo) UpdateAmount(ctx context.Context, id bson.ObjectID, amount bson.Decimal128, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"amount": amount, "purchased_at": at}})
	if err != nil {
		return fmt.Errorf("UpdateAmount: %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("UpdateAmount: purchase not found: %s", id.Hex())
	}
	return nil
}

// Upsert implements the ledger.PurchaseRepository interface. One atomic
// replace keyed on (account_id, product); a matched document keeps its _id
// because the replacement carries none.
func (r *PurchaseRepo) Upsert(ctx context.Context, p *ledger.Purchase) (bool, error) {
	filter := bson.M{"account_id": p.AccountID, "product": p.Product}
	res, err := r.coll.ReplaceOne(ctx, filter, p, options.Replace().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("Upsert: purchase %q: %w", p.Product, err)
	}
	return res.UpsertedCount > 0, nil
}

// List implements the ledger.PurchaseRepository interface.
func (r *PurchaseRepo) List(ctx context.Context) ([]ledger.Purchase, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("List: purchases: %w", err)
	}
	var purchases []ledger.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("List: decoding purchases: %w", err)
	}
	return purchases, nil
}

// DeleteAll implements the ledger.PurchaseRepository interface.
func (r *PurchaseRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("DeleteAll: purchases: %w", err)
	}
	return nil
}

var _ ledger.PurchaseRepository = (*PurchaseRepo)(nil)
