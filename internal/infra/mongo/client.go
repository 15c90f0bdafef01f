// Package mongo implements the ledger store against a MongoDB replica set
// using the official driver. Multi-document atomicity, isolation and
// rollback are the server's job; this package only sequences driver calls.
package mongo

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/shop-ledger/internal/config"
	"github.com/dvloznov/shop-ledger/internal/ledger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Store is the MongoDB-backed implementation of ledger.Store.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	accounts  *AccountRepo
	purchases *PurchaseRepo
}

// Connect establishes a client against the configured replica set and
// verifies a primary is reachable. Collections are created implicitly by the
// server on first write.
func Connect(ctx context.Context, cfg config.Config) (*Store, error) {
	rp, err := parseReadPreference(cfg.ReadPreference)
	if err != nil {
		return nil, fmt.Errorf("Connect: %w", err)
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetReadPreference(rp).
		SetServerSelectionTimeout(cfg.SelectionTimeout)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("Connect: creating client: %w", err)
	}

	// Transactions need the primary; surface topology problems now rather
	// than on the first Begin.
	pingCtx, cancel := context.WithTimeout(ctx, cfg.SelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("Connect: ping primary: %w: %w", err, ledger.ErrSessionUnavailable)
	}

	db := client.Database(cfg.Database)
	return &Store{
		client:    client,
		db:        db,
		accounts:  NewAccountRepo(db.Collection(cfg.AccountsCollection)),
		purchases: NewPurchaseRepo(db.Collection(cfg.PurchasesCollection)),
	}, nil
}

// Accounts implements the ledger.Store interface.
func (s *Store) Accounts() ledger.AccountRepository { return s.accounts }

// Purchases implements the ledger.Store interface.
func (s *Store) Purchases() ledger.PurchaseRepository { return s.purchases }

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

func parseReadPreference(name string) (*readpref.ReadPref, error) {
	switch strings.ToLower(name) {
	case "", "primary":
		return readpref.Primary(), nil
	case "primarypreferred":
		return readpref.PrimaryPreferred(), nil
	case "secondary":
		return readpref.Secondary(), nil
	case "secondarypreferred":
		return readpref.SecondaryPreferred(), nil
	case "nearest":
		return readpref.Nearest(), nil
	default:
		return nil, fmt.Errorf("parseReadPreference: unknown mode %q", name)
	}
}

// Ensure Store implements the ledger interface.
var _ ledger.Store = (*Store)(nil)
