// Package config holds the run-scoped connection configuration for the demo.
// Values are built once at startup and passed into constructors; nothing in
// this package is global mutable state.
package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// DefaultURI points at a local three-member replica set. Reads are
	// allowed on secondaries; the transaction itself always talks to the
	// primary.
	DefaultURI = "mongodb://localhost:27017,localhost:27018,localhost:27019/?replicaSet=rs0"

	DefaultDatabase = "shopledger"

	envURI      = "SHOPLEDGER_URI"
	envDatabase = "SHOPLEDGER_DB"
)

// Config identifies the store the workflow runs against.
type Config struct {
	// URI is the MongoDB connection string, handed to the driver unparsed.
	URI string

	// Database is the logical database holding both collections.
	Database string

	// ReadPreference names which replica-set members may serve reads:
	// primary, primaryPreferred, secondary, secondaryPreferred or nearest.
	ReadPreference string

	AccountsCollection  string
	PurchasesCollection string

	// SelectionTimeout bounds how long the driver waits for a healthy
	// member before a session is declared unavailable.
	SelectionTimeout time.Duration
}

// Default returns the built-in local replica-set configuration.
func Default() Config {
	return Config{
		URI:                 DefaultURI,
		Database:            DefaultDatabase,
		ReadPreference:      "secondaryPreferred",
		AccountsCollection:  "accounts",
		PurchasesCollection: "purchases",
		SelectionTimeout:    10 * time.Second,
	}
}

// FromEnv returns the default configuration with SHOPLEDGER_URI and
// SHOPLEDGER_DB overrides applied when set.
func FromEnv() Config {
	cfg := Default()
	if uri := os.Getenv(envURI); uri != "" {
		cfg.URI = uri
	}
	if db := os.Getenv(envDatabase); db != "" {
		cfg.Database = db
	}
	return cfg
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("Validate: connection URI is required")
	}
	if c.Database == "" {
		return fmt.Errorf("Validate: database name is required")
	}
	if c.AccountsCollection == "" || c.PurchasesCollection == "" {
		return fmt.Errorf("Validate: collection names are required")
	}
	if c.SelectionTimeout <= 0 {
		return fmt.Errorf("Validate: selection timeout must be positive")
	}
	return nil
}
