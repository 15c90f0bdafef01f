package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
	if cfg.Database != "shopledger" {
		t.Errorf("Expected database 'shopledger', got %q", cfg.Database)
	}
	if cfg.AccountsCollection != "accounts" || cfg.PurchasesCollection != "purchases" {
		t.Errorf("Unexpected collection names: %q, %q", cfg.AccountsCollection, cfg.PurchasesCollection)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SHOPLEDGER_URI", "mongodb://db1:27017/?replicaSet=demo")
	t.Setenv("SHOPLEDGER_DB", "demo")

	cfg := FromEnv()

	if cfg.URI != "mongodb://db1:27017/?replicaSet=demo" {
		t.Errorf("Expected URI from env, got %q", cfg.URI)
	}
	if cfg.Database != "demo" {
		t.Errorf("Expected database from env, got %q", cfg.Database)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SHOPLEDGER_URI", "")
	t.Setenv("SHOPLEDGER_DB", "")

	cfg := FromEnv()

	if cfg.URI != DefaultURI {
		t.Errorf("Expected default URI, got %q", cfg.URI)
	}
	if cfg.Database != DefaultDatabase {
		t.Errorf("Expected default database, got %q", cfg.Database)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"missing URI", func(c *Config) { c.URI = "" }, false},
		{"missing database", func(c *Config) { c.Database = "" }, false},
		{"missing collection", func(c *Config) { c.AccountsCollection = "" }, false},
		{"zero timeout", func(c *Config) { c.SelectionTimeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config, got: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
