// Copyright 2025 Certen Protocol

package abcicfg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "harness.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "chain_id: \"\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChainID != "constraint-engine-devnet" {
		t.Fatalf("expected default chain id, got %q", cfg.ChainID)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Fatalf("expected default memory backend, got %q", cfg.Store.Backend)
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("TEST_CHAIN_ID", "custom-chain")
	path := writeConfig(t, "chain_id: ${TEST_CHAIN_ID}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChainID != "custom-chain" {
		t.Fatalf("expected substituted chain id, got %q", cfg.ChainID)
	}
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: postgres\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for postgres backend with no dsn")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: mongodb\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unknown store backend")
	}
}
