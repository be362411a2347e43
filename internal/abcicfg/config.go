// Copyright 2025 Certen Protocol
//
// Package abcicfg loads the ABCI harness's own configuration: the
// constraint machine itself takes no configuration — it is a pure
// library — but the harness wrapping it needs a chain id, a store
// backend selection, and virtualization toggles. The file is YAML, with
// ${VAR} / ${VAR:-default} environment references expanded before parsing.
package abcicfg

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// StoreBackend selects which store.EngineStore implementation the
// harness constructs.
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendPostgres StoreBackend = "postgres"
)

// Config is the harness's full configuration surface.
type Config struct {
	ChainID string `yaml:"chain_id"`

	Store struct {
		Backend    StoreBackend `yaml:"backend"`
		PostgresDSN string      `yaml:"postgres_dsn"`
	} `yaml:"store"`

	Virtualization struct {
		// Enabled is the harness's virtualization toggle. Load only
		// parses it; no code in this module reads it, and cm.Machine
		// installs its RRI-zero-nonce transformer regardless.
		Enabled bool `yaml:"enabled"`
	} `yaml:"virtualization"`

	Recovery struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"recovery"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// applyDefaults fills in zero-valued fields with the harness's defaults.
func (c *Config) applyDefaults() {
	if c.ChainID == "" {
		c.ChainID = "constraint-engine-devnet"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreBackendMemory
	}
	if c.Recovery.DBPath == "" {
		c.Recovery.DBPath = "./data/abci-recovery"
	}
}

// Load reads and parses a YAML config file at path, substituting
// ${VAR_NAME} references against the process environment first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyDefaults()

	if cfg.Store.Backend != StoreBackendMemory && cfg.Store.Backend != StoreBackendPostgres {
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == StoreBackendPostgres && cfg.Store.PostgresDSN == "" {
		return nil, fmt.Errorf("store.postgres_dsn is required when store.backend is %q", StoreBackendPostgres)
	}

	return &cfg, nil
}
