// Package config loads the quote server configuration from an optional TOML
// file with environment overrides on top.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// TokenSeed declares an asset the ledger issues at startup.
type TokenSeed struct {
	Address string `toml:"address"`
	Name    string `toml:"name"`
	Symbol  string `toml:"symbol"`
}

// PoolSeed declares a pool to create and fund at startup. Reserves are
// base-10 integer strings in the asset's smallest unit.
type PoolSeed struct {
	TokenA   string `toml:"token_a"`
	TokenB   string `toml:"token_b"`
	ReserveA string `toml:"reserve_a"`
	ReserveB string `toml:"reserve_b"`
}

type Config struct {
	Addr          string      `toml:"addr"`
	LogLevel      string      `toml:"log_level"`
	Owner         string      `toml:"owner"`
	FeeTo         string      `toml:"fee_to"`
	QuoteCacheTTL int         `toml:"quote_cache_ttl_seconds"`
	OraclePeriod  uint64      `toml:"oracle_period_seconds"`
	Tokens        []TokenSeed `toml:"tokens"`
	Pools         []PoolSeed  `toml:"pools"`
}

// Load reads the TOML file at path when it exists, then applies environment
// overrides and defaults. A missing file is not an error; the environment
// alone can configure a bare server.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if cfg.Addr == "" {
		cfg.Addr = ":1337"
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if owner := os.Getenv("OWNER"); owner != "" {
		cfg.Owner = owner
	}
	if cfg.Owner == "" {
		return nil, ErrMissingOwner
	}

	if feeTo := os.Getenv("FEE_TO"); feeTo != "" {
		cfg.FeeTo = feeTo
	}

	if cfg.QuoteCacheTTL <= 0 {
		cfg.QuoteCacheTTL = 2
	}

	return cfg, nil
}
