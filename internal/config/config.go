// Package config loads monkeycore settings from MONKEYCORE_* environment
// variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"monkeycore/internal/blob"
	"monkeycore/internal/core"
	"monkeycore/pkg/domain"
)

// Prefix is prepended to every variable name.
const Prefix = "MONKEYCORE_"

// Config is the full process configuration.
type Config struct {
	StorageDriver core.StorageDriver `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string             `env:"SQLITE_PATH"`
	PostgresDSN   string             `env:"POSTGRES_DSN"`

	Blob          blob.Config `envPrefix:"BLOB_"`
	ArchivePrefix string      `env:"ARCHIVE_PREFIX"`

	RegistryOwner  domain.Identity `env:"REGISTRY_OWNER"`
	MarketOwner    domain.Identity `env:"MARKET_OWNER"`
	Marketplace    domain.Identity `env:"MARKET_IDENTITY" envDefault:"marketplace"`
	Treasury       domain.Identity `env:"TREASURY" envDefault:"treasury"`
	FounderCap     uint32          `env:"FOUNDER_CAP" envDefault:"12"`
	BreedingFee    domain.Amount   `env:"BREEDING_FEE" envDefault:"50"`
	DemoGeneration uint32          `env:"DEMO_GENERATION" envDefault:"99"`
	AssetCapacity  uint64          `env:"ASSET_CAPACITY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses vars instead of the process environment. Keys carry the
// MONKEYCORE_ prefix.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Storage returns the persistent store selection.
func (c Config) Storage() core.StorageConfig {
	return core.StorageConfig{Driver: c.StorageDriver, SQLitePath: c.SQLitePath, PostgresDSN: c.PostgresDSN}
}

// Ledger returns the service policy.
func (c Config) Ledger() core.Config {
	return core.Config{
		RegistryOwner:  c.RegistryOwner,
		MarketOwner:    c.MarketOwner,
		Marketplace:    c.Marketplace,
		Treasury:       c.Treasury,
		FounderCap:     c.FounderCap,
		BreedingFee:    c.BreedingFee,
		DemoGeneration: c.DemoGeneration,
		AssetCapacity:  c.AssetCapacity,
	}
}
