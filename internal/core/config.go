package core

import (
	"errors"

	"monkeycore/pkg/domain"
)

// Ledger policy defaults.
const (
	DefaultFounderCap     uint32 = 12
	DefaultDemoGeneration uint32 = 99
	DefaultSentinelGenes  uint64 = 1214131177989271
	DefaultMarketplace           = Identity("marketplace")
	DefaultTreasury              = Identity("treasury")
)

// DefaultBreedingFee is charged by Breed and MintDemo.
var DefaultBreedingFee = domain.NewAmount(50)

// Config holds ledger policy. Zero fields take their defaults.
type Config struct {
	// RegistryOwner controls the registry domain and mints founders.
	RegistryOwner Identity
	// MarketOwner controls the market domain. Defaults to RegistryOwner.
	MarketOwner Identity
	// Marketplace is the identity sellers grant operator approval to.
	Marketplace Identity
	// Treasury collects breeding fees and is the allowance spender of the
	// default fee currency.
	Treasury       Identity
	FounderCap     uint32
	BreedingFee    Amount
	DemoGeneration uint32
	SentinelGenes  uint64
	// AssetCapacity bounds the number of mintable ids; 0 is unbounded.
	AssetCapacity uint64
}

func (c Config) withDefaults() Config {
	if c.MarketOwner.IsNull() {
		c.MarketOwner = c.RegistryOwner
	}
	if c.Marketplace.IsNull() {
		c.Marketplace = DefaultMarketplace
	}
	if c.Treasury.IsNull() {
		c.Treasury = DefaultTreasury
	}
	if c.FounderCap == 0 {
		c.FounderCap = DefaultFounderCap
	}
	if c.BreedingFee.IsZero() {
		c.BreedingFee = DefaultBreedingFee
	}
	if c.DemoGeneration == 0 {
		c.DemoGeneration = DefaultDemoGeneration
	}
	if c.SentinelGenes == 0 {
		c.SentinelGenes = DefaultSentinelGenes
	}
	return c
}

func (c Config) validate() error {
	if c.RegistryOwner.IsNull() {
		return errors.New("registry owner is required")
	}
	return nil
}
