// Package core implements the monkeycore ledger service: the ownership
// registry, the access control and pause gate, the breeding engine and the
// marketplace order book, all executed as atomic transactions over a
// domain.PersistentStore.
package core

import "monkeycore/pkg/domain"

type (
	Identity        = domain.Identity
	AssetID         = domain.AssetID
	Asset           = domain.Asset
	Offer           = domain.Offer
	Amount          = domain.Amount
	Domain          = domain.Domain
	Control         = domain.Control
	Change          = domain.Change
	Result          = domain.Result
	Violation       = domain.Violation
	Event           = domain.Event
	Snapshot        = domain.Snapshot
	Currency        = domain.Currency
	Rule            = domain.Rule
	RulesEngine     = domain.RulesEngine
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

const (
	DomainRegistry = domain.DomainRegistry
	DomainMarket   = domain.DomainMarket
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
