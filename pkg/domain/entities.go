// Package domain defines the core ledger records, value types, error taxonomy
// and rule evaluation primitives used by monkeycore.
package domain

import "fmt"

// EntityType identifies the type of record touched by a Change.
type EntityType string

// Supported entity type identifiers used in Change records.
const (
	// EntityAsset identifies a creature record.
	EntityAsset EntityType = "asset"
	// EntityOffer identifies a marketplace listing.
	EntityOffer EntityType = "offer"
	// EntityApproval identifies a per-asset or operator approval.
	EntityApproval EntityType = "approval"
	// EntityControl identifies an access/pause control record.
	EntityControl EntityType = "control"
)

// Identity is an authenticated caller or account. The empty identity is the
// null identity: it never owns anything and cannot receive assets.
type Identity string

// NullIdentity is the zero identity.
const NullIdentity Identity = ""

// IsNull reports whether id is the null identity.
func (id Identity) IsNull() bool { return id == NullIdentity }

// AssetID identifies a creature. IDs are monotonic and never reused.
type AssetID uint64

// SentinelAssetID is permanently burned and excluded from supply.
const SentinelAssetID AssetID = 0

func (id AssetID) String() string { return fmt.Sprintf("#%d", uint64(id)) }

// Asset is the creature record. Only Owner changes after creation.
type Asset struct {
	ID         AssetID  `json:"id" yaml:"id"`
	Genes      uint64   `json:"genes" yaml:"genes"`
	Generation uint32   `json:"generation" yaml:"generation"`
	ParentA    AssetID  `json:"parent_a" yaml:"parent_a"`
	ParentB    AssetID  `json:"parent_b" yaml:"parent_b"`
	Owner      Identity `json:"owner" yaml:"owner"`
}

// IsFounderLineage reports whether the asset has no recorded parents.
func (a Asset) IsFounderLineage() bool {
	return a.ParentA == SentinelAssetID && a.ParentB == SentinelAssetID
}

// Offer is a marketplace listing for a single asset at a fixed price.
// Index is the listing's current position in the offer array; it moves when
// other listings are removed.
type Offer struct {
	Seller  Identity `json:"seller" yaml:"seller"`
	TokenID AssetID  `json:"token_id" yaml:"token_id"`
	Price   Amount   `json:"price_wei" yaml:"price_wei"`
	Active  bool     `json:"active" yaml:"active"`
	Index   int      `json:"index" yaml:"index"`
}

// Domain names an independent authorization/pause scope.
type Domain string

// The two control domains.
const (
	DomainRegistry Domain = "registry"
	DomainMarket   Domain = "market"
)

// Domains lists every control domain.
var Domains = []Domain{DomainRegistry, DomainMarket}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	return d == DomainRegistry || d == DomainMarket
}

// Control is the owner role and pause flag of one domain.
type Control struct {
	Domain Domain   `json:"domain"`
	Owner  Identity `json:"owner"`
	Paused bool     `json:"paused"`
}

// Change captures a before/after pair recorded inside a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock aborts the transaction.
	SeverityBlock Severity = "block"
	// SeverityWarn is logged but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID AssetID
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rules: %s: %s", v.Rule, v.Message)
		}
	}
	return "transaction blocked by rules"
}
