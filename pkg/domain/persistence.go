package domain

import "context"

// TransactionView provides read-only access to ledger state. Slices returned
// by a view are copies owned by the caller.
type TransactionView interface {
	FindAsset(id AssetID) (Asset, bool)
	NextID() AssetID
	TotalSupply() int
	AllAssets() []AssetID
	OwnedAssets(owner Identity) []AssetID
	OwnedIndex(id AssetID) (int, bool)
	BalanceOf(owner Identity) int
	Approved(id AssetID) Identity
	IsOperator(owner, operator Identity) bool
	FindOffer(id AssetID) (Offer, bool)
	OfferCount() int
	OfferAt(index int) (Offer, bool)
	ActiveOfferIDs() []AssetID
	Founders() uint32
	Control(d Domain) (Control, bool)
}

// Transaction exposes the ledger mutations a persistence implementation must
// support within an atomic scope. Every mutation either succeeds or leaves the
// transaction state untouched; a failed transaction is rolled back as a whole.
type Transaction interface {
	TransactionView

	// Snapshot returns a read-only view over the transactional state.
	Snapshot() TransactionView

	// CreateAsset assigns the next id to a and records it for a.Owner. Only
	// the sentinel may be created with the null owner.
	CreateAsset(a Asset) (Asset, error)
	// TransferAsset moves id to a new owner, clearing its per-asset approval.
	// It fails with ErrStillListed while the asset has an active offer.
	TransferAsset(id AssetID, to Identity) (Asset, error)
	// SettleOffer removes the active offer for id and moves the asset from the
	// seller to buyer. It is the only path that moves a listed asset.
	SettleOffer(id AssetID, buyer Identity) (Offer, error)
	SetApproval(id AssetID, approved Identity) error
	SetOperator(owner, operator Identity, approved bool) error
	PutOffer(o Offer) (Offer, error)
	DeleteOffer(id AssetID) (Offer, error)
	IncrementFounders() uint32
	PutControl(c Control) error

	// Charge debits payer immediately; the debit is refunded if the
	// transaction later aborts.
	Charge(c Currency, payer Identity, amount Amount) error
	// Pay credits payee immediately; the credit is reverted if the transaction
	// later aborts.
	Pay(c Currency, payee Identity, amount Amount) error
}

// PersistentStore is the abstraction over durable backends used by the
// service layer.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	ImportState(Snapshot) error
	// ReplaceState imports snapshot only if guard accepts the current state.
	// guard runs under the same exclusive section as the replacement.
	ReplaceState(snapshot Snapshot, guard func(TransactionView) error) error
}
