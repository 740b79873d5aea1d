package domain

// Event is an observable side effect published after a successful commit.
// Event names and payload fields are consumed by external indexers and must
// remain stable.
type Event interface {
	EventName() string
}

// Event names.
const (
	EventAssetCreated         = "AssetCreated"
	EventAssetTransferred     = "AssetTransferred"
	EventApproval             = "Approval"
	EventApprovalForAll       = "ApprovalForAll"
	EventOfferCreated         = "OfferCreated"
	EventOfferRemoved         = "OfferRemoved"
	EventAssetSold            = "AssetSold"
	EventMarketTransaction    = "MarketTransaction"
	EventPaused               = "Paused"
	EventUnpaused             = "Unpaused"
	EventOwnershipTransferred = "OwnershipTransferred"
)

// Market transaction kinds carried by MarketTransaction.
const (
	MarketCreateOffer = "Create offer"
	MarketRemoveOffer = "Remove offer"
	MarketBuy         = "Buy"
)

type AssetCreated struct {
	Owner   Identity `json:"owner"`
	ID      AssetID  `json:"id"`
	ParentA AssetID  `json:"parent_a"`
	ParentB AssetID  `json:"parent_b"`
	Genes   uint64   `json:"genes"`
}

type AssetTransferred struct {
	From Identity `json:"from"`
	To   Identity `json:"to"`
	ID   AssetID  `json:"id"`
}

type Approval struct {
	Owner    Identity `json:"owner"`
	Approved Identity `json:"approved"`
	ID       AssetID  `json:"id"`
}

type ApprovalForAll struct {
	Owner    Identity `json:"owner"`
	Operator Identity `json:"operator"`
	Approved bool     `json:"approved"`
}

type OfferCreated struct {
	Seller Identity `json:"seller"`
	ID     AssetID  `json:"id"`
}

type OfferRemoved struct {
	Actor Identity `json:"actor"`
	ID    AssetID  `json:"id"`
}

type AssetSold struct {
	Seller Identity `json:"seller"`
	Buyer  Identity `json:"buyer"`
	Price  Amount   `json:"price"`
	ID     AssetID  `json:"id"`
}

// MarketTransaction is the generic marketplace activity record.
type MarketTransaction struct {
	Kind  string   `json:"kind"`
	Actor Identity `json:"actor"`
	ID    AssetID  `json:"id"`
}

type Paused struct {
	Domain Domain   `json:"domain"`
	Actor  Identity `json:"actor"`
}

type Unpaused struct {
	Domain Domain   `json:"domain"`
	Actor  Identity `json:"actor"`
}

type OwnershipTransferred struct {
	Domain   Domain   `json:"domain"`
	Previous Identity `json:"previous"`
	New      Identity `json:"new"`
}

func (AssetCreated) EventName() string         { return EventAssetCreated }
func (AssetTransferred) EventName() string     { return EventAssetTransferred }
func (Approval) EventName() string             { return EventApproval }
func (ApprovalForAll) EventName() string       { return EventApprovalForAll }
func (OfferCreated) EventName() string         { return EventOfferCreated }
func (OfferRemoved) EventName() string         { return EventOfferRemoved }
func (AssetSold) EventName() string            { return EventAssetSold }
func (MarketTransaction) EventName() string    { return EventMarketTransaction }
func (Paused) EventName() string               { return EventPaused }
func (Unpaused) EventName() string             { return EventUnpaused }
func (OwnershipTransferred) EventName() string { return EventOwnershipTransferred }
