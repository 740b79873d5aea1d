package memory

import "monkeycore/pkg/domain"

// view exposes read-only access to a state. It is used for committed reads
// and, through transaction.Snapshot, for rule evaluation.
type view struct {
	state *memoryState
}

func (v view) FindAsset(id AssetID) (Asset, bool) {
	a, ok := v.state.assets[id]
	return a, ok
}

func (v view) NextID() AssetID { return v.state.nextID }

func (v view) TotalSupply() int { return v.state.all.Len() }

func (v view) AllAssets() []AssetID { return v.state.all.Items() }

func (v view) OwnedAssets(owner Identity) []AssetID {
	if owner.IsNull() {
		return []AssetID{}
	}
	return v.state.owned[owner].Items()
}

func (v view) OwnedIndex(id AssetID) (int, bool) {
	a, ok := v.state.assets[id]
	if !ok || a.Owner.IsNull() {
		return 0, false
	}
	return v.state.owned[a.Owner].IndexOf(id)
}

func (v view) BalanceOf(owner Identity) int {
	if owner.IsNull() {
		return 0
	}
	return v.state.owned[owner].Len()
}

func (v view) Approved(id AssetID) Identity { return v.state.approvals[id] }

func (v view) IsOperator(owner, operator Identity) bool {
	_, ok := v.state.operators[owner][operator]
	return ok
}

func (v view) FindOffer(id AssetID) (Offer, bool) { return v.state.offer(id) }

func (v view) OfferCount() int { return v.state.offerIDs.Len() }

func (v view) OfferAt(index int) (Offer, bool) {
	if index < 0 || index >= v.state.offerIDs.Len() {
		return Offer{}, false
	}
	return v.state.offer(v.state.offerIDs.At(index))
}

// ActiveOfferIDs is rebuilt on every call from the offer array order.
func (v view) ActiveOfferIDs() []AssetID {
	out := make([]AssetID, 0, v.state.offerIDs.Len())
	for _, id := range v.state.offerIDs.Items() {
		if o := v.state.offers[id]; o.Active {
			out = append(out, id)
		}
	}
	return out
}

func (v view) Founders() uint32 { return v.state.founders }

func (v view) Control(d domain.Domain) (domain.Control, bool) {
	c, ok := v.state.controls[d]
	return c, ok
}
