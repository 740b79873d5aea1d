package memory

import (
	"fmt"
	"sort"

	"monkeycore/pkg/domain"
	"monkeycore/pkg/indexset"
)

type memoryState struct {
	assets    map[AssetID]Asset
	nextID    AssetID
	all       *indexset.Set[AssetID]
	owned     map[Identity]*indexset.Set[AssetID]
	approvals map[AssetID]Identity
	operators map[Identity]map[Identity]struct{}
	offers    map[AssetID]Offer
	offerIDs  *indexset.Set[AssetID]
	founders  uint32
	controls  map[domain.Domain]domain.Control
}

func newMemoryState() memoryState {
	return memoryState{
		assets:    make(map[AssetID]Asset),
		all:       indexset.New[AssetID](),
		owned:     make(map[Identity]*indexset.Set[AssetID]),
		approvals: make(map[AssetID]Identity),
		operators: make(map[Identity]map[Identity]struct{}),
		offers:    make(map[AssetID]Offer),
		offerIDs:  indexset.New[AssetID](),
		controls:  make(map[domain.Domain]domain.Control),
	}
}

func (s *memoryState) ownedSet(owner Identity) *indexset.Set[AssetID] {
	set, ok := s.owned[owner]
	if !ok {
		set = indexset.New[AssetID]()
		s.owned[owner] = set
	}
	return set
}

// offer returns the stored offer decorated with its current array position.
func (s *memoryState) offer(id AssetID) (Offer, bool) {
	o, ok := s.offers[id]
	if !ok {
		return Offer{}, false
	}
	o.Index, _ = s.offerIDs.IndexOf(id)
	return o, true
}

func snapshotFromMemoryState(state *memoryState) Snapshot {
	snap := Snapshot{
		Version:   domain.SnapshotVersion,
		NextID:    state.nextID,
		Founders:  state.founders,
		Assets:    make([]Asset, 0, len(state.assets)),
		All:       state.all.Items(),
		Owned:     make(map[Identity][]AssetID, len(state.owned)),
		Approvals: make(map[AssetID]Identity, len(state.approvals)),
		Operators: make(map[Identity][]Identity, len(state.operators)),
		Offers:    make([]Offer, 0, state.offerIDs.Len()),
		Controls:  make([]domain.Control, 0, len(state.controls)),
	}
	for _, a := range state.assets {
		snap.Assets = append(snap.Assets, a)
	}
	sort.Slice(snap.Assets, func(i, j int) bool { return snap.Assets[i].ID < snap.Assets[j].ID })
	for owner, set := range state.owned {
		if set.Len() == 0 {
			continue
		}
		snap.Owned[owner] = set.Items()
	}
	for id, approved := range state.approvals {
		snap.Approvals[id] = approved
	}
	for owner, ops := range state.operators {
		if len(ops) == 0 {
			continue
		}
		list := make([]Identity, 0, len(ops))
		for op := range ops {
			list = append(list, op)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		snap.Operators[owner] = list
	}
	for _, id := range state.offerIDs.Items() {
		o, _ := state.offer(id)
		snap.Offers = append(snap.Offers, o)
	}
	for _, d := range domain.Domains {
		if c, ok := state.controls[d]; ok {
			snap.Controls = append(snap.Controls, c)
		}
	}
	return snap
}

// migrateSnapshot normalizes snapshots written before versioning.
func migrateSnapshot(snap Snapshot) Snapshot {
	if snap.Version == 0 {
		snap.Version = domain.SnapshotVersion
	}
	return snap
}

// memoryStateFromSnapshot rebuilds indexed state and rejects snapshots whose
// ownership indices, offers or controls disagree with each other.
func memoryStateFromSnapshot(snap Snapshot) (memoryState, error) {
	if snap.Version > domain.SnapshotVersion {
		return memoryState{}, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, domain.SnapshotVersion)
	}
	state := newMemoryState()
	state.nextID = snap.NextID
	state.founders = snap.Founders

	for _, a := range snap.Assets {
		if _, dup := state.assets[a.ID]; dup {
			return memoryState{}, fmt.Errorf("duplicate asset %s", a.ID)
		}
		if a.ID >= snap.NextID {
			return memoryState{}, fmt.Errorf("asset %s is not below next id %d", a.ID, snap.NextID)
		}
		if a.ID != domain.SentinelAssetID && a.Owner.IsNull() {
			return memoryState{}, fmt.Errorf("asset %s has no owner", a.ID)
		}
		state.assets[a.ID] = a
	}

	all, err := indexset.From(snap.All)
	if err != nil {
		return memoryState{}, fmt.Errorf("all assets: %w", err)
	}
	state.all = all
	for owner, ids := range snap.Owned {
		set, err := indexset.From(ids)
		if err != nil {
			return memoryState{}, fmt.Errorf("owned by %q: %w", owner, err)
		}
		for _, id := range ids {
			a, ok := state.assets[id]
			if !ok || a.Owner != owner {
				return memoryState{}, fmt.Errorf("asset %s listed for %q but owned by %q", id, owner, a.Owner)
			}
		}
		state.owned[owner] = set
	}
	listed := 0
	for id, a := range state.assets {
		if id == domain.SentinelAssetID {
			if all.Contains(id) {
				return memoryState{}, fmt.Errorf("sentinel asset must not be enumerable")
			}
			continue
		}
		if !all.Contains(id) || !state.owned[a.Owner].Contains(id) {
			return memoryState{}, fmt.Errorf("asset %s missing from enumeration", id)
		}
		listed++
	}
	if listed != all.Len() {
		return memoryState{}, fmt.Errorf("enumeration lists %d assets, %d exist", all.Len(), listed)
	}

	for id, approved := range snap.Approvals {
		if _, ok := state.assets[id]; !ok {
			return memoryState{}, fmt.Errorf("approval for unknown asset %s", id)
		}
		state.approvals[id] = approved
	}
	for owner, ops := range snap.Operators {
		set := make(map[Identity]struct{}, len(ops))
		for _, op := range ops {
			set[op] = struct{}{}
		}
		state.operators[owner] = set
	}
	for _, o := range snap.Offers {
		a, ok := state.assets[o.TokenID]
		if !ok || a.Owner.IsNull() || a.Owner != o.Seller {
			return memoryState{}, fmt.Errorf("offer for %s does not match its owner", o.TokenID)
		}
		if _, added := state.offerIDs.Add(o.TokenID); !added {
			return memoryState{}, fmt.Errorf("duplicate offer for %s", o.TokenID)
		}
		o.Active = true
		o.Index = 0
		state.offers[o.TokenID] = o
	}
	for _, c := range snap.Controls {
		if !c.Domain.Valid() {
			return memoryState{}, fmt.Errorf("control: %w", domain.ErrInvalidDomain)
		}
		state.controls[c.Domain] = c
	}
	return state, nil
}
