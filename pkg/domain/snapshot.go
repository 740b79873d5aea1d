package domain

import (
	"encoding/json"
	"fmt"
)

// SnapshotVersion is the current snapshot layout version.
const SnapshotVersion = 1

// Snapshot is a complete, self-consistent copy of ledger state. List fields
// keep their internal enumeration order so a restored ledger enumerates
// exactly like the one it was taken from.
type Snapshot struct {
	Version   int                     `json:"version"`
	NextID    AssetID                 `json:"next_id"`
	Founders  uint32                  `json:"founders"`
	Assets    []Asset                 `json:"assets"`
	All       []AssetID               `json:"all_assets"`
	Owned     map[Identity][]AssetID  `json:"owned"`
	Approvals map[AssetID]Identity    `json:"approvals"`
	Operators map[Identity][]Identity `json:"operators"`
	Offers    []Offer                 `json:"offers"`
	Controls  []Control               `json:"controls"`
}

// Snapshot bucket names used by durable backends.
const (
	BucketMeta      = "meta"
	BucketAssets    = "assets"
	BucketOwnership = "ownership"
	BucketOffers    = "offers"
	BucketControls  = "controls"
)

// Buckets lists every snapshot bucket in write order.
var Buckets = []string{BucketMeta, BucketAssets, BucketOwnership, BucketOffers, BucketControls}

type metaBucket struct {
	Version  int     `json:"version"`
	NextID   AssetID `json:"next_id"`
	Founders uint32  `json:"founders"`
}

type ownershipBucket struct {
	All       []AssetID               `json:"all_assets"`
	Owned     map[Identity][]AssetID  `json:"owned"`
	Approvals map[AssetID]Identity    `json:"approvals"`
	Operators map[Identity][]Identity `json:"operators"`
}

// EncodeBuckets splits a snapshot into JSON payloads keyed by bucket name.
func EncodeBuckets(s Snapshot) (map[string][]byte, error) {
	parts := map[string]any{
		BucketMeta:      metaBucket{Version: s.Version, NextID: s.NextID, Founders: s.Founders},
		BucketAssets:    s.Assets,
		BucketOwnership: ownershipBucket{All: s.All, Owned: s.Owned, Approvals: s.Approvals, Operators: s.Operators},
		BucketOffers:    s.Offers,
		BucketControls:  s.Controls,
	}
	out := make(map[string][]byte, len(parts))
	for _, bucket := range Buckets {
		data, err := json.Marshal(parts[bucket])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets reassembles a snapshot from bucket payloads. Unknown buckets
// are ignored. ok is false when no meta bucket is present, meaning nothing
// has been persisted yet.
func DecodeBuckets(payloads map[string][]byte) (snapshot Snapshot, ok bool, err error) {
	raw, found := payloads[BucketMeta]
	if !found {
		return Snapshot{}, false, nil
	}
	var meta metaBucket
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode %s: %w", BucketMeta, err)
	}
	snapshot.Version = meta.Version
	snapshot.NextID = meta.NextID
	snapshot.Founders = meta.Founders

	var ownership ownershipBucket
	targets := map[string]any{
		BucketAssets:    &snapshot.Assets,
		BucketOwnership: &ownership,
		BucketOffers:    &snapshot.Offers,
		BucketControls:  &snapshot.Controls,
	}
	for bucket, target := range targets {
		data, found := payloads[bucket]
		if !found {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return Snapshot{}, false, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	snapshot.All = ownership.All
	snapshot.Owned = ownership.Owned
	snapshot.Approvals = ownership.Approvals
	snapshot.Operators = ownership.Operators
	return snapshot, true, nil
}
