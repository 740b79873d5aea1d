package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBucketsRoundTrip(t *testing.T) {
	snap := Snapshot{
		Version:  SnapshotVersion,
		NextID:   3,
		Founders: 2,
		Assets: []Asset{
			{ID: 0, Genes: 1214131177989271},
			{ID: 1, Genes: 1111, Owner: "alice"},
			{ID: 2, Genes: 2222, Owner: "alice"},
		},
		All:       []AssetID{1, 2},
		Owned:     map[Identity][]AssetID{"alice": {2, 1}},
		Approvals: map[AssetID]Identity{1: "bob"},
		Operators: map[Identity][]Identity{"alice": {"market"}},
		Offers:    []Offer{{Seller: "alice", TokenID: 2, Price: NewAmount(5), Active: true}},
		Controls:  []Control{{Domain: DomainRegistry, Owner: "root"}, {Domain: DomainMarket, Owner: "root", Paused: true}},
	}
	payloads, err := EncodeBuckets(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(payloads) != len(Buckets) {
		t.Fatalf("expected %d buckets, got %d", len(Buckets), len(payloads))
	}
	got, ok, err := DecodeBuckets(payloads)
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(snap, got, cmp.Comparer(func(a, b Amount) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBucketsEmpty(t *testing.T) {
	_, ok, err := DecodeBuckets(map[string][]byte{})
	if err != nil || ok {
		t.Fatalf("expected empty decode, ok=%v err=%v", ok, err)
	}
	if _, _, err := DecodeBuckets(map[string][]byte{BucketMeta: []byte("{")}); err == nil {
		t.Fatalf("expected decode error for corrupt meta")
	}
}
