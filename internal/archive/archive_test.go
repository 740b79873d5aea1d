package archive

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"monkeycore/internal/blob"
	"monkeycore/pkg/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Version:  domain.SnapshotVersion,
		NextID:   3,
		Founders: 2,
		Assets: []domain.Asset{
			{ID: 0, Genes: 1214131177989271},
			{ID: 1, Genes: 1111, Owner: "alice"},
			{ID: 2, Genes: 2222, Owner: "alice"},
		},
		All:       []domain.AssetID{1, 2},
		Owned:     map[domain.Identity][]domain.AssetID{"alice": {1, 2}},
		Approvals: map[domain.AssetID]domain.Identity{1: "bob"},
		Operators: map[domain.Identity][]domain.Identity{"alice": {"marketplace"}},
		Offers:    []domain.Offer{{Seller: "alice", TokenID: 2, Price: domain.NewAmount(7), Active: true}},
		Controls:  []domain.Control{{Domain: domain.DomainRegistry, Owner: "root"}, {Domain: domain.DomainMarket, Owner: "root"}},
	}
}

var amountEqual = cmp.Comparer(func(a, b domain.Amount) bool { return a.Equal(b) })

func newTestArchive(t *testing.T, store blob.Store, opts ...Option) *Archive {
	t.Helper()
	a, err := New(store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := newTestArchive(t, blob.NewMemory(), WithPrefix("backups"), WithClock(func() time.Time { return fixed }))
	a.newID = func() uuid.UUID { return uuid.MustParse("00000000-0000-0000-0000-000000000001") }

	ref, err := a.Save(ctx, sampleSnapshot())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	wantKey := "backups/20260102T030405.000000000Z-00000000-0000-0000-0000-000000000001.json.zst"
	if ref.Key != wantKey || ref.Supply != 2 || ref.Version != domain.SnapshotVersion || ref.Size == 0 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	got, err := a.Load(ctx, ref.Key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(sampleSnapshot(), got, amountEqual); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRejectsInvalidSnapshot(t *testing.T) {
	a := newTestArchive(t, blob.NewMemory())
	snap := sampleSnapshot()
	snap.Controls = append(snap.Controls, domain.Control{Domain: "treasury", Owner: "root"})
	if _, err := a.Save(context.Background(), snap); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	snap = sampleSnapshot()
	snap.Version = 0
	if _, err := a.Save(context.Background(), snap); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected version rejection, got %v", err)
	}
}

func TestLoadRejectsTamperedDocument(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	a := newTestArchive(t, store)
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	_, _ = enc.Write([]byte(`{"version":1,"next_id":1,"founders":0,"assets":[],"all_assets":[-4]}`))
	_ = enc.Close()
	if _, err := store.Put(ctx, DefaultPrefix+"bad.json.zst", &buf, blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := a.Load(ctx, DefaultPrefix+"bad.json.zst"); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if _, err := store.Put(ctx, DefaultPrefix+"raw.json.zst", strings.NewReader("not zstd"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := a.Load(ctx, DefaultPrefix+"raw.json.zst"); err == nil {
		t.Fatalf("expected decompression error")
	}
	if _, err := a.Load(ctx, DefaultPrefix+"missing.json.zst"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListLatestDelete(t *testing.T) {
	for name, store := range map[string]blob.Store{
		"memory": blob.NewMemory(),
		"s3":     blob.NewMockS3ForTests(),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			a := newTestArchive(t, store, WithClock(func() time.Time {
				clock = clock.Add(time.Second)
				return clock
			}))
			if _, ok, err := a.Latest(ctx); err != nil || ok {
				t.Fatalf("expected empty archive, ok=%v err=%v", ok, err)
			}
			first, err := a.Save(ctx, sampleSnapshot())
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			second, err := a.Save(ctx, sampleSnapshot())
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if _, err := store.Put(ctx, DefaultPrefix+"notes.txt", strings.NewReader("x"), blob.PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			refs, err := a.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(refs) != 2 || refs[0].Key != first.Key || refs[1].Key != second.Key {
				t.Fatalf("unexpected refs %+v", refs)
			}
			if refs[1].Supply != 2 || refs[1].Version != domain.SnapshotVersion {
				t.Fatalf("metadata not surfaced in list: %+v", refs[1])
			}
			latest, ok, err := a.Latest(ctx)
			if err != nil || !ok || latest.Key != second.Key {
				t.Fatalf("latest: %+v %v %v", latest, ok, err)
			}
			if ok, err := a.Delete(ctx, second.Key); err != nil || !ok {
				t.Fatalf("delete: %v %v", ok, err)
			}
			if latest, _, _ := a.Latest(ctx); latest.Key != first.Key {
				t.Fatalf("expected first archive to be latest after delete, got %s", latest.Key)
			}
		})
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestEmptyPrefixKeepsDefault(t *testing.T) {
	a := newTestArchive(t, blob.NewMemory(), WithPrefix(""))
	ref, err := a.Save(context.Background(), sampleSnapshot())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(ref.Key, DefaultPrefix) {
		t.Fatalf("key %q lost the default prefix", ref.Key)
	}
}
