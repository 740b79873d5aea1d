package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"monkeycore/internal/archive"
	"monkeycore/internal/blob"
	"monkeycore/internal/infra/persistence/memory"
	"monkeycore/pkg/domain"
)

func newArchivedService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	arc, err := archive.New(blob.NewMemory())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	return newTestService(t, append([]ServiceOption{WithArchive(arc)}, opts...)...)
}

func TestArchiveAndRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	svc := newArchivedService(t, WithAuditRecorder(audit))
	a := mustFounder(t, svc, 11)
	b := mustFounder(t, svc, 22)
	mustTransfer(t, svc, root, alice, b.ID)
	listForSale(t, svc, root, a.ID, 3)

	ref, err := svc.ArchiveSnapshot(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if ref.Supply != 2 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	mustFounder(t, svc, 33)
	if _, err := svc.RemoveOffer(ctx, root, a.ID); err != nil {
		t.Fatalf("remove offer: %v", err)
	}

	if _, err := svc.RestoreSnapshot(ctx, alice, ref.Key); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-owner restore: %v", err)
	}
	if _, err := svc.RestoreSnapshot(ctx, root, ref.Key); err != nil {
		t.Fatalf("restore: %v", err)
	}
	all, _ := svc.AllAssets(ctx)
	if diff := cmp.Diff([]AssetID{a.ID, b.ID}, all); diff != "" {
		t.Fatalf("restored assets (-want +got):\n%s", diff)
	}
	if offer, err := svc.GetOffer(ctx, a.ID); err != nil || !offer.Price.Equal(domain.NewAmount(3)) {
		t.Fatalf("restored offer %+v %v", offer, err)
	}
	if n, _ := svc.FounderCount(ctx); n != 2 {
		t.Fatalf("restored founder count %d", n)
	}
	// ids are never reused after a restore either
	c := mustFounder(t, svc, 44)
	if c.ID != 3 {
		t.Fatalf("expected next id 3 from the snapshot, got %d", c.ID)
	}
	if !audit.has(opRestoreSnapshot, AuditStatusError, nil) || !audit.has(opRestoreSnapshot, AuditStatusSuccess, nil) {
		t.Fatalf("restore outcomes not audited: %+v", audit.entries)
	}

	refs, err := svc.ListSnapshots(ctx)
	if err != nil || len(refs) != 1 || refs[0].Key != ref.Key {
		t.Fatalf("list snapshots %+v %v", refs, err)
	}
	if _, err := svc.RestoreSnapshot(ctx, root, "snapshots/missing.json.zst"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("missing archive: %v", err)
	}
}

func TestSnapshotOperationsRequireArchive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.ArchiveSnapshot(ctx); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.ListSnapshots(ctx); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.RestoreSnapshot(ctx, root, "x"); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("restore: %v", err)
	}
}

// interleavingStore runs beforeReplace just ahead of every ReplaceState so a
// competing mutation lands between the service's checks and the import.
type interleavingStore struct {
	*memory.Store
	beforeReplace func()
}

func (s *interleavingStore) ReplaceState(snap Snapshot, guard func(TransactionView) error) error {
	if s.beforeReplace != nil {
		s.beforeReplace()
	}
	return s.Store.ReplaceState(snap, guard)
}

func TestRestoreRechecksOwnerAtReplacement(t *testing.T) {
	ctx := context.Background()
	arc, err := archive.New(blob.NewMemory())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	store := &interleavingStore{Store: memory.NewStore(NewDefaultRulesEngine())}
	svc, err := NewService(store, Config{RegistryOwner: root}, WithArchive(arc))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	mustFounder(t, svc, 1)
	ref, err := svc.ArchiveSnapshot(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	mustFounder(t, svc, 2)

	store.beforeReplace = func() {
		if _, err := svc.TransferDomainOwnership(ctx, root, DomainRegistry, alice); err != nil {
			t.Errorf("hand over registry: %v", err)
		}
	}
	if _, err := svc.RestoreSnapshot(ctx, root, ref.Key); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("restore by former owner: %v", err)
	}
	if supply, _ := svc.TotalSupply(ctx); supply != 2 {
		t.Fatalf("state must be kept, supply %d", supply)
	}
	if owner, _ := svc.DomainOwner(ctx, DomainRegistry); owner != alice {
		t.Fatalf("registry owner %q", owner)
	}
}
