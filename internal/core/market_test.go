package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"monkeycore/pkg/domain"
)

func TestFounderBreedSellScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for g := uint64(1); g <= 12; g++ {
		mustFounder(t, svc, g*1000003)
	}
	if supply, _ := svc.TotalSupply(ctx); supply != 12 {
		t.Fatalf("expected supply 12, got %d", supply)
	}
	fund(t, svc, root, 1)
	child, _, err := svc.Breed(ctx, root, 1, 2)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if child.ID != 13 || child.Generation != 1 {
		t.Fatalf("unexpected child %+v", child)
	}
	listForSale(t, svc, root, child.ID, 5)
	if ids, _ := svc.GetAllActiveOfferIDs(ctx); !cmp.Equal(ids, []AssetID{13}) {
		t.Fatalf("active offers %v", ids)
	}

	fundSales(t, svc, bob, 5)
	if _, err := svc.BuyMonkey(ctx, bob, child.ID, domain.NewAmount(5)); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if owner, _ := svc.OwnerOf(ctx, child.ID); owner != bob {
		t.Fatalf("owner after sale %q", owner)
	}
	if got := balance(svc.SaleCurrency(), root); !got.Equal(domain.NewAmount(5)) {
		t.Fatalf("seller proceeds %s", got)
	}
	if got := balance(svc.SaleCurrency(), bob); !got.IsZero() {
		t.Fatalf("buyer balance %s", got)
	}
	if _, err := svc.GetOffer(ctx, child.ID); !errors.Is(err, domain.ErrNoActiveOffer) {
		t.Fatalf("offer should be closed, got %v", err)
	}
	if ids, _ := svc.GetAllActiveOfferIDs(ctx); len(ids) != 0 {
		t.Fatalf("active offers after sale %v", ids)
	}
	bobOwned, _ := svc.EnumerateOwned(ctx, bob)
	if diff := cmp.Diff([]AssetID{13}, bobOwned); diff != "" {
		t.Fatalf("buyer list (-want +got):\n%s", diff)
	}
}

func TestBuyRequiresExactPayment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a := mustFounder(t, svc, 1)
	listForSale(t, svc, root, a.ID, 10)
	fundSales(t, svc, bob, 20)
	for _, paid := range []uint64{9, 11} {
		if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(paid)); !errors.Is(err, domain.ErrWrongAmount) {
			t.Fatalf("paying %d: expected ErrWrongAmount, got %v", paid, err)
		}
	}
	if got := balance(svc.SaleCurrency(), bob); !got.Equal(domain.NewAmount(20)) {
		t.Fatalf("rejected purchases must not charge, balance %s", got)
	}
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(10)); err != nil {
		t.Fatalf("exact payment: %v", err)
	}
}

func TestBuyRejections(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a := mustFounder(t, svc, 1)
	b := mustFounder(t, svc, 2)
	listForSale(t, svc, root, a.ID, 3)

	if _, err := svc.BuyMonkey(ctx, bob, b.ID, domain.NewAmount(3)); !errors.Is(err, domain.ErrNoActiveOffer) {
		t.Fatalf("unlisted asset: %v", err)
	}
	if _, err := svc.BuyMonkey(ctx, root, a.ID, domain.NewAmount(3)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("seller buying own asset: %v", err)
	}
	if _, err := svc.BuyMonkey(ctx, domain.NullIdentity, a.ID, domain.NewAmount(3)); !errors.Is(err, domain.ErrNullRecipient) {
		t.Fatalf("null buyer: %v", err)
	}
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(3)); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("unfunded buyer: %v", err)
	}
	if _, err := svc.SetApprovalForAll(ctx, root, svc.Config().Marketplace, false); err != nil {
		t.Fatalf("revoke marketplace: %v", err)
	}
	fundSales(t, svc, bob, 3)
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(3)); !errors.Is(err, domain.ErrNoOperatorApproval) {
		t.Fatalf("revoked marketplace approval: %v", err)
	}
	if owner, _ := svc.OwnerOf(ctx, a.ID); owner != root {
		t.Fatalf("asset moved on rejected purchase, owner %q", owner)
	}
}

func TestSetOfferRejections(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a := mustFounder(t, svc, 1)
	if _, _, err := svc.SetOffer(ctx, alice, domain.NewAmount(1), a.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("non-owner listing: %v", err)
	}
	if _, _, err := svc.SetOffer(ctx, root, domain.NewAmount(1), domain.SentinelAssetID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("sentinel listing: %v", err)
	}
	if _, _, err := svc.SetOffer(ctx, root, domain.NewAmount(1), a.ID); !errors.Is(err, domain.ErrNoOperatorApproval) {
		t.Fatalf("listing without marketplace approval: %v", err)
	}
	listForSale(t, svc, root, a.ID, 0)
	if _, _, err := svc.SetOffer(ctx, root, domain.NewAmount(9), a.ID); !errors.Is(err, domain.ErrOfferAlreadyActive) {
		t.Fatalf("relisting: %v", err)
	}
	offer, err := svc.GetOffer(ctx, a.ID)
	if err != nil || !offer.Price.IsZero() || offer.Seller != root || !offer.Active {
		t.Fatalf("original offer must be kept: %+v %v", offer, err)
	}
}

func TestSaleLockBlocksTransfers(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a := mustFounder(t, svc, 1)
	listForSale(t, svc, root, a.ID, 4)
	if _, err := svc.Transfer(ctx, root, root, alice, a.ID); !errors.Is(err, domain.ErrStillListed) {
		t.Fatalf("transfer of listed asset: %v", err)
	}
	// the marketplace is an operator but still cannot move a listed asset
	if _, err := svc.Transfer(ctx, svc.Config().Marketplace, root, alice, a.ID); !errors.Is(err, domain.ErrStillListed) {
		t.Fatalf("operator transfer of listed asset: %v", err)
	}
	if _, err := svc.RemoveOffer(ctx, alice, a.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("stranger removing offer: %v", err)
	}
	if _, err := svc.RemoveOffer(ctx, root, a.ID); err != nil {
		t.Fatalf("remove offer: %v", err)
	}
	if _, err := svc.RemoveOffer(ctx, root, a.ID); !errors.Is(err, domain.ErrNoActiveOffer) {
		t.Fatalf("second removal: %v", err)
	}
	mustTransfer(t, svc, root, alice, a.ID)
}

func TestOfferArraySwapPop(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for g := uint64(1); g <= 4; g++ {
		mustFounder(t, svc, g)
	}
	for id := AssetID(1); id <= 4; id++ {
		listForSale(t, svc, root, id, uint64(id))
	}
	if _, err := svc.RemoveOffer(ctx, root, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ids, _ := svc.GetAllActiveOfferIDs(ctx)
	if diff := cmp.Diff([]AssetID{1, 4, 3}, ids); diff != "" {
		t.Fatalf("offer order (-want +got):\n%s", diff)
	}
	moved, err := svc.OfferAt(ctx, root, 1)
	if err != nil || moved.TokenID != 4 || moved.Index != 1 {
		t.Fatalf("moved offer %+v %v", moved, err)
	}
	if _, err := svc.OfferAt(ctx, root, 3); !errors.Is(err, domain.ErrOfferNotFound) {
		t.Fatalf("out of range: %v", err)
	}
	if _, err := svc.OfferAt(ctx, alice, 0); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-owner inspection: %v", err)
	}
}

func TestPauseDomainsAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a := mustFounder(t, svc, 1)
	b := mustFounder(t, svc, 2)
	listForSale(t, svc, root, a.ID, 1)
	fundSales(t, svc, bob, 1)

	if _, err := svc.Pause(ctx, root, DomainMarket); err != nil {
		t.Fatalf("pause market: %v", err)
	}
	if _, _, err := svc.SetOffer(ctx, root, domain.NewAmount(1), b.ID); !errors.Is(err, domain.ErrPaused) {
		t.Fatalf("listing while market paused: %v", err)
	}
	if _, err := svc.RemoveOffer(ctx, root, a.ID); !errors.Is(err, domain.ErrPaused) {
		t.Fatalf("delisting while market paused: %v", err)
	}
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(1)); !errors.Is(err, domain.ErrPaused) {
		t.Fatalf("buying while market paused: %v", err)
	}
	mustTransfer(t, svc, root, alice, b.ID)
	if _, err := svc.Unpause(ctx, root, DomainMarket); err != nil {
		t.Fatalf("unpause market: %v", err)
	}

	if _, err := svc.Pause(ctx, root, DomainRegistry); err != nil {
		t.Fatalf("pause registry: %v", err)
	}
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(1)); !errors.Is(err, domain.ErrPaused) {
		t.Fatalf("buying while registry paused: %v", err)
	}
	if _, err := svc.RemoveOffer(ctx, root, a.ID); err != nil {
		t.Fatalf("delisting needs only the market domain: %v", err)
	}
}
