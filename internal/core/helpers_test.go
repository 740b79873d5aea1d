package core

import (
	"context"
	"testing"

	"monkeycore/internal/currency"
	"monkeycore/pkg/domain"
)

const (
	root  Identity = "root"
	alice Identity = "alice"
	bob   Identity = "bob"
	carol Identity = "carol"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	svc, err := NewInMemoryService(Config{RegistryOwner: root}, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// fund gives who enough banana to pay n breeding fees and approves the
// treasury to collect them.
func fund(t *testing.T, svc *Service, who Identity, n uint64) {
	t.Helper()
	ctx := context.Background()
	fees, ok := svc.FeeCurrency().(*currency.Ledger)
	if !ok {
		t.Fatalf("fee currency is %T", svc.FeeCurrency())
	}
	total := domain.NewAmount(50 * n)
	if err := fees.Mint(ctx, who, total); err != nil {
		t.Fatalf("mint fee currency: %v", err)
	}
	if err := fees.Approve(ctx, who, svc.Config().Treasury, total); err != nil {
		t.Fatalf("approve treasury: %v", err)
	}
}

func fundSales(t *testing.T, svc *Service, who Identity, amount uint64) {
	t.Helper()
	sales, ok := svc.SaleCurrency().(*currency.Ledger)
	if !ok {
		t.Fatalf("sale currency is %T", svc.SaleCurrency())
	}
	if err := sales.Mint(context.Background(), who, domain.NewAmount(amount)); err != nil {
		t.Fatalf("mint sale currency: %v", err)
	}
}

func mustFounder(t *testing.T, svc *Service, genes uint64) Asset {
	t.Helper()
	a, _, err := svc.MintFounder(context.Background(), root, genes)
	if err != nil {
		t.Fatalf("mint founder: %v", err)
	}
	return a
}

func mustTransfer(t *testing.T, svc *Service, from, to Identity, id AssetID) {
	t.Helper()
	if _, err := svc.Transfer(context.Background(), from, from, to, id); err != nil {
		t.Fatalf("transfer %s %s->%s: %v", id, from, to, err)
	}
}

// listForSale grants the marketplace operator approval and lists id.
func listForSale(t *testing.T, svc *Service, seller Identity, id AssetID, price uint64) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.SetApprovalForAll(ctx, seller, svc.Config().Marketplace, true); err != nil {
		t.Fatalf("approve marketplace: %v", err)
	}
	if _, _, err := svc.SetOffer(ctx, seller, domain.NewAmount(price), id); err != nil {
		t.Fatalf("set offer: %v", err)
	}
}

func balance(c Currency, who Identity) domain.Amount {
	return c.BalanceOf(context.Background(), who)
}
