package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"monkeycore/pkg/domain"
)

// testCurrency is a minimal compensating currency for transaction tests.
type testCurrency struct {
	mu        sync.Mutex
	balances  map[Identity]domain.Amount
	failDebit error
	failCred  error
}

func newTestCurrency() *testCurrency {
	return &testCurrency{balances: map[Identity]domain.Amount{}}
}

func (c *testCurrency) Debit(_ context.Context, payer Identity, amount domain.Amount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDebit != nil {
		return c.failDebit
	}
	left, ok := c.balances[payer].Sub(amount)
	if !ok {
		return domain.ErrInsufficientFunds
	}
	c.balances[payer] = left
	return nil
}

func (c *testCurrency) Credit(_ context.Context, payee Identity, amount domain.Amount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCred != nil {
		return c.failCred
	}
	sum, ok := c.balances[payee].Add(amount)
	if !ok {
		return domain.ErrImpossibleOverflow
	}
	c.balances[payee] = sum
	return nil
}

func (c *testCurrency) BalanceOf(_ context.Context, who Identity) domain.Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[who]
}

func (c *testCurrency) RefundDebit(_ context.Context, payer Identity, amount domain.Amount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum, _ := c.balances[payer].Add(amount)
	c.balances[payer] = sum
	return nil
}

func (c *testCurrency) RevertCredit(_ context.Context, payee Identity, amount domain.Amount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	left, ok := c.balances[payee].Sub(amount)
	if !ok {
		return errors.New("revert below zero")
	}
	c.balances[payee] = left
	return nil
}

// seed creates the sentinel plus n assets for owner.
func seed(t *testing.T, store *Store, owner Identity, n int) {
	t.Helper()
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateAsset(Asset{Genes: 1214131177989271}); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if _, err := tx.CreateAsset(Asset{Genes: uint64(1000 + i), Owner: owner}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// assertConsistent checks that every enumerable asset sits at its recorded
// slot in its owner's list.
func assertConsistent(t *testing.T, v TransactionView) {
	t.Helper()
	for _, id := range v.AllAssets() {
		a, ok := v.FindAsset(id)
		if !ok {
			t.Fatalf("asset %s enumerated but missing", id)
		}
		idx, ok := v.OwnedIndex(id)
		owned := v.OwnedAssets(a.Owner)
		if !ok || idx >= len(owned) || owned[idx] != id {
			t.Fatalf("asset %s index %d inconsistent with %v", id, idx, owned)
		}
	}
}
