// Package currency provides a reference fungible-token ledger implementing
// the domain.Currency capability: balances, a per-spender allowance consumed
// by debits, and a one-time faucet.
package currency

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"monkeycore/pkg/domain"
)

// DefaultFaucet is the amount granted by Claim.
var DefaultFaucet = domain.NewAmount(1000)

// ErrAlreadyClaimed is returned when an identity claims the faucet twice.
var ErrAlreadyClaimed = errors.New("faucet already claimed")

var (
	_ domain.Currency    = (*Ledger)(nil)
	_ domain.Compensator = (*Ledger)(nil)
)

// Ledger is a concurrency-safe in-memory token ledger.
type Ledger struct {
	mu         sync.Mutex
	name       string
	spender    domain.Identity
	collector  domain.Identity
	faucet     domain.Amount
	balances   map[domain.Identity]domain.Amount
	allowances map[domain.Identity]map[domain.Identity]domain.Amount
	claimed    map[domain.Identity]struct{}
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithName labels the ledger in errors.
func WithName(name string) Option {
	return func(l *Ledger) { l.name = name }
}

// WithSpender makes every Debit consume the payer's allowance for spender.
// Without a spender, debits only require balance.
func WithSpender(spender domain.Identity) Option {
	return func(l *Ledger) { l.spender = spender }
}

// WithCollector credits every debited amount to collector instead of
// burning it.
func WithCollector(collector domain.Identity) Option {
	return func(l *Ledger) { l.collector = collector }
}

// WithFaucet overrides the Claim amount.
func WithFaucet(amount domain.Amount) Option {
	return func(l *Ledger) { l.faucet = amount }
}

// NewLedger constructs an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		name:       "token",
		faucet:     DefaultFaucet,
		balances:   make(map[domain.Identity]domain.Amount),
		allowances: make(map[domain.Identity]map[domain.Identity]domain.Amount),
		claimed:    make(map[domain.Identity]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Name returns the ledger label.
func (l *Ledger) Name() string { return l.name }

// Spender returns the identity whose allowance debits consume.
func (l *Ledger) Spender() domain.Identity { return l.spender }

// Claim grants the faucet amount to who, once.
func (l *Ledger) Claim(_ context.Context, who domain.Identity) error {
	if who.IsNull() {
		return domain.ErrNullRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, done := l.claimed[who]; done {
		return fmt.Errorf("%s: %w", l.name, ErrAlreadyClaimed)
	}
	if err := l.creditLocked(who, l.faucet); err != nil {
		return err
	}
	l.claimed[who] = struct{}{}
	return nil
}

// Mint credits amount to who without any faucet bookkeeping.
func (l *Ledger) Mint(_ context.Context, who domain.Identity, amount domain.Amount) error {
	if who.IsNull() {
		return domain.ErrNullRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creditLocked(who, amount)
}

// Approve sets the allowance spender may debit from owner.
func (l *Ledger) Approve(_ context.Context, owner, spender domain.Identity, amount domain.Amount) error {
	if owner.IsNull() || spender.IsNull() {
		return domain.ErrNullRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setAllowanceLocked(owner, spender, amount)
	return nil
}

// Allowance returns what spender may still debit from owner.
func (l *Ledger) Allowance(_ context.Context, owner, spender domain.Identity) domain.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// BalanceOf returns who's balance.
func (l *Ledger) BalanceOf(_ context.Context, who domain.Identity) domain.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[who]
}

// Debit removes amount from payer. Balance is checked before allowance.
func (l *Ledger) Debit(_ context.Context, payer domain.Identity, amount domain.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	left, ok := l.balances[payer].Sub(amount)
	if !ok {
		return fmt.Errorf("%s: %w", l.name, domain.ErrInsufficientFunds)
	}
	var remaining domain.Amount
	if !l.spender.IsNull() {
		remaining, ok = l.allowances[payer][l.spender].Sub(amount)
		if !ok {
			return fmt.Errorf("%s: %w", l.name, domain.ErrAllowanceExceeded)
		}
	}
	if !l.collector.IsNull() && l.collector != payer {
		if err := l.creditLocked(l.collector, amount); err != nil {
			return err
		}
	}
	l.balances[payer] = left
	if !l.spender.IsNull() {
		l.setAllowanceLocked(payer, l.spender, remaining)
	}
	return nil
}

// Credit adds amount to payee.
func (l *Ledger) Credit(_ context.Context, payee domain.Identity, amount domain.Amount) error {
	if payee.IsNull() {
		return domain.ErrNullRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creditLocked(payee, amount)
}

// RefundDebit reverses a Debit exactly, restoring balance, allowance and
// the collector's balance.
func (l *Ledger) RefundDebit(_ context.Context, payer domain.Identity, amount domain.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.collector.IsNull() && l.collector != payer {
		left, ok := l.balances[l.collector].Sub(amount)
		if !ok {
			return fmt.Errorf("%s: refund exceeds collected funds: %w", l.name, domain.ErrInsufficientFunds)
		}
		l.balances[l.collector] = left
	}
	if err := l.creditLocked(payer, amount); err != nil {
		return err
	}
	if !l.spender.IsNull() {
		restored, ok := l.allowances[payer][l.spender].Add(amount)
		if !ok {
			return fmt.Errorf("%s: %w", l.name, domain.ErrImpossibleOverflow)
		}
		l.setAllowanceLocked(payer, l.spender, restored)
	}
	return nil
}

// RevertCredit reverses a Credit.
func (l *Ledger) RevertCredit(_ context.Context, payee domain.Identity, amount domain.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	left, ok := l.balances[payee].Sub(amount)
	if !ok {
		return fmt.Errorf("%s: revert credit for %q: %w", l.name, payee, domain.ErrInsufficientFunds)
	}
	l.balances[payee] = left
	return nil
}

func (l *Ledger) creditLocked(payee domain.Identity, amount domain.Amount) error {
	sum, ok := l.balances[payee].Add(amount)
	if !ok {
		return fmt.Errorf("%s: %w", l.name, domain.ErrImpossibleOverflow)
	}
	l.balances[payee] = sum
	return nil
}

func (l *Ledger) setAllowanceLocked(owner, spender domain.Identity, amount domain.Amount) {
	allowed, ok := l.allowances[owner]
	if !ok {
		allowed = make(map[domain.Identity]domain.Amount)
		l.allowances[owner] = allowed
	}
	allowed[spender] = amount
}
