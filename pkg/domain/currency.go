package domain

import "context"

// Currency is the capability the ledger needs from a fungible-currency
// ledger. Debit fails with ErrInsufficientFunds or ErrAllowanceExceeded;
// Credit fails with ErrImpossibleOverflow.
type Currency interface {
	Debit(ctx context.Context, payer Identity, amount Amount) error
	Credit(ctx context.Context, payee Identity, amount Amount) error
	BalanceOf(ctx context.Context, who Identity) Amount
}

// Compensator is implemented by currencies that can exactly undo a debit or
// credit applied during an operation that later aborts. Without it, debits
// are compensated with Credit and credits cannot be reverted.
type Compensator interface {
	RefundDebit(ctx context.Context, payer Identity, amount Amount) error
	RevertCredit(ctx context.Context, payee Identity, amount Amount) error
}
