package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger owns the available/locked balance pair per (user, currency). Each
// operation executes atomically against its wallet row and appends exactly
// one Entry in the same unit of work; nothing else in the system may write
// wallet rows.
type Ledger interface {
	// Credit adds amount to available, creating the wallet if needed.
	// Requires amount > 0.
	Credit(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error)

	// Debit removes amount from available. Fails with ErrInsufficientFunds
	// when available < amount.
	Debit(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error)

	// Lock moves amount from available to locked.
	Lock(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error)

	// Unlock moves amount from locked back to available plus bonus. The bonus
	// may be an accrued reward or an admin adjustment; it may be negative
	// only for a penalty, and never beyond -amount so available cannot go
	// negative.
	Unlock(ctx context.Context, userID, currency string, amount, bonus decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error)

	// DebitLocked removes amount from locked entirely, used when held funds
	// leave the system on an approved withdrawal.
	DebitLocked(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error)

	// Balance returns the wallet row, ErrNotFound if absent.
	Balance(ctx context.Context, userID, currency string) (Wallet, error)

	// Entries lists the most recent ledger entries for a wallet.
	Entries(ctx context.Context, userID, currency string, limit int) ([]Entry, error)

	// All returns every wallet row, for admin aggregation.
	All(ctx context.Context) ([]Wallet, error)
}

// validateOp checks the shared preconditions of every balance mutation before
// any state is touched.
func validateOp(amount decimal.Decimal, kind EntryKind) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if kind == "" {
		return ErrInvalidAmount
	}
	return nil
}
