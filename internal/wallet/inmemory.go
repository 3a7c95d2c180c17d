package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
	entries []Entry
}

// NewInMemory creates a concurrency-safe in-memory ledger. It backs the
// simulated persistence mode and unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{wallets: make(map[string]Wallet)}
}

func walletKey(userID, currency string) string {
	return userID + "/" + currency
}

func (l *inMemoryLedger) append(w Wallet, amount decimal.Decimal, kind EntryKind, meta map[string]string) Wallet {
	w.UpdatedAt = time.Now().UTC()
	l.wallets[walletKey(w.UserID, w.Currency)] = w
	l.entries = append(l.entries, Entry{
		ID:        uuid.NewString(),
		UserID:    w.UserID,
		Currency:  w.Currency,
		Kind:      kind,
		Amount:    amount,
		Meta:      meta,
		CreatedAt: w.UpdatedAt,
	})
	return w
}

func (l *inMemoryLedger) Credit(_ context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		w = Wallet{UserID: userID, Currency: currency, Available: decimal.Zero, Locked: decimal.Zero}
	}
	w.Available = w.Available.Add(amount)
	return l.append(w, amount, kind, meta), nil
}

func (l *inMemoryLedger) Debit(_ context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if w.Available.LessThan(amount) {
		return Wallet{}, ErrInsufficientFunds
	}
	w.Available = w.Available.Sub(amount)
	return l.append(w, amount.Neg(), kind, meta), nil
}

func (l *inMemoryLedger) Lock(_ context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if w.Available.LessThan(amount) {
		return Wallet{}, ErrInsufficientFunds
	}
	w.Available = w.Available.Sub(amount)
	w.Locked = w.Locked.Add(amount)
	return l.append(w, amount, kind, meta), nil
}

func (l *inMemoryLedger) Unlock(_ context.Context, userID, currency string, amount, bonus decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}
	// A negative bonus is a penalty; it may never exceed the unlocked amount.
	if amount.Add(bonus).IsNegative() {
		return Wallet{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if w.Locked.LessThan(amount) {
		return Wallet{}, ErrInsufficientFunds
	}
	w.Locked = w.Locked.Sub(amount)
	w.Available = w.Available.Add(amount).Add(bonus)
	return l.append(w, amount.Add(bonus), kind, meta), nil
}

func (l *inMemoryLedger) DebitLocked(_ context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if w.Locked.LessThan(amount) {
		return Wallet{}, ErrInsufficientFunds
	}
	w.Locked = w.Locked.Sub(amount)
	return l.append(w, amount.Neg(), kind, meta), nil
}

func (l *inMemoryLedger) Balance(_ context.Context, userID, currency string) (Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (l *inMemoryLedger) Entries(_ context.Context, userID, currency string, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.UserID != userID || e.Currency != currency {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (l *inMemoryLedger) All(_ context.Context) ([]Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Wallet, 0, len(l.wallets))
	for _, w := range l.wallets {
		out = append(out, w)
	}
	return out, nil
}
