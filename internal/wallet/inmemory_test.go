package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedgerConservation(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Credit(ctx, "u1", "USDT", dec("1000"), EntryDeposit, nil); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := l.Lock(ctx, "u1", "USDT", dec("400"), EntryStakeCreate, nil); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := l.Unlock(ctx, "u1", "USDT", dec("150"), decimal.Zero, EntryStakeWithdraw, nil); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := l.Lock(ctx, "u1", "USDT", dec("100"), EntryWithdrawHold, nil); err != nil {
		t.Fatalf("second lock: %v", err)
	}

	w, err := l.Balance(ctx, "u1", "USDT")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// Locks and unlocks move value between the two buckets; total is
	// unchanged until an external credit/debit or reward applies.
	if !w.Total().Equal(dec("1000")) {
		t.Fatalf("total changed by internal moves: %s", w.Total())
	}
	if !w.Available.Equal(dec("650")) || !w.Locked.Equal(dec("350")) {
		t.Fatalf("unexpected split: available=%s locked=%s", w.Available, w.Locked)
	}
}

func TestLedgerRewardAndDebitAffectTotal(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	Seed(l, "u1", "USDT", dec("0"), dec("500"))

	// Flexible accrual scenario: closing a 500 stake with 7.5 reward.
	w, err := l.Unlock(ctx, "u1", "USDT", dec("500"), dec("7.5"), EntryStakeWithdraw, map[string]string{"stake_id": "s1"})
	if err != nil {
		t.Fatalf("unlock with reward: %v", err)
	}
	if !w.Available.Equal(dec("507.5")) {
		t.Fatalf("expected available 507.5, got %s", w.Available)
	}
	if !w.Locked.IsZero() {
		t.Fatalf("expected locked 0, got %s", w.Locked)
	}

	if _, err := l.Debit(ctx, "u1", "USDT", dec("7.5"), EntryWithdraw, nil); err != nil {
		t.Fatalf("debit: %v", err)
	}
	w, _ = l.Balance(ctx, "u1", "USDT")
	if !w.Total().Equal(dec("500")) {
		t.Fatalf("expected total 500 after reward and debit, got %s", w.Total())
	}
}

func TestLedgerNonNegativity(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	Seed(l, "u1", "USDT", dec("100"), dec("50"))

	if _, err := l.Debit(ctx, "u1", "USDT", dec("100.01"), EntryWithdraw, nil); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds on debit, got %v", err)
	}
	if _, err := l.Lock(ctx, "u1", "USDT", dec("101"), EntryStakeCreate, nil); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds on lock, got %v", err)
	}
	if _, err := l.Unlock(ctx, "u1", "USDT", dec("50.5"), decimal.Zero, EntryStakeWithdraw, nil); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds on unlock, got %v", err)
	}

	// Failed operations must not partially mutate state or write entries.
	w, _ := l.Balance(ctx, "u1", "USDT")
	if !w.Available.Equal(dec("100")) || !w.Locked.Equal(dec("50")) {
		t.Fatalf("failed ops mutated state: available=%s locked=%s", w.Available, w.Locked)
	}
	if n := EntryCount(l); n != 0 {
		t.Fatalf("failed ops wrote %d entries", n)
	}
}

func TestLedgerPenaltyBounded(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	Seed(l, "u1", "USDT", dec("0"), dec("100"))

	// A penalty may reduce the returned amount to zero but never below.
	if _, err := l.Unlock(ctx, "u1", "USDT", dec("100"), dec("-100.01"), EntryStakeWithdraw, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for over-penalty, got %v", err)
	}

	w, err := l.Unlock(ctx, "u1", "USDT", dec("100"), dec("-10"), EntryStakeWithdraw, nil)
	if err != nil {
		t.Fatalf("penalized unlock: %v", err)
	}
	if !w.Available.Equal(dec("90")) {
		t.Fatalf("expected available 90, got %s", w.Available)
	}
}

func TestLedgerValidation(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Credit(ctx, "u1", "USDT", decimal.Zero, EntryDeposit, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero credit, got %v", err)
	}
	if _, err := l.Credit(ctx, "u1", "USDT", dec("-1"), EntryDeposit, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative credit, got %v", err)
	}
	if _, err := l.Debit(ctx, "nobody", "USDT", dec("1"), EntryWithdraw, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerOneEntryPerMutation(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Credit(ctx, "u1", "USDT", dec("10"), EntryDeposit, nil); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := l.Lock(ctx, "u1", "USDT", dec("4"), EntryStakeCreate, nil); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := l.Unlock(ctx, "u1", "USDT", dec("4"), dec("1"), EntryStakeWithdraw, nil); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if n := EntryCount(l); n != 3 {
		t.Fatalf("expected 3 entries, got %d", n)
	}

	entries, err := l.Entries(ctx, "u1", "USDT", 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 listed entries, got %d", len(entries))
	}
	if entries[0].Kind != EntryStakeWithdraw || !entries[0].Amount.Equal(dec("5")) {
		t.Fatalf("newest entry wrong: kind=%s amount=%s", entries[0].Kind, entries[0].Amount)
	}
}

func TestLedgerConcurrentLocks(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	Seed(l, "u1", "USDT", dec("1000"), dec("0"))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			meta := map[string]string{"stake_id": fmt.Sprintf("s-%d", i)}
			if _, err := l.Lock(ctx, "u1", "USDT", dec("50"), EntryStakeCreate, meta); err != nil {
				t.Errorf("lock %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	w, _ := l.Balance(ctx, "u1", "USDT")
	if !w.Available.IsZero() || !w.Locked.Equal(dec("1000")) {
		t.Fatalf("unexpected final split: available=%s locked=%s", w.Available, w.Locked)
	}
}
