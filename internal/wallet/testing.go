package wallet

import "github.com/shopspring/decimal"

// Seed is a test helper that sets the balances of a wallet directly when
// using the in-memory ledger. It does not write an entry.
func Seed(l Ledger, userID, currency string, available, locked decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.wallets[walletKey(userID, currency)] = Wallet{
			UserID:    userID,
			Currency:  currency,
			Available: available,
			Locked:    locked,
		}
	}
}

// EntryCount is a test helper returning the number of entries recorded by the
// in-memory ledger.
func EntryCount(l Ledger) int {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return len(mem.entries)
	}
	return 0
}
