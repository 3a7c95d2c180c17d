package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the balance pair for one (user, currency). Available funds may be
// staked, transferred, or withdrawn; locked funds are committed to an active
// stake or held pending a withdrawal decision. Rows are mutated only through
// Ledger operations.
type Wallet struct {
	UserID    string
	Currency  string
	Available decimal.Decimal
	Locked    decimal.Decimal
	UpdatedAt time.Time
}

// Total is the only quantity ever shown as "balance".
func (w Wallet) Total() decimal.Decimal {
	return w.Available.Add(w.Locked)
}

// EntryKind classifies a balance-affecting event.
type EntryKind string

const (
	EntryDeposit         EntryKind = "deposit"
	EntryWithdraw        EntryKind = "withdraw"
	EntryWithdrawHold    EntryKind = "withdraw_hold"
	EntryWithdrawRelease EntryKind = "withdraw_release"
	EntryStakeCreate     EntryKind = "stake_create"
	EntryStakeWithdraw   EntryKind = "stake_withdraw"
	EntryStakeYield      EntryKind = "stake_yield"
	EntryTransferIn      EntryKind = "transfer_in"
	EntryTransferOut     EntryKind = "transfer_out"
	EntryAdminCredit     EntryKind = "admin_credit"
	EntryAdminDebit      EntryKind = "admin_debit"
)

// Entry is an append-only record of a wallet mutation. Every Ledger operation
// writes exactly one Entry in the same unit of work as the balance change;
// entries are never updated or deleted.
type Entry struct {
	ID        string
	UserID    string
	Currency  string
	Kind      EntryKind
	Amount    decimal.Decimal
	Meta      map[string]string
	CreatedAt time.Time
}
