package pending

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the referenced request does not exist.
	ErrNotFound = errors.New("request not found")

	// ErrAlreadyResolved occurs when an approve or reject targets a request
	// that has already left the pending state. Resolution happens exactly once.
	ErrAlreadyResolved = errors.New("request already resolved")
)

// Type distinguishes deposits awaiting confirmation from withdrawals awaiting
// release.
type Type string

const (
	TypeDeposit  Type = "deposit"
	TypeWithdraw Type = "withdraw"
)

// Status is the request lifecycle state. pending -> approved|rejected only;
// both outcomes are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is one deposit or withdrawal awaiting admin action. A withdraw
// request holds its amount in the wallet's locked bucket from creation until
// resolution so the funds cannot be spent twice.
type Request struct {
	ID          string
	UserID      string
	Type        Type
	Currency    string
	AmountAsset decimal.Decimal
	// AmountUSD is the informational USD-normalized value at submission time.
	AmountUSD  decimal.Decimal
	Status     Status
	CreatedAt  time.Time
	ResolvedAt *time.Time
	ResolvedBy string
}
