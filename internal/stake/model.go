package stake

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/rate"
)

// Plan is an immutable rate descriptor a stake is opened against. Terms are
// data, not code: the ledger never assumes a fixed set of day counts.
type Plan struct {
	ID       string
	Currency string
	Mode     rate.Mode
	Days     int
	APR      decimal.Decimal
}

// Status is the lifecycle state of a stake. Completed and cancelled are
// terminal; the only transitions are active -> completed (maturity or
// flexible close) and active -> cancelled (administrative force close).
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Stake is one opened position. The plan is snapshotted at creation so later
// plan edits cannot change an existing stake's terms.
type Stake struct {
	ID       string
	UserID   string
	Plan     Plan
	Amount   decimal.Decimal
	Currency string
	StartAt  time.Time
	// EndAt is set at creation for locked stakes and at close for flexible ones.
	EndAt            *time.Time
	Status           Status
	YieldAccumulated decimal.Decimal
}

// DefaultPlans returns the observed product plan set for a currency.
func DefaultPlans(currency string) []Plan {
	return []Plan{
		{ID: currency + "-flex", Currency: currency, Mode: rate.ModeFlexible, APR: decimal.Zero},
		{ID: currency + "-30", Currency: currency, Mode: rate.ModeLocked, Days: 30, APR: decimal.Zero},
		{ID: currency + "-90", Currency: currency, Mode: rate.ModeLocked, Days: 90, APR: decimal.Zero},
		{ID: currency + "-180", Currency: currency, Mode: rate.ModeLocked, Days: 180, APR: decimal.Zero},
	}
}
