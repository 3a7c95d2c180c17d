package reward

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/rate"
)

// ErrInvalidPrincipal occurs when a projection is requested for a non-positive
// principal. Stakes with such amounts must be rejected before they exist.
var ErrInvalidPrincipal = errors.New("principal must be positive")

var (
	daysPerMonth = decimal.NewFromInt(30)
	// PayoutPlaces is the scale rewards are rounded to before they touch a
	// wallet. Display rounding to 2 places is a client concern.
	PayoutPlaces int32 = 8
)

// Projection is the deterministic reward outcome for a stake. All interest is
// simple, never compounding.
type Projection struct {
	Daily decimal.Decimal
	Total decimal.Decimal
}

// Calculator derives reward projections from the rate table. It is a pure
// component: no I/O, no clock.
type Calculator struct {
	rates *rate.Table
}

// NewCalculator builds a calculator over the given rate table.
func NewCalculator(rates *rate.Table) *Calculator {
	return &Calculator{rates: rates}
}

// Project computes the accrued and full-term reward for a stake.
//
// Locked stakes pay the full-term reward only at maturity, so Total is
// independent of elapsedDays: principal * monthlyRate * (termDays/30).
// Flexible stakes accrue linearly and uncapped: Total = Daily * elapsedDays.
func (c *Calculator) Project(principal decimal.Decimal, mode rate.Mode, termDays int, fallbackAPR decimal.Decimal, elapsedDays int) (Projection, error) {
	if !principal.IsPositive() {
		return Projection{}, fmt.Errorf("principal %s: %w", principal, ErrInvalidPrincipal)
	}

	monthly, err := c.rates.Monthly(mode, termDays, fallbackAPR)
	if err != nil {
		return Projection{}, err
	}

	switch mode {
	case rate.ModeLocked:
		term := decimal.NewFromInt(int64(termDays))
		total := principal.Mul(monthly).Mul(term.Div(daysPerMonth))
		return Projection{Daily: total.Div(term), Total: total}, nil
	case rate.ModeFlexible:
		if elapsedDays < 0 {
			elapsedDays = 0
		}
		daily := principal.Mul(monthly).Div(daysPerMonth)
		return Projection{Daily: daily, Total: daily.Mul(decimal.NewFromInt(int64(elapsedDays)))}, nil
	default:
		return Projection{}, fmt.Errorf("mode %q: %w", mode, rate.ErrUnknownMode)
	}
}

// Payout rounds a projected reward to the scale credited to wallets.
func Payout(reward decimal.Decimal) decimal.Decimal {
	return reward.Round(PayoutPlaces)
}
