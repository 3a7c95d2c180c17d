package rate

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownMode occurs when a rate is requested for a staking mode the
	// table does not recognize.
	ErrUnknownMode = errors.New("unknown staking mode")

	// ErrNoRate indicates no rate is configured for the requested term and no
	// fallback APR was provided. Missing rate configuration is always an
	// error, never a silent zero.
	ErrNoRate = errors.New("no rate configured")
)

// Mode identifies how a stake accrues reward.
type Mode string

const (
	// ModeLocked stakes run for a fixed term and pay reward only at maturity.
	ModeLocked Mode = "locked"
	// ModeFlexible stakes have no term; reward accrues daily until closed.
	ModeFlexible Mode = "flexible"
)

// Valid reports whether the mode is one the ledger understands.
func (m Mode) Valid() bool {
	return m == ModeLocked || m == ModeFlexible
}

var monthsPerYear = decimal.NewFromInt(12)

// Table resolves monthly simple rates for stake plans. Locked terms are keyed
// by exact day count; terms outside the table fall back to the plan's stored
// APR divided into a monthly rate.
type Table struct {
	locked   map[int]decimal.Decimal
	flexible decimal.Decimal
}

// NewTable builds a rate table from per-term monthly rates and a single
// flexible monthly rate.
func NewTable(locked map[int]decimal.Decimal, flexible decimal.Decimal) *Table {
	terms := make(map[int]decimal.Decimal, len(locked))
	for days, r := range locked {
		terms[days] = r
	}
	return &Table{locked: terms, flexible: flexible}
}

// DefaultTable returns the product's observed rate schedule.
func DefaultTable() *Table {
	return NewTable(map[int]decimal.Decimal{
		30:  decimal.RequireFromString("0.075"),
		90:  decimal.RequireFromString("0.105"),
		180: decimal.RequireFromString("0.125"),
	}, decimal.RequireFromString("0.045"))
}

// Monthly returns the monthly simple rate for the given mode and term.
// fallbackAPR is the plan's stored annualized rate, consulted only when a
// locked term is absent from the table; pass decimal.Zero when the plan
// carries none.
func (t *Table) Monthly(mode Mode, termDays int, fallbackAPR decimal.Decimal) (decimal.Decimal, error) {
	switch mode {
	case ModeFlexible:
		if t.flexible.IsZero() {
			return decimal.Zero, ErrNoRate
		}
		return t.flexible, nil
	case ModeLocked:
		if termDays <= 0 {
			return decimal.Zero, fmt.Errorf("locked term must be positive, got %d: %w", termDays, ErrNoRate)
		}
		if r, ok := t.locked[termDays]; ok {
			return r, nil
		}
		if fallbackAPR.IsPositive() {
			return fallbackAPR.Div(monthsPerYear), nil
		}
		return decimal.Zero, fmt.Errorf("no rate for %d-day term: %w", termDays, ErrNoRate)
	default:
		return decimal.Zero, fmt.Errorf("mode %q: %w", mode, ErrUnknownMode)
	}
}
