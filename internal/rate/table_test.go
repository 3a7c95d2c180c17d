package rate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTableLockedTerms(t *testing.T) {
	table := DefaultTable()

	cases := map[int]string{30: "0.075", 90: "0.105", 180: "0.125"}
	for days, want := range cases {
		got, err := table.Monthly(ModeLocked, days, decimal.Zero)
		if err != nil {
			t.Fatalf("monthly rate for %d days: %v", days, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("expected rate %s for %d days, got %s", want, days, got)
		}
	}
}

func TestTableLockedFallbackAPR(t *testing.T) {
	table := DefaultTable()

	apr := decimal.RequireFromString("0.12")
	got, err := table.Monthly(ModeLocked, 60, apr)
	if err != nil {
		t.Fatalf("monthly with fallback: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected 0.01 monthly from 0.12 APR, got %s", got)
	}
}

func TestTableMissingRateIsError(t *testing.T) {
	table := DefaultTable()

	if _, err := table.Monthly(ModeLocked, 60, decimal.Zero); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
	if _, err := table.Monthly(ModeLocked, 0, decimal.Zero); !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate for zero term, got %v", err)
	}
}

func TestTableUnknownModeFailsClosed(t *testing.T) {
	table := DefaultTable()

	if _, err := table.Monthly(Mode("vip"), 30, decimal.Zero); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestTableFlexible(t *testing.T) {
	table := DefaultTable()

	got, err := table.Monthly(ModeFlexible, 0, decimal.Zero)
	if err != nil {
		t.Fatalf("flexible rate: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.045")) {
		t.Fatalf("expected 0.045, got %s", got)
	}
}
