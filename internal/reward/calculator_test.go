package reward

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/rate"
)

func TestProjectLockedFullTerm(t *testing.T) {
	calc := NewCalculator(rate.DefaultTable())

	// 180-day stake of 1000 at monthly 0.125: total = 1000 * 0.125 * 6 = 750.
	p, err := calc.Project(decimal.NewFromInt(1000), rate.ModeLocked, 180, decimal.Zero, 42)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !p.Total.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected total 750, got %s", p.Total)
	}
	want := decimal.NewFromInt(750).Div(decimal.NewFromInt(180))
	if !p.Daily.Equal(want) {
		t.Fatalf("expected daily %s, got %s", want, p.Daily)
	}

	// Elapsed time must not influence a locked projection.
	p2, err := calc.Project(decimal.NewFromInt(1000), rate.ModeLocked, 180, decimal.Zero, 0)
	if err != nil {
		t.Fatalf("project at day 0: %v", err)
	}
	if !p2.Total.Equal(p.Total) || !p2.Daily.Equal(p.Daily) {
		t.Fatalf("locked projection changed with elapsed days")
	}
}

func TestProjectFlexibleAccrual(t *testing.T) {
	calc := NewCalculator(rate.DefaultTable())

	// 500 at flexible monthly 0.045: daily = 0.75, 10 days = 7.5.
	p, err := calc.Project(decimal.NewFromInt(500), rate.ModeFlexible, 0, decimal.Zero, 10)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !p.Daily.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("expected daily 0.75, got %s", p.Daily)
	}
	if !p.Total.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected total 7.5, got %s", p.Total)
	}
}

func TestProjectDeterministic(t *testing.T) {
	calc := NewCalculator(rate.DefaultTable())

	first, err := calc.Project(decimal.RequireFromString("123.45"), rate.ModeFlexible, 0, decimal.Zero, 17)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := calc.Project(decimal.RequireFromString("123.45"), rate.ModeFlexible, 0, decimal.Zero, 17)
		if err != nil {
			t.Fatalf("repeat project: %v", err)
		}
		if !again.Daily.Equal(first.Daily) || !again.Total.Equal(first.Total) {
			t.Fatalf("projection not deterministic: %v vs %v", again, first)
		}
	}
}

func TestProjectRejectsNonPositivePrincipal(t *testing.T) {
	calc := NewCalculator(rate.DefaultTable())

	if _, err := calc.Project(decimal.Zero, rate.ModeFlexible, 0, decimal.Zero, 1); !errors.Is(err, ErrInvalidPrincipal) {
		t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
	}
	if _, err := calc.Project(decimal.NewFromInt(-5), rate.ModeLocked, 30, decimal.Zero, 1); !errors.Is(err, ErrInvalidPrincipal) {
		t.Fatalf("expected ErrInvalidPrincipal for negative, got %v", err)
	}
}

func TestProjectUnknownRateSurfaces(t *testing.T) {
	calc := NewCalculator(rate.DefaultTable())

	if _, err := calc.Project(decimal.NewFromInt(100), rate.ModeLocked, 45, decimal.Zero, 0); !errors.Is(err, rate.ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
}
