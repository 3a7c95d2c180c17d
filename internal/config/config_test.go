package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadSimulatedDefaults(t *testing.T) {
	t.Setenv("PERSISTENCE_MODE", "simulated")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Simulated() {
		t.Fatal("expected simulated mode")
	}
	if cfg.BaseCurrency != "USDT" {
		t.Fatalf("unexpected base currency %q", cfg.BaseCurrency)
	}
	if got := cfg.LockedRates[90]; !got.Equal(decimal.RequireFromString("0.105")) {
		t.Fatalf("unexpected 90d rate %s", got)
	}
	if !cfg.FlexibleMonthlyRate.Equal(decimal.RequireFromString("0.045")) {
		t.Fatalf("unexpected flexible rate %s", cfg.FlexibleMonthlyRate)
	}
	if !cfg.EarlyExitPenalty.Equal(decimal.RequireFromString("0.10")) {
		t.Fatalf("unexpected penalty %s", cfg.EarlyExitPenalty)
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("PERSISTENCE_MODE", "simulated")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestLoadRealModeRequiresStores(t *testing.T) {
	t.Setenv("PERSISTENCE_MODE", "real")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestParseLockedRates(t *testing.T) {
	rates, err := parseLockedRates("30:0.05, 60:0.06")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rates) != 2 || !rates[60].Equal(decimal.RequireFromString("0.06")) {
		t.Fatalf("unexpected rates %v", rates)
	}

	for _, raw := range []string{"", "30", "abc:0.05", "30:xyz", "-5:0.05"} {
		if _, err := parseLockedRates(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
