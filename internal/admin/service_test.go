package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/audit"
	"github.com/stake-harbor/stake_harbor/internal/identity"
	"github.com/stake-harbor/stake_harbor/internal/pending"
	"github.com/stake-harbor/stake_harbor/internal/rate"
	"github.com/stake-harbor/stake_harbor/internal/reward"
	"github.com/stake-harbor/stake_harbor/internal/stake"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	adminActor = identity.Actor{ID: "admin-1", Admin: true}
	userActor  = identity.Actor{ID: "u1"}
)

type fixture struct {
	ledger  wallet.Ledger
	stakes  *stake.Manager
	sink    audit.Sink
	service *Service
	now     *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledger := wallet.NewInMemory()
	calc := reward.NewCalculator(rate.DefaultTable())
	plans := stake.NewMemoryPlanRepository(stake.DefaultPlans("USDT")...)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := start
	stakes := stake.NewManager(stake.NewMemoryRepository(), plans, ledger, calc, nil).
		WithClock(func() time.Time { return now })
	requests := pending.NewService(pending.NewMemoryRepository(), ledger, nil)
	sink := audit.NewMemorySink()

	service := NewService(ledger, stakes, requests, sink, dec("0.10"))
	return &fixture{ledger: ledger, stakes: stakes, sink: sink, service: service, now: &now}
}

func TestAdjustmentsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.CreditWallet(ctx, userActor, "u2", "USDT", dec("10"), ""); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on credit, got %v", err)
	}
	if _, err := f.service.DebitWallet(ctx, userActor, "u2", "USDT", dec("10"), ""); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on debit, got %v", err)
	}
	if _, err := f.service.ListUsers(ctx, userActor); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on list, got %v", err)
	}
}

func TestCreditAndDebitWriteAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.CreditWallet(ctx, adminActor, "u1", "USDT", dec("500"), "promo credit")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !w.Available.Equal(dec("500")) {
		t.Fatalf("expected available 500, got %s", w.Available)
	}

	if _, err := f.service.DebitWallet(ctx, adminActor, "u1", "USDT", dec("200"), "correction"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	// Admin debits still honor the non-negative invariant.
	if _, err := f.service.DebitWallet(ctx, adminActor, "u1", "USDT", dec("301"), ""); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	records, err := f.sink.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}
	if records[0].Action != "wallet_debit" || records[1].Action != "wallet_credit" {
		t.Fatalf("unexpected actions: %s, %s", records[0].Action, records[1].Action)
	}
	if records[1].Actor != "admin-1" || records[1].Meta["note"] != "promo credit" {
		t.Fatalf("audit record missing actor/meta: %+v", records[1])
	}

	// The failed debit must not be audited.
	for _, r := range records {
		if r.Meta["amount"] == "301" {
			t.Fatal("failed debit was audited")
		}
	}
}

func TestForceCloseStakeWithPenalty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wallet.Seed(f.ledger, "u1", "USDT", dec("1000"), dec("0"))

	s, err := f.stakes.Open(ctx, "u1", "USDT-180", dec("1000"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	closed, err := f.service.ForceCloseStake(ctx, adminActor, s.ID, decimal.Zero, true, "tos violation")
	if err != nil {
		t.Fatalf("force close: %v", err)
	}
	if closed.Status != stake.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", closed.Status)
	}

	// 10% of the 1000 principal withheld.
	w, _ := f.ledger.Balance(ctx, "u1", "USDT")
	if !w.Available.Equal(dec("900")) || !w.Locked.IsZero() {
		t.Fatalf("unexpected wallet: available=%s locked=%s", w.Available, w.Locked)
	}

	records, _ := f.sink.Recent(ctx, 1)
	if len(records) != 1 || records[0].Action != "stake_force_close" || records[0].TargetID != s.ID {
		t.Fatalf("missing force close audit: %+v", records)
	}
}

func TestForceCloseStakeWithBonus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wallet.Seed(f.ledger, "u1", "USDT", dec("100"), dec("0"))

	s, err := f.stakes.Open(ctx, "u1", "USDT-flex", dec("100"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := f.service.ForceCloseStake(ctx, adminActor, s.ID, dec("2.5"), false, "goodwill"); err != nil {
		t.Fatalf("force close: %v", err)
	}

	w, _ := f.ledger.Balance(ctx, "u1", "USDT")
	if !w.Available.Equal(dec("102.5")) {
		t.Fatalf("expected available 102.5, got %s", w.Available)
	}
}

func TestSweepWritesAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wallet.Seed(f.ledger, "u1", "USDT", dec("100"), dec("0"))

	if _, err := f.stakes.Open(ctx, "u1", "USDT-30", dec("100")); err != nil {
		t.Fatalf("open: %v", err)
	}
	*f.now = f.now.Add(31 * 24 * time.Hour)

	results, err := f.service.SweepMatured(ctx, adminActor)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 1 || !results[0].Closed {
		t.Fatalf("unexpected results: %+v", results)
	}

	records, _ := f.sink.Recent(ctx, 1)
	if len(records) != 1 || records[0].Action != "maturity_sweep" || records[0].Meta["closed"] != "1" {
		t.Fatalf("missing sweep audit: %+v", records)
	}
}

func TestListUsersAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wallet.Seed(f.ledger, "bob", "USDT", dec("10"), dec("5"))
	wallet.Seed(f.ledger, "alice", "USDT", dec("20"), dec("0"))
	wallet.Seed(f.ledger, "alice", "ETH", dec("1.5"), dec("0.5"))

	aggregates, err := f.service.ListUsers(ctx, adminActor)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(aggregates) != 2 {
		t.Fatalf("expected 2 users, got %d", len(aggregates))
	}
	if aggregates[0].UserID != "alice" || len(aggregates[0].Wallets) != 2 {
		t.Fatalf("unexpected first aggregate: %+v", aggregates[0])
	}
	if aggregates[0].Wallets[0].Currency != "ETH" || !aggregates[0].Wallets[0].Total().Equal(dec("2")) {
		t.Fatalf("unexpected alice ETH total: %+v", aggregates[0].Wallets[0])
	}
	if aggregates[1].UserID != "bob" || !aggregates[1].Wallets[0].Total().Equal(dec("15")) {
		t.Fatalf("unexpected bob aggregate: %+v", aggregates[1])
	}
}

func TestResolveRequestsAuditsSuccesses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requests := pending.NewService(pending.NewMemoryRepository(), f.ledger, nil)
	service := NewService(f.ledger, f.stakes, requests, f.sink, dec("0.10"))

	req, err := requests.RequestDeposit(ctx, "u1", "USDT", dec("40"), dec("40"))
	if err != nil {
		t.Fatalf("request deposit: %v", err)
	}

	results, err := service.ResolveRequests(ctx, adminActor, []pending.BatchItem{
		{ID: req.ID, Approve: true},
		{ID: "missing", Approve: true},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Err != nil || !errors.Is(results[1].Err, pending.ErrNotFound) {
		t.Fatalf("unexpected results: %+v", results)
	}

	records, _ := f.sink.Recent(ctx, 0)
	if len(records) != 1 || records[0].Action != "request_approve" || records[0].TargetID != req.ID {
		t.Fatalf("expected one request_approve audit, got %+v", records)
	}
}
