package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/audit"
	"github.com/stake-harbor/stake_harbor/internal/identity"
	"github.com/stake-harbor/stake_harbor/internal/pending"
	"github.com/stake-harbor/stake_harbor/internal/stake"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// Service is the admin adjustment surface: manual credits/debits, forced
// stake closure, request resolution, and the maturity sweep. Every action
// verifies the actor and writes an audit record distinct from the wallet
// entry log.
type Service struct {
	ledger   wallet.Ledger
	stakes   *stake.Manager
	requests *pending.Service
	sink     audit.Sink
	// penalty is the early-exit fraction deducted from principal when a
	// locked stake is force-closed with penalize set.
	penalty decimal.Decimal
}

// NewService builds the admin service.
func NewService(ledger wallet.Ledger, stakes *stake.Manager, requests *pending.Service, sink audit.Sink, penalty decimal.Decimal) *Service {
	return &Service{ledger: ledger, stakes: stakes, requests: requests, sink: sink, penalty: penalty}
}

func (s *Service) record(ctx context.Context, actor identity.Actor, action, targetType, targetID string, meta map[string]string) {
	_ = s.sink.Write(ctx, audit.Record{
		ID:         uuid.NewString(),
		Actor:      actor.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Meta:       meta,
		CreatedAt:  time.Now().UTC(),
	})
}

// CreditWallet adds funds to a user's available balance.
func (s *Service) CreditWallet(ctx context.Context, actor identity.Actor, userID, currency string, amount decimal.Decimal, note string) (wallet.Wallet, error) {
	if err := actor.RequireAdmin(); err != nil {
		return wallet.Wallet{}, err
	}

	w, err := s.ledger.Credit(ctx, userID, currency, amount, wallet.EntryAdminCredit,
		map[string]string{"admin": actor.ID, "note": note})
	if err != nil {
		return wallet.Wallet{}, err
	}
	s.record(ctx, actor, "wallet_credit", "wallet", userID+"/"+currency,
		map[string]string{"amount": amount.String(), "note": note})
	return w, nil
}

// DebitWallet removes funds from a user's available balance. Admin debits
// bypass user-initiated restrictions but remain subject to the non-negative
// balance invariant.
func (s *Service) DebitWallet(ctx context.Context, actor identity.Actor, userID, currency string, amount decimal.Decimal, note string) (wallet.Wallet, error) {
	if err := actor.RequireAdmin(); err != nil {
		return wallet.Wallet{}, err
	}

	w, err := s.ledger.Debit(ctx, userID, currency, amount, wallet.EntryAdminDebit,
		map[string]string{"admin": actor.ID, "note": note})
	if err != nil {
		return wallet.Wallet{}, err
	}
	s.record(ctx, actor, "wallet_debit", "wallet", userID+"/"+currency,
		map[string]string{"amount": amount.String(), "note": note})
	return w, nil
}

// ForceCloseStake cancels an active stake. The bonus paid on top of the
// principal is admin-specified; with penalize set it becomes a deduction of
// the configured fraction of principal instead.
func (s *Service) ForceCloseStake(ctx context.Context, actor identity.Actor, stakeID string, bonus decimal.Decimal, penalize bool, note string) (stake.Stake, error) {
	if err := actor.RequireAdmin(); err != nil {
		return stake.Stake{}, err
	}

	if penalize {
		st, err := s.stakes.Get(ctx, stakeID)
		if err != nil {
			return stake.Stake{}, err
		}
		bonus = st.Amount.Mul(s.penalty).Neg()
	}

	closed, err := s.stakes.ForceClose(ctx, stakeID, bonus)
	if err != nil {
		return stake.Stake{}, err
	}
	s.record(ctx, actor, "stake_force_close", "stake", stakeID, map[string]string{
		"bonus":    bonus.String(),
		"penalize": fmt.Sprintf("%t", penalize),
		"note":     note,
	})
	return closed, nil
}

// SweepMatured closes all due locked stakes and audits the run.
func (s *Service) SweepMatured(ctx context.Context, actor identity.Actor) ([]stake.SweepResult, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	results, err := s.stakes.SweepMatured(ctx)
	if err != nil {
		return nil, err
	}

	var closed int
	for _, r := range results {
		if r.Closed {
			closed++
		}
	}
	s.record(ctx, actor, "maturity_sweep", "stake", "", map[string]string{
		"due":    fmt.Sprintf("%d", len(results)),
		"closed": fmt.Sprintf("%d", closed),
	})
	return results, nil
}

// ListRequests returns requests in the given state for the admin console.
func (s *Service) ListRequests(ctx context.Context, actor identity.Actor, status pending.Status, limit int) ([]pending.Request, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.requests.ListByStatus(ctx, status, limit)
}

// ResolveRequests applies a batch of approvals/rejections, auditing each
// item that actually resolved.
func (s *Service) ResolveRequests(ctx context.Context, actor identity.Actor, items []pending.BatchItem) ([]pending.BatchResult, error) {
	results, err := s.requests.ResolveBatch(ctx, actor, items)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		action := "request_reject"
		if r.Status == pending.StatusApproved {
			action = "request_approve"
		}
		s.record(ctx, actor, action, "pending_request", r.ID, nil)
	}
	return results, nil
}

// UserAggregate is one user's wallets for the admin balance listing.
type UserAggregate struct {
	UserID  string
	Wallets []wallet.Wallet
}

// ListUsers returns every user holding a wallet, with their balance pairs.
func (s *Service) ListUsers(ctx context.Context, actor identity.Actor) ([]UserAggregate, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	wallets, err := s.ledger.All(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]wallet.Wallet)
	for _, w := range wallets {
		byUser[w.UserID] = append(byUser[w.UserID], w)
	}
	out := make([]UserAggregate, 0, len(byUser))
	for userID, ws := range byUser {
		sort.Slice(ws, func(i, j int) bool { return ws[i].Currency < ws[j].Currency })
		out = append(out, UserAggregate{UserID: userID, Wallets: ws})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// RecentActions lists the latest audit records.
func (s *Service) RecentActions(ctx context.Context, actor identity.Actor, limit int) ([]audit.Record, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.sink.Recent(ctx, limit)
}
