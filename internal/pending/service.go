package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/identity"
	"github.com/stake-harbor/stake_harbor/internal/notification"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// Service models the deposit/withdraw approval workflow. Users create
// requests; only an admin actor resolves them, exactly once each.
type Service struct {
	repo     Repository
	ledger   wallet.Ledger
	notifier notification.Notifier
	now      func() time.Time
}

// NewService builds a pending-request service.
func NewService(repo Repository, ledger wallet.Ledger, notifier notification.Notifier) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service's time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RequestDeposit records a deposit awaiting confirmation. Funds arrive
// externally, so the wallet is only credited on approval.
func (s *Service) RequestDeposit(ctx context.Context, userID, currency string, amountAsset, amountUSD decimal.Decimal) (Request, error) {
	if !amountAsset.IsPositive() {
		return Request{}, wallet.ErrInvalidAmount
	}

	req := Request{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        TypeDeposit,
		Currency:    currency,
		AmountAsset: amountAsset,
		AmountUSD:   amountUSD,
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// RequestWithdraw records a withdrawal request and immediately holds the
// amount in the locked bucket so it cannot be spent while awaiting approval.
func (s *Service) RequestWithdraw(ctx context.Context, userID, currency string, amountAsset, amountUSD decimal.Decimal) (Request, error) {
	if !amountAsset.IsPositive() {
		return Request{}, wallet.ErrInvalidAmount
	}

	req := Request{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        TypeWithdraw,
		Currency:    currency,
		AmountAsset: amountAsset,
		AmountUSD:   amountUSD,
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}

	if _, err := s.ledger.Lock(ctx, userID, currency, amountAsset, wallet.EntryWithdrawHold,
		map[string]string{"request_id": req.ID}); err != nil {
		return Request{}, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		// The hold was taken but the request row failed; release it.
		if _, unlockErr := s.ledger.Unlock(ctx, userID, currency, amountAsset, decimal.Zero,
			wallet.EntryWithdrawRelease, map[string]string{"request_id": req.ID, "rollback": "true"}); unlockErr != nil {
			return Request{}, fmt.Errorf("create request failed (%v) and release failed: %w", err, unlockErr)
		}
		return Request{}, err
	}
	return req, nil
}

// ListByUser returns the user's requests, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListByStatus returns requests in the given state, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status Status, limit int) ([]Request, error) {
	return s.repo.ListByStatus(ctx, status, limit)
}

// Approve realizes a pending request: a deposit credits the wallet, a
// withdraw removes the already-held funds from the system.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id string) (Request, error) {
	return s.resolve(ctx, actor, id, StatusApproved)
}

// Reject declines a pending request: a deposit has no balance effect, a
// withdraw returns the held funds to available with no reward.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id string) (Request, error) {
	return s.resolve(ctx, actor, id, StatusRejected)
}

func (s *Service) resolve(ctx context.Context, actor identity.Actor, id string, outcome Status) (Request, error) {
	if err := actor.RequireAdmin(); err != nil {
		return Request{}, err
	}

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}

	now := s.now()
	resolved, err := s.repo.Resolve(ctx, id, outcome, actor.ID, now)
	if err != nil {
		return Request{}, err
	}
	if !resolved {
		return Request{}, ErrAlreadyResolved
	}

	meta := map[string]string{"request_id": req.ID, "resolved_by": actor.ID}
	switch {
	case req.Type == TypeDeposit && outcome == StatusApproved:
		if _, err := s.ledger.Credit(ctx, req.UserID, req.Currency, req.AmountAsset, wallet.EntryDeposit, meta); err != nil {
			return Request{}, err
		}
	case req.Type == TypeWithdraw && outcome == StatusApproved:
		if _, err := s.ledger.DebitLocked(ctx, req.UserID, req.Currency, req.AmountAsset, wallet.EntryWithdraw, meta); err != nil {
			return Request{}, err
		}
	case req.Type == TypeWithdraw && outcome == StatusRejected:
		if _, err := s.ledger.Unlock(ctx, req.UserID, req.Currency, req.AmountAsset, decimal.Zero, wallet.EntryWithdrawRelease, meta); err != nil {
			return Request{}, err
		}
	}
	// A rejected deposit never touched the wallet.

	req.Status = outcome
	req.ResolvedAt = &now
	req.ResolvedBy = actor.ID

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindRequestResolved,
			Destination: req.UserID,
			Body:        fmt.Sprintf("Your %s request for %s %s was %s", req.Type, req.AmountAsset, req.Currency, outcome),
		})
	}
	return req, nil
}

// BatchItem is one request resolution in a bulk admin action.
type BatchItem struct {
	ID      string
	Approve bool
}

// BatchResult reports the outcome of one item in a bulk resolution.
type BatchResult struct {
	ID      string
	Status  Status
	Err     error
}

// ResolveBatch applies each resolution independently; one failure never
// blocks the others, and every item gets its own result.
func (s *Service) ResolveBatch(ctx context.Context, actor identity.Actor, items []BatchItem) ([]BatchResult, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		var (
			req Request
			err error
		)
		if item.Approve {
			req, err = s.Approve(ctx, actor, item.ID)
		} else {
			req, err = s.Reject(ctx, actor, item.ID)
		}
		results = append(results, BatchResult{ID: item.ID, Status: req.Status, Err: err})
	}
	return results, nil
}
