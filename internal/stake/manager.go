package stake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/notification"
	"github.com/stake-harbor/stake_harbor/internal/rate"
	"github.com/stake-harbor/stake_harbor/internal/reward"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

var (
	// ErrWrongStakeType occurs when an operation is applied to an
	// incompatible plan type, e.g. a flexible close on a locked stake.
	ErrWrongStakeType = errors.New("wrong stake type")

	// ErrStakeNotActive occurs when a close is attempted on a stake that has
	// already reached a terminal status.
	ErrStakeNotActive = errors.New("stake not active")

	// ErrNotMatured occurs when a maturity close is attempted before the
	// locked stake's end time has passed.
	ErrNotMatured = errors.New("stake not matured")
)

const hoursPerDay = 24

// Manager orchestrates opening, accruing, and closing stakes. Funds move only
// through the wallet ledger; rewards come only from the calculator.
type Manager struct {
	repo     Repository
	plans    PlanRepository
	ledger   wallet.Ledger
	calc     *reward.Calculator
	notifier notification.Notifier
	now      func() time.Time
}

// NewManager builds a stake manager.
func NewManager(repo Repository, plans PlanRepository, ledger wallet.Ledger, calc *reward.Calculator, notifier notification.Notifier) *Manager {
	return &Manager{
		repo:     repo,
		plans:    plans,
		ledger:   ledger,
		calc:     calc,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the manager's time source. Tests use it to control
// elapsed-day computation.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func elapsedDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / hoursPerDay)
}

// Plans lists the available plans.
func (m *Manager) Plans(ctx context.Context) ([]Plan, error) {
	return m.plans.List(ctx)
}

// List returns the user's stakes.
func (m *Manager) List(ctx context.Context, userID string) ([]Stake, error) {
	return m.repo.ListByUser(ctx, userID)
}

// Get returns a stake by id.
func (m *Manager) Get(ctx context.Context, id string) (Stake, error) {
	return m.repo.Get(ctx, id)
}

// Open funds a new position by moving amount from available to locked. The
// rate configuration is validated before any funds move, so a plan without a
// resolvable rate can never trap a user's balance.
func (m *Manager) Open(ctx context.Context, userID, planID string, amount decimal.Decimal) (Stake, error) {
	plan, err := m.plans.Get(ctx, planID)
	if err != nil {
		return Stake{}, err
	}
	if !amount.IsPositive() {
		return Stake{}, wallet.ErrInvalidAmount
	}
	if _, err := m.calc.Project(amount, plan.Mode, plan.Days, plan.APR, 0); err != nil {
		return Stake{}, err
	}

	now := m.now()
	s := Stake{
		ID:               uuid.NewString(),
		UserID:           userID,
		Plan:             plan,
		Amount:           amount,
		Currency:         plan.Currency,
		StartAt:          now,
		Status:           StatusActive,
		YieldAccumulated: decimal.Zero,
	}
	if plan.Mode == rate.ModeLocked {
		endAt := now.Add(time.Duration(plan.Days) * hoursPerDay * time.Hour)
		s.EndAt = &endAt
	}

	if _, err := m.ledger.Lock(ctx, userID, plan.Currency, amount, wallet.EntryStakeCreate,
		map[string]string{"stake_id": s.ID, "plan_id": plan.ID}); err != nil {
		return Stake{}, err
	}

	if err := m.repo.Create(ctx, s); err != nil {
		// The funds were locked but the stake row failed; return them.
		if _, unlockErr := m.ledger.Unlock(ctx, userID, plan.Currency, amount, decimal.Zero,
			wallet.EntryStakeWithdraw, map[string]string{"stake_id": s.ID, "rollback": "true"}); unlockErr != nil {
			return Stake{}, fmt.Errorf("create stake failed (%v) and unlock failed: %w", err, unlockErr)
		}
		return Stake{}, err
	}

	return s, nil
}

// Projection returns the stake's current reward projection without mutating
// anything.
func (m *Manager) Projection(s Stake) (reward.Projection, error) {
	return m.calc.Project(s.Amount, s.Plan.Mode, s.Plan.Days, s.Plan.APR, elapsedDays(s.StartAt, m.now()))
}

// CloseFlexible realizes a flexible stake at the user's request: principal
// plus linear accrual since start returns to the available balance.
func (m *Manager) CloseFlexible(ctx context.Context, userID, stakeID string) (Stake, error) {
	s, err := m.repo.Get(ctx, stakeID)
	if err != nil {
		return Stake{}, err
	}
	if s.UserID != userID {
		return Stake{}, ErrNotFound
	}
	if s.Plan.Mode != rate.ModeFlexible {
		return Stake{}, ErrWrongStakeType
	}
	if s.Status != StatusActive {
		return Stake{}, ErrStakeNotActive
	}

	now := m.now()
	elapsed := elapsedDays(s.StartAt, now)
	proj, err := m.calc.Project(s.Amount, s.Plan.Mode, s.Plan.Days, s.Plan.APR, elapsed)
	if err != nil {
		return Stake{}, err
	}
	payout := reward.Payout(proj.Total)

	closed, err := m.repo.CloseActive(ctx, s.ID, StatusCompleted, now, payout)
	if err != nil {
		return Stake{}, err
	}
	if !closed {
		return Stake{}, ErrStakeNotActive
	}

	if _, err := m.ledger.Unlock(ctx, userID, s.Currency, s.Amount, payout, wallet.EntryStakeWithdraw, map[string]string{
		"stake_id":     s.ID,
		"reward":       payout.String(),
		"elapsed_days": fmt.Sprintf("%d", elapsed),
	}); err != nil {
		return Stake{}, err
	}

	s.Status = StatusCompleted
	s.EndAt = &now
	s.YieldAccumulated = payout
	m.notifyClosed(ctx, s, payout)
	return s, nil
}

// MaturityClose pays out a locked stake whose term has elapsed. It is
// idempotent: an already-closed stake reports closed=false with no error, so
// an at-least-once sweep can safely retry.
func (m *Manager) MaturityClose(ctx context.Context, stakeID string) (Stake, bool, error) {
	s, err := m.repo.Get(ctx, stakeID)
	if err != nil {
		return Stake{}, false, err
	}
	if s.Status != StatusActive {
		return s, false, nil
	}
	if s.Plan.Mode != rate.ModeLocked {
		return Stake{}, false, ErrWrongStakeType
	}
	now := m.now()
	if s.EndAt == nil || now.Before(*s.EndAt) {
		return Stake{}, false, ErrNotMatured
	}

	// Locked stakes always pay the full-term reward at maturity.
	proj, err := m.calc.Project(s.Amount, s.Plan.Mode, s.Plan.Days, s.Plan.APR, 0)
	if err != nil {
		return Stake{}, false, err
	}
	payout := reward.Payout(proj.Total)

	closed, err := m.repo.CloseActive(ctx, s.ID, StatusCompleted, *s.EndAt, payout)
	if err != nil {
		return Stake{}, false, err
	}
	if !closed {
		// Lost the race against another closer; the reward was paid once.
		return s, false, nil
	}

	meta := map[string]string{"stake_id": s.ID}
	if _, err := m.ledger.Unlock(ctx, s.UserID, s.Currency, s.Amount, decimal.Zero, wallet.EntryStakeWithdraw, meta); err != nil {
		return Stake{}, false, err
	}
	if payout.IsPositive() {
		yieldMeta := map[string]string{"stake_id": s.ID, "term_days": fmt.Sprintf("%d", s.Plan.Days)}
		if _, err := m.ledger.Credit(ctx, s.UserID, s.Currency, payout, wallet.EntryStakeYield, yieldMeta); err != nil {
			return Stake{}, false, err
		}
	}

	s.Status = StatusCompleted
	s.YieldAccumulated = payout
	m.notifyClosed(ctx, s, payout)
	return s, true, nil
}

// ForceClose cancels any active stake regardless of type or maturity,
// unlocking principal plus an admin-specified bonus. A negative bonus is a
// penalty, bounded by the ledger so available cannot go negative. Callers are
// responsible for authorization and audit.
func (m *Manager) ForceClose(ctx context.Context, stakeID string, bonus decimal.Decimal) (Stake, error) {
	s, err := m.repo.Get(ctx, stakeID)
	if err != nil {
		return Stake{}, err
	}
	if s.Status != StatusActive {
		return Stake{}, ErrStakeNotActive
	}

	yield := decimal.Zero
	if bonus.IsPositive() {
		yield = bonus
	}

	now := m.now()
	closed, err := m.repo.CloseActive(ctx, s.ID, StatusCancelled, now, yield)
	if err != nil {
		return Stake{}, err
	}
	if !closed {
		return Stake{}, ErrStakeNotActive
	}

	if _, err := m.ledger.Unlock(ctx, s.UserID, s.Currency, s.Amount, bonus, wallet.EntryStakeWithdraw, map[string]string{
		"stake_id": s.ID,
		"forced":   "true",
		"bonus":    bonus.String(),
	}); err != nil {
		return Stake{}, err
	}

	s.Status = StatusCancelled
	s.EndAt = &now
	s.YieldAccumulated = yield
	m.notifyClosed(ctx, s, bonus)
	return s, nil
}

// SweepResult reports the outcome of one stake in a maturity sweep.
type SweepResult struct {
	StakeID string
	Closed  bool
	Err     error
}

// SweepMatured closes every due locked stake, isolating per-item failures so
// one bad row cannot block the rest of the sweep.
func (m *Manager) SweepMatured(ctx context.Context) ([]SweepResult, error) {
	due, err := m.repo.ListMatured(ctx, m.now())
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(due))
	for _, s := range due {
		_, closed, err := m.MaturityClose(ctx, s.ID)
		results = append(results, SweepResult{StakeID: s.ID, Closed: closed, Err: err})
	}
	return results, nil
}

func (m *Manager) notifyClosed(ctx context.Context, s Stake, paid decimal.Decimal) {
	if m.notifier == nil {
		return
	}
	_ = m.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindStakeClosed,
		Destination: s.UserID,
		Body:        fmt.Sprintf("Stake %s closed, %s %s returned with reward %s", s.ID, s.Amount, s.Currency, paid),
	})
}
