package stake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/rate"
)

type memoryRepository struct {
	mu     sync.RWMutex
	stakes map[string]Stake
}

// NewMemoryRepository constructs an in-memory stake repository for tests and
// the simulated persistence mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{stakes: make(map[string]Stake)}
}

func (r *memoryRepository) Create(_ context.Context, s Stake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stakes[s.ID]; exists {
		return errors.New("stake exists")
	}
	r.stakes[s.ID] = s
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Stake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stakes[id]
	if !ok {
		return Stake{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Stake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Stake
	for _, s := range r.stakes {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListMatured(_ context.Context, asOf time.Time) ([]Stake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Stake
	for _, s := range r.stakes {
		if s.Status != StatusActive || s.Plan.Mode != rate.ModeLocked {
			continue
		}
		if s.EndAt != nil && !s.EndAt.After(asOf) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepository) CloseActive(_ context.Context, id string, status Status, endAt time.Time, yield decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stakes[id]
	if !ok {
		return false, ErrNotFound
	}
	if s.Status != StatusActive {
		return false, nil
	}
	s.Status = status
	s.EndAt = &endAt
	s.YieldAccumulated = yield
	r.stakes[id] = s
	return true, nil
}

type memoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewMemoryPlanRepository constructs an in-memory plan repository seeded with
// the provided plans.
func NewMemoryPlanRepository(plans ...Plan) PlanRepository {
	r := &memoryPlanRepository{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *memoryPlanRepository) Get(_ context.Context, id string) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

func (r *memoryPlanRepository) List(_ context.Context) ([]Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	return out, nil
}
