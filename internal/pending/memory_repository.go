package pending

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	requests map[string]Request
}

// NewMemoryRepository constructs an in-memory request repository for tests
// and the simulated persistence mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{requests: make(map[string]Request)}
}

func (r *memoryRepository) Create(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; exists {
		return errors.New("request exists")
	}
	r.requests[req.ID] = req
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Request
	for _, req := range r.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) ListByStatus(_ context.Context, status Status, limit int) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Request
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) Resolve(_ context.Context, id string, status Status, resolvedBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return false, ErrNotFound
	}
	if req.Status != StatusPending {
		return false, nil
	}
	req.Status = status
	req.ResolvedBy = resolvedBy
	req.ResolvedAt = &at
	r.requests[id] = req
	return true, nil
}
