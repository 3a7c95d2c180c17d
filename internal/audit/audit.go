package audit

import (
	"context"
	"sync"
	"time"
)

// Record is one append-only audit entry for an admin action. Records are
// never updated or deleted.
type Record struct {
	ID         string
	Actor      string
	Action     string
	TargetType string
	TargetID   string
	Meta       map[string]string
	CreatedAt  time.Time
}

// Sink receives admin audit records and lists recent ones for the console.
type Sink interface {
	Write(ctx context.Context, r Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

type memorySink struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemorySink constructs an in-memory sink for tests and the simulated
// persistence mode.
func NewMemorySink() Sink {
	return &memorySink{}
}

func (s *memorySink) Write(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memorySink) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
