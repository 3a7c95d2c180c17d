package stake

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the referenced stake or plan does not exist.
	ErrNotFound = errors.New("stake not found")

	// ErrPlanNotFound indicates the referenced plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")
)

// Repository persists stakes. Close is a conditional transition so two racing
// closers produce exactly one payout.
type Repository interface {
	Create(ctx context.Context, s Stake) error
	Get(ctx context.Context, id string) (Stake, error)
	ListByUser(ctx context.Context, userID string) ([]Stake, error)
	// ListMatured returns active locked stakes whose end time has passed.
	ListMatured(ctx context.Context, asOf time.Time) ([]Stake, error)
	// CloseActive transitions the stake out of active, recording end time and
	// realized yield. It reports false, without error, when the stake was not
	// active, so two racing closers cannot both pay out.
	CloseActive(ctx context.Context, id string, status Status, endAt time.Time, yield decimal.Decimal) (bool, error)
}

// PlanRepository resolves the plans stakes are opened against.
type PlanRepository interface {
	Get(ctx context.Context, id string) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
}
