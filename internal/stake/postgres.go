package stake

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/rate"
)

// PostgresRepository stores stakes in PostgreSQL with the plan snapshot
// inlined on the row.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a stake repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const stakeColumns = `id, user_id, plan_id, plan_mode, plan_days, plan_apr::text,
    amount::text, currency, start_at, end_at, status, yield_accumulated::text`

func (r *PostgresRepository) Create(ctx context.Context, s Stake) error {
	_, err := r.db.Exec(ctx, `INSERT INTO stakes
        (id, user_id, plan_id, plan_mode, plan_days, plan_apr, amount, currency, start_at, end_at, status, yield_accumulated)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.UserID, s.Plan.ID, string(s.Plan.Mode), s.Plan.Days, s.Plan.APR.String(),
		s.Amount.String(), s.Currency, s.StartAt.UTC(), s.EndAt, string(s.Status), s.YieldAccumulated.String())
	return err
}

func scanStake(row pgx.Row) (Stake, error) {
	var s Stake
	var mode, aprText, amountText, status, yieldText string
	var startAt time.Time
	var endAt *time.Time
	if err := row.Scan(&s.ID, &s.UserID, &s.Plan.ID, &mode, &s.Plan.Days, &aprText,
		&amountText, &s.Currency, &startAt, &endAt, &status, &yieldText); err != nil {
		return Stake{}, err
	}
	s.Plan.Mode = rate.Mode(mode)
	s.Plan.Currency = s.Currency
	s.Status = Status(status)
	s.StartAt = startAt.UTC()
	if endAt != nil {
		utc := endAt.UTC()
		s.EndAt = &utc
	}
	var err error
	if s.Plan.APR, err = decimal.NewFromString(aprText); err != nil {
		return Stake{}, err
	}
	if s.Amount, err = decimal.NewFromString(amountText); err != nil {
		return Stake{}, err
	}
	if s.YieldAccumulated, err = decimal.NewFromString(yieldText); err != nil {
		return Stake{}, err
	}
	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Stake, error) {
	row := r.db.QueryRow(ctx, `SELECT `+stakeColumns+` FROM stakes WHERE id = $1`, id)
	s, err := scanStake(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stake{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Stake, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stake
	for rows.Next() {
		s, err := scanStake(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Stake, error) {
	return r.list(ctx, `SELECT `+stakeColumns+` FROM stakes WHERE user_id = $1 ORDER BY start_at DESC`, userID)
}

func (r *PostgresRepository) ListMatured(ctx context.Context, asOf time.Time) ([]Stake, error) {
	return r.list(ctx, `SELECT `+stakeColumns+` FROM stakes
        WHERE status = 'active' AND plan_mode = 'locked' AND end_at <= $1`, asOf.UTC())
}

// CloseActive performs the guarded transition: the WHERE status = 'active'
// clause ensures exactly one of two racing closers wins.
func (r *PostgresRepository) CloseActive(ctx context.Context, id string, status Status, endAt time.Time, yield decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE stakes
        SET status = $2, end_at = $3, yield_accumulated = $4
        WHERE id = $1 AND status = 'active'`,
		id, string(status), endAt.UTC(), yield.String())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Either unknown or already closed; distinguish for the caller.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stakes WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// PostgresPlanRepository stores plans in PostgreSQL.
type PostgresPlanRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPlanRepository builds a plan repository backed by PostgreSQL.
func NewPostgresPlanRepository(db *pgxpool.Pool) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

func (r *PostgresPlanRepository) Get(ctx context.Context, id string) (Plan, error) {
	row := r.db.QueryRow(ctx, `SELECT id, currency, mode, days, apr::text FROM plans WHERE id = $1`, id)
	var p Plan
	var mode, aprText string
	if err := row.Scan(&p.ID, &p.Currency, &mode, &p.Days, &aprText); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, err
	}
	p.Mode = rate.Mode(mode)
	var err error
	if p.APR, err = decimal.NewFromString(aprText); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (r *PostgresPlanRepository) List(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.Query(ctx, `SELECT id, currency, mode, days, apr::text FROM plans ORDER BY currency, days`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		var mode, aprText string
		if err := rows.Scan(&p.ID, &p.Currency, &mode, &p.Days, &aprText); err != nil {
			return nil, err
		}
		p.Mode = rate.Mode(mode)
		if p.APR, err = decimal.NewFromString(aprText); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
