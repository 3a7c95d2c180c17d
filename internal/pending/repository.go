package pending

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists pending requests. Resolve is a conditional transition
// so a request can only ever leave pending once.
type Repository interface {
	Create(ctx context.Context, r Request) error
	Get(ctx context.Context, id string) (Request, error)
	ListByUser(ctx context.Context, userID string) ([]Request, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Request, error)
	// Resolve transitions a pending request to the given terminal status. It
	// reports false, without error, when the request was no longer pending.
	Resolve(ctx context.Context, id string, status Status, resolvedBy string, at time.Time) (bool, error)
}

// PostgresRepository stores pending requests in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a request repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const requestColumns = `id, user_id, type, currency, amount_asset::text, amount_usd::text,
    status, created_at, resolved_at, resolved_by`

func (r *PostgresRepository) Create(ctx context.Context, req Request) error {
	_, err := r.db.Exec(ctx, `INSERT INTO pending_requests
        (id, user_id, type, currency, amount_asset, amount_usd, status, created_at, resolved_at, resolved_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.UserID, string(req.Type), req.Currency, req.AmountAsset.String(), req.AmountUSD.String(),
		string(req.Status), req.CreatedAt.UTC(), req.ResolvedAt, req.ResolvedBy)
	return err
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var typ, amountText, usdText, status string
	var createdAt time.Time
	var resolvedAt *time.Time
	var resolvedBy *string
	if err := row.Scan(&req.ID, &req.UserID, &typ, &req.Currency, &amountText, &usdText,
		&status, &createdAt, &resolvedAt, &resolvedBy); err != nil {
		return Request{}, err
	}
	req.Type = Type(typ)
	req.Status = Status(status)
	req.CreatedAt = createdAt.UTC()
	if resolvedAt != nil {
		utc := resolvedAt.UTC()
		req.ResolvedAt = &utc
	}
	if resolvedBy != nil {
		req.ResolvedBy = *resolvedBy
	}
	var err error
	if req.AmountAsset, err = decimal.NewFromString(amountText); err != nil {
		return Request{}, err
	}
	if req.AmountUSD, err = decimal.NewFromString(usdText); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	row := r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM pending_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM pending_requests
        WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+requestColumns+` FROM pending_requests
        WHERE status = $1 ORDER BY created_at ASC LIMIT $2`, string(status), limit)
}

// Resolve performs the guarded transition out of pending.
func (r *PostgresRepository) Resolve(ctx context.Context, id string, status Status, resolvedBy string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE pending_requests
        SET status = $2, resolved_by = $3, resolved_at = $4
        WHERE id = $1 AND status = 'pending'`,
		id, string(status), resolvedBy, at.UTC())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pending_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}
	return true, nil
}
