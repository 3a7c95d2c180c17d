package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink stores audit records in PostgreSQL.
type PostgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink builds an audit sink backed by PostgreSQL.
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Write(ctx context.Context, r Record) error {
	meta, err := json.Marshal(r.Meta)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO audit_log (id, actor, action, target_type, target_id, meta, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Actor, r.Action, r.TargetType, r.TargetID, meta, r.CreatedAt.UTC())
	return err
}

func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT id, actor, action, target_type, target_id, meta, created_at
        FROM audit_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var meta []byte
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &r.Actor, &r.Action, &r.TargetType, &r.TargetID, &meta, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = createdAt.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
