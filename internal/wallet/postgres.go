package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists wallets and entries in PostgreSQL. Every operation
// runs as a single transaction that row-locks the wallet, applies the balance
// change, and appends the entry, so concurrent callers serialize per wallet.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const lockWalletQuery = `SELECT available::text, locked::text FROM wallets
    WHERE user_id = $1 AND currency = $2 FOR UPDATE`

func lockWallet(ctx context.Context, tx pgx.Tx, userID, currency string) (Wallet, error) {
	var availableText, lockedText string
	if err := tx.QueryRow(ctx, lockWalletQuery, userID, currency).Scan(&availableText, &lockedText); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	available, err := decimal.NewFromString(availableText)
	if err != nil {
		return Wallet{}, err
	}
	locked, err := decimal.NewFromString(lockedText)
	if err != nil {
		return Wallet{}, err
	}
	return Wallet{UserID: userID, Currency: currency, Available: available, Locked: locked}, nil
}

func saveWallet(ctx context.Context, tx pgx.Tx, w Wallet, now time.Time) error {
	_, err := tx.Exec(ctx, `INSERT INTO wallets (user_id, currency, available, locked, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, currency)
        DO UPDATE SET available = EXCLUDED.available, locked = EXCLUDED.locked, updated_at = EXCLUDED.updated_at`,
		w.UserID, w.Currency, w.Available.String(), w.Locked.String(), now)
	return err
}

func insertEntry(ctx context.Context, tx pgx.Tx, e Entry) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO wallet_entries (id, user_id, currency, kind, amount, meta, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Currency, string(e.Kind), e.Amount.String(), meta, e.CreatedAt)
	return err
}

// mutate runs one wallet operation: row-lock, apply, persist wallet and entry.
// createMissing controls whether an absent wallet row starts from zero (credit
// path) or fails with ErrNotFound.
func (l *PostgresLedger) mutate(ctx context.Context, userID, currency string, createMissing bool,
	apply func(w Wallet) (Wallet, decimal.Decimal, error), kind EntryKind, meta map[string]string) (Wallet, error) {

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Wallet{}, storageErr("begin", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := lockWallet(ctx, tx, userID, currency)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if !createMissing {
				return Wallet{}, ErrNotFound
			}
			w = Wallet{UserID: userID, Currency: currency, Available: decimal.Zero, Locked: decimal.Zero}
		} else {
			return Wallet{}, storageErr("lock wallet", err)
		}
	}

	updated, entryAmount, err := apply(w)
	if err != nil {
		return Wallet{}, err
	}

	now := time.Now().UTC()
	updated.UpdatedAt = now
	if err := saveWallet(ctx, tx, updated, now); err != nil {
		return Wallet{}, storageErr("save wallet", err)
	}
	if err := insertEntry(ctx, tx, Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Currency:  currency,
		Kind:      kind,
		Amount:    entryAmount,
		Meta:      meta,
		CreatedAt: now,
	}); err != nil {
		return Wallet{}, storageErr("insert entry", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Wallet{}, storageErr("commit", err)
	}
	return updated, nil
}

func (l *PostgresLedger) Credit(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}
	return l.mutate(ctx, userID, currency, true, func(w Wallet) (Wallet, decimal.Decimal, error) {
		w.Available = w.Available.Add(amount)
		return w, amount, nil
	}, kind, meta)
}

func (l *PostgresLedger) Debit(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}
	return l.mutate(ctx, userID, currency, false, func(w Wallet) (Wallet, decimal.Decimal, error) {
		if w.Available.LessThan(amount) {
			return Wallet{}, decimal.Zero, ErrInsufficientFunds
		}
		w.Available = w.Available.Sub(amount)
		return w, amount.Neg(), nil
	}, kind, meta)
}

func (l *PostgresLedger) Lock(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}
	return l.mutate(ctx, userID, currency, false, func(w Wallet) (Wallet, decimal.Decimal, error) {
		if w.Available.LessThan(amount) {
			return Wallet{}, decimal.Zero, ErrInsufficientFunds
		}
		w.Available = w.Available.Sub(amount)
		w.Locked = w.Locked.Add(amount)
		return w, amount, nil
	}, kind, meta)
}

func (l *PostgresLedger) Unlock(ctx context.Context, userID, currency string, amount, bonus decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}
	if amount.Add(bonus).IsNegative() {
		return Wallet{}, ErrInvalidAmount
	}
	return l.mutate(ctx, userID, currency, false, func(w Wallet) (Wallet, decimal.Decimal, error) {
		if w.Locked.LessThan(amount) {
			return Wallet{}, decimal.Zero, ErrInsufficientFunds
		}
		w.Locked = w.Locked.Sub(amount)
		w.Available = w.Available.Add(amount).Add(bonus)
		return w, amount.Add(bonus), nil
	}, kind, meta)
}

func (l *PostgresLedger) DebitLocked(ctx context.Context, userID, currency string, amount decimal.Decimal, kind EntryKind, meta map[string]string) (Wallet, error) {
	if err := validateOp(amount, kind); err != nil {
		return Wallet{}, err
	}
	return l.mutate(ctx, userID, currency, false, func(w Wallet) (Wallet, decimal.Decimal, error) {
		if w.Locked.LessThan(amount) {
			return Wallet{}, decimal.Zero, ErrInsufficientFunds
		}
		w.Locked = w.Locked.Sub(amount)
		return w, amount.Neg(), nil
	}, kind, meta)
}

func (l *PostgresLedger) Balance(ctx context.Context, userID, currency string) (Wallet, error) {
	var availableText, lockedText string
	var updatedAt time.Time
	err := l.db.QueryRow(ctx, `SELECT available::text, locked::text, updated_at FROM wallets
        WHERE user_id = $1 AND currency = $2`, userID, currency).Scan(&availableText, &lockedText, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, storageErr("select wallet", err)
	}
	available, err := decimal.NewFromString(availableText)
	if err != nil {
		return Wallet{}, storageErr("parse available", err)
	}
	locked, err := decimal.NewFromString(lockedText)
	if err != nil {
		return Wallet{}, storageErr("parse locked", err)
	}
	return Wallet{UserID: userID, Currency: currency, Available: available, Locked: locked, UpdatedAt: updatedAt.UTC()}, nil
}

func (l *PostgresLedger) Entries(ctx context.Context, userID, currency string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, `SELECT id, kind, amount::text, meta, created_at FROM wallet_entries
        WHERE user_id = $1 AND currency = $2 ORDER BY created_at DESC LIMIT $3`, userID, currency, limit)
	if err != nil {
		return nil, storageErr("select entries", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{UserID: userID, Currency: currency}
		var kind, amountText string
		var meta []byte
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &kind, &amountText, &meta, &createdAt); err != nil {
			return nil, storageErr("scan entry", err)
		}
		e.Kind = EntryKind(kind)
		e.CreatedAt = createdAt.UTC()
		if e.Amount, err = decimal.NewFromString(amountText); err != nil {
			return nil, storageErr("parse entry amount", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, storageErr("decode entry meta", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) All(ctx context.Context) ([]Wallet, error) {
	rows, err := l.db.Query(ctx, `SELECT user_id, currency, available::text, locked::text, updated_at
        FROM wallets ORDER BY user_id, currency`)
	if err != nil {
		return nil, storageErr("select wallets", err)
	}
	defer rows.Close()

	var out []Wallet
	for rows.Next() {
		var w Wallet
		var availableText, lockedText string
		var updatedAt time.Time
		if err := rows.Scan(&w.UserID, &w.Currency, &availableText, &lockedText, &updatedAt); err != nil {
			return nil, storageErr("scan wallet", err)
		}
		if w.Available, err = decimal.NewFromString(availableText); err != nil {
			return nil, storageErr("parse available", err)
		}
		if w.Locked, err = decimal.NewFromString(lockedText); err != nil {
			return nil, storageErr("parse locked", err)
		}
		w.UpdatedAt = updatedAt.UTC()
		out = append(out, w)
	}
	return out, rows.Err()
}
