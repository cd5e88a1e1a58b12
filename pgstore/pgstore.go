// Package pgstore implements papertrade.Store and papertrade.Journal on
// PostgreSQL through a pgx connection pool.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/papertrade"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledgers (
    user_id    TEXT PRIMARY KEY,
    revision   BIGINT NOT NULL,
    body       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS trades (
    id          UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    executed_at TIMESTAMPTZ NOT NULL,
    body        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS trades_user_time ON trades (user_id, executed_at);
`

// Store is a PostgreSQL backed ledger store and trade journal.
type Store struct {
	db       *pgxpool.Pool
	currency string
}

// New wraps an existing pool.
func New(db *pgxpool.Pool, currency string) *Store {
	if currency == "" {
		currency = papertrade.DefaultCurrency
	}
	return &Store{db: db, currency: currency}
}

// Open connects to dsn and creates the tables if needed.
func Open(ctx context.Context, dsn, currency string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	s := New(pool, currency)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() { s.db.Close() }

// Migrate creates the ledgers and trades tables.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, user string) (papertrade.Ledger, error) {
	if err := papertrade.ValidateUser(user); err != nil {
		return papertrade.Ledger{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		revision int64
		body     []byte
	)
	err := s.db.QueryRow(ctx, `SELECT revision, body FROM ledgers WHERE user_id = $1`, user).Scan(&revision, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return papertrade.NewLedger(s.currency), nil
	}
	if err != nil {
		return papertrade.Ledger{}, err
	}
	var l papertrade.Ledger
	if err := json.Unmarshal(body, &l); err != nil {
		return papertrade.Ledger{}, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}
	// The column is authoritative, the body only mirrors it.
	return l.WithRevision(uint64(revision)), nil
}

func (s *Store) Save(ctx context.Context, user string, l papertrade.Ledger) error {
	if err := papertrade.ValidateUser(user); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	next := l.Revision() + 1
	body, err := json.Marshal(l.WithRevision(next))
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	var query string
	args := []any{user, int64(next), string(body)}
	if l.Revision() == 0 {
		query = `
        INSERT INTO ledgers (user_id, revision, body, updated_at)
        VALUES ($1, $2, $3::jsonb, now())
        ON CONFLICT (user_id) DO NOTHING`
	} else {
		query = `
        UPDATE ledgers SET revision = $2, body = $3::jsonb, updated_at = now()
        WHERE user_id = $1 AND revision = $4`
		args = append(args, int64(l.Revision()))
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("revision %d is stale: %w", l.Revision(), papertrade.ErrConflict)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, user string, t papertrade.Trade) error {
	if err := papertrade.ValidateUser(user); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO trades (id, user_id, executed_at, body)
        VALUES ($1, $2, $3, $4::jsonb)`,
		t.ID.String(), user, t.Time, string(body))
	return err
}

func (s *Store) Trades(ctx context.Context, user string) ([]papertrade.Trade, error) {
	if err := papertrade.ValidateUser(user); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `
        SELECT body FROM trades
        WHERE user_id = $1
        ORDER BY executed_at, id`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []papertrade.Trade
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var t papertrade.Trade
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
