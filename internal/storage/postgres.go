package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records in two key/value tables. Each game call runs
// in one database transaction, so the all-or-nothing behaviour of a failed
// call falls out of the database's own rollback.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing tables. Called once from main on startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entity_records (
			key   TEXT PRIMARY KEY,
			value BYTEA NOT NULL
		);
		CREATE TABLE IF NOT EXISTS entity_lists (
			key   TEXT NOT NULL,
			pos   BIGSERIAL,
			value BYTEA NOT NULL,
			PRIMARY KEY (key, pos)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create storage schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin storage tx: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRow(ctx, `SELECT value FROM entity_records WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return value, true, nil
}

func (t *postgresTx) Put(ctx context.Context, key string, value []byte) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO entity_records (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

func (t *postgresTx) Delete(ctx context.Context, key string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM entity_records WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

func (t *postgresTx) Append(ctx context.Context, key string, value []byte) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO entity_lists (key, value) VALUES ($1, $2)`, key, value)
	if err != nil {
		return fmt.Errorf("failed to append to list %s: %w", key, err)
	}
	return nil
}

func (t *postgresTx) List(ctx context.Context, key string) ([][]byte, error) {
	rows, err := t.tx.Query(ctx, `SELECT value FROM entity_lists WHERE key = $1 ORDER BY pos ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *postgresTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *postgresTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
