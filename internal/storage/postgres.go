package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV keeps slots in the ledger_slots table of a PostgreSQL database.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV migrates the schema and opens a connection pool.
func NewPostgresKV(ctx context.Context, databaseURL string) (*PostgresKV, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresKV{pool: pool}, nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM ledger_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

const postgresUpsert = `
	INSERT INTO ledger_slots (key, value, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, postgresUpsert, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// SetBatch writes every entry in one transaction.
func (p *PostgresKV) SetBatch(ctx context.Context, entries []Entry) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, postgresUpsert, e.Key, e.Value); err != nil {
				return fmt.Errorf("upsert %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

func (p *PostgresKV) Close() error {
	p.pool.Close()
	return nil
}
