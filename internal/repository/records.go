// Package repository provides the database backed record stores.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"city-coords/internal/daily"
)

// PostgresRecordRepository keeps daily records in PostgreSQL.
// Values are stored as JSONB, so only valid JSON can be written.
type PostgresRecordRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRecordRepository creates a new PostgresRecordRepository instance.
func NewPostgresRecordRepository(pool *pgxpool.Pool) *PostgresRecordRepository {
	return &PostgresRecordRepository{pool: pool}
}

// Migrate creates the records table.
func (r *PostgresRecordRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_records (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_daily_records_updated ON daily_records(updated_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_records table: %w", err)
	}
	log.Info().Msg("Migration 1: daily_records table created")
	return nil
}

// Get returns the value stored under key.
// Returns daily.ErrRecordNotFound if the key does not exist.
func (r *PostgresRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `
		SELECT value
		FROM daily_records
		WHERE key = $1
	`

	var value []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, daily.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return value, nil
}

// Put inserts or replaces the value stored under key.
func (r *PostgresRecordRepository) Put(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO daily_records (key, value, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *PostgresRecordRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM daily_records WHERE key = $1`

	if _, err := r.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
