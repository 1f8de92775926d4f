package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"city-coords/internal/config"
)

// OpenSQLite opens the SQLite database at cfg.Path in WAL mode.
// Pragmas go in the DSN so that every pooled connection gets them.
func OpenSQLite(ctx context.Context, cfg *config.SQLiteConfig) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	if cfg.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	}
	dsn := "file:" + cfg.Path + "?" + params.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("path", cfg.Path).Msg("Opened SQLite database")
	return db, nil
}
