package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"city-coords/internal/cityindex"
	"city-coords/internal/config"
	"city-coords/internal/daily"
	"city-coords/internal/pkg/db"
	"city-coords/internal/repository"
	"city-coords/internal/service"
)

// app holds the wired dependencies of one command run.
type app struct {
	cfg     *config.Config
	index   *cityindex.Index
	records daily.RecordStore
	play    *service.PlayService
	closers []func()
}

// migrator is a record store with a schema.
type migrator interface {
	Migrate(ctx context.Context) error
}

// openApp builds the city index, opens the configured record store and
// migrates it.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	index, err := cityindex.NewEmbedded(
		cityindex.WithLimit(cfg.Search.Limit),
		cityindex.WithThreshold(cfg.Search.Threshold),
		cityindex.WithCache(cfg.Search.CacheTTL, cfg.Search.CacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build city index: %w", err)
	}
	a.index = index
	a.closers = append(a.closers, index.Close)

	records, err := a.openRecords(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.records = records

	if m, ok := records.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a.play, err = service.NewPlayService(index, records, cfg.Game, cfg.Daily)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Debug().
		Str("driver", cfg.Storage.Driver).
		Int("cities", index.Len()).
		Msg("Application ready")
	return a, nil
}

func (a *app) openRecords(ctx context.Context) (daily.RecordStore, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage; daily progress is lost on exit")
		return daily.NewMemoryStore(), nil

	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, &a.cfg.SQLite)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		return repository.NewSQLiteRecordRepository(sqlDB), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		return repository.NewPostgresRecordRepository(pool.Pool), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, a.cfg.Storage.Driver)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
