package store

import (
	"context"
	"fmt"
	"time"

	"stopsearch/internal/platform/store/pg"
	"stopsearch/internal/platform/store/sqlite"
)

var sleep = time.Sleep // seam

// openPG opens pg, pings it with backoff and wraps it with our adapter
func openPG(ctx context.Context, cfg PGConfig, s *Store) (TxRunner, error) {
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		SlowMs:   cfg.SlowQueryMs,
	}, nil)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p, tracerFor(cfg.LogSQL, s, "pg"), cfg.SlowQueryMs), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		sleep(backoff)
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

// openSQLite opens the database file with WAL pragmas and a single writer connection
func openSQLite(ctx context.Context, cfg SQLiteConfig, s *Store) (TxRunner, error) {
	db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Path, BusyTimeout: cfg.BusyTimeout})
	if err != nil {
		return nil, err
	}
	return newSQLiteAdapter(db, tracerFor(cfg.LogSQL, s, "sqlite"), cfg.SlowQueryMs), nil
}

func tracerFor(enabled bool, s *Store, component string) QueryTracer {
	if !enabled {
		return nil
	}
	return Tracer(s.Log, component)
}
