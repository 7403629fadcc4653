// Package store provides one relational seam over the Postgres and SQLite backends
package store

import (
	"context"
	"errors"

	"stopsearch/internal/platform/logger"
)

// Store is the facade over the configured backend
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// Driver names the backend behind DB ("postgres" or "sqlite")
	Driver string

	// DB is the sql seam, nil when nothing was opened
	DB TxRunner
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Option configures a Store before the backend opens
type Option func(*Store) error

// WithLogger sets the logger the backends and query tracers write to
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// Open constructs a Store for cfg.Driver
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Logger()

	var (
		db  TxRunner
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = openPG(ctx, cfg.PG, s)
	case DriverSQLite:
		db, err = openSQLite(ctx, cfg.SQLite, s)
	case "":
		return s, nil
	default:
		return nil, errors.New("store: unknown driver " + cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	s.Driver = cfg.Driver
	s.DB = db
	return s, nil
}

// Guard verifies the backend answers a ping
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if p, ok := s.DB.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend; nil DB is ignored
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	if c, ok := s.DB.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
