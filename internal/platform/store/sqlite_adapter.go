package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// sqliteAdapter wraps database/sql over mattn/go-sqlite3 and implements TxRunner
type sqliteAdapter struct {
	db *sql.DB
	emitter
}

func newSQLiteAdapter(db *sql.DB, tracer QueryTracer, slowMs int) *sqliteAdapter {
	return &sqliteAdapter{db: db, emitter: emitter{tracer: tracer, slowUS: int64(slowMs) * 1000}}
}

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.db.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error { return a.db.Close() }

func (a *sqliteAdapter) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	return execSQL(ctx, a.db, a.emitter, query, args)
}

func (a *sqliteAdapter) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return querySQL(ctx, a.db, a.emitter, query, args)
}

func (a *sqliteAdapter) QueryRow(ctx context.Context, query string, args ...any) Row {
	return queryRowSQL(ctx, a.db, a.emitter, query, args)
}

func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqliteTx{tx: tx, emitter: a.emitter}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type sqliteTx struct {
	tx *sql.Tx
	emitter
}

func (t sqliteTx) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	return execSQL(ctx, t.tx, t.emitter, query, args)
}

func (t sqliteTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return querySQL(ctx, t.tx, t.emitter, query, args)
}

func (t sqliteTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return queryRowSQL(ctx, t.tx, t.emitter, query, args)
}

// sqlConn is the shared surface of *sql.DB and *sql.Tx
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execSQL(ctx context.Context, c sqlConn, e emitter, query string, args []any) (CommandTag, error) {
	start := time.Now()
	res, err := c.ExecContext(ctx, query, args...)
	e.emit(ctx, query, args, start, err)
	if err != nil {
		return resultTag{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return resultTag{}, err
	}
	return resultTag{n: n}, nil
}

func querySQL(ctx context.Context, c sqlConn, e emitter, query string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := c.QueryContext(ctx, query, args...)
	e.emit(ctx, query, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

func queryRowSQL(ctx context.Context, c sqlConn, e emitter, query string, args []any) Row {
	start := time.Now()
	r := c.QueryRowContext(ctx, query, args...)
	return sqlRow{r: r, after: func(scanErr error) { e.emit(ctx, query, args, start, scanErr) }}
}

type resultTag struct{ n int64 }

func (t resultTag) RowsAffected() int64 { return t.n }

type sqlRow struct {
	r     *sql.Row
	after func(error)
}

func (x sqlRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	x.after(err)
	return err
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
