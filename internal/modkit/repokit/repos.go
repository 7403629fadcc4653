// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"
	"fmt"

	"stopsearch/internal/platform/store"
)

// Queryer is the minimal read and write surface for SQL repos
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction
type TxRunner = store.TxRunner

type (
	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result from a query
	Row = store.Row

	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)

// WithTx runs fn inside a transaction using the provided TxRunner
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}

// Binder builds a repo T over q, which is either the pool or an open tx
type Binder[T any] interface {
	Bind(q Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind implements Binder
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds b over q and panics on a nil q
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic(fmt.Sprintf("repokit: binding %T to a nil queryer", b))
	}
	return b.Bind(q)
}

// Dialect pairs the per-driver binders of one repo
type Dialect[T any] struct {
	Postgres Binder[T]
	SQLite   Binder[T]
}

// For returns the binder matching driver
func (d Dialect[T]) For(driver string) (Binder[T], error) {
	var b Binder[T]
	switch driver {
	case store.DriverPostgres:
		b = d.Postgres
	case store.DriverSQLite:
		b = d.SQLite
	}
	if b == nil {
		return nil, fmt.Errorf("repokit: no binder for driver %q", driver)
	}
	return b, nil
}
