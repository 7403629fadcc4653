package repo

import (
	"context"

	"stopsearch/internal/modkit/repokit"
	"stopsearch/internal/services/etl/domain"
)

// Repository owns transactions around a bound StorageRepo
type Repository struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.StorageRepo]
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository wires db and binder; both are required
func NewRepository(db repokit.TxRunner, binder repokit.Binder[domain.StorageRepo]) *Repository {
	if db == nil {
		panic("etl repo: nil TxRunner")
	}
	if binder == nil {
		panic("etl repo: nil binder")
	}
	return &Repository{db: db, binder: binder}
}

// ForDriver builds a Repository with the binder matching driver
func ForDriver(db repokit.TxRunner, driver string) (*Repository, error) {
	b, err := Storage.For(driver)
	if err != nil {
		return nil, err
	}
	return NewRepository(db, b), nil
}

// SaveBatch inserts rs in one transaction and returns how many rows were new
func (r *Repository) SaveBatch(ctx context.Context, rs []domain.Record) (int, error) {
	var n int
	err := repokit.WithTx(ctx, r.db, func(q repokit.Queryer) error {
		var err error
		n, err = repokit.MustBind(r.binder, q).SaveBatch(ctx, rs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Save inserts one record in its own transaction
func (r *Repository) Save(ctx context.Context, rec domain.Record) (bool, error) {
	var ok bool
	err := repokit.WithTx(ctx, r.db, func(q repokit.Queryer) error {
		var err error
		ok, err = repokit.MustBind(r.binder, q).Save(ctx, rec)
		return err
	})
	return ok, err
}

// FindByForceAndMonth reads without a transaction
func (r *Repository) FindByForceAndMonth(ctx context.Context, force, month string) ([]domain.Record, error) {
	return repokit.MustBind(r.binder, r.db).FindByForceAndMonth(ctx, force, month)
}
