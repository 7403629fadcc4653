package domain

import "context"

// RunnerPort is what the backfill orchestrator calls for one force+month
type RunnerPort interface {
	Run(ctx context.Context, force, month string) (int, error)
}

// Source fetches raw records for one force+month
type Source interface {
	FetchStops(ctx context.Context, force, month string) ([]RawRecord, error)
}

// StorageRepo is bound to one Queryer, usually a transaction
type StorageRepo interface {
	// SaveBatch inserts each record, ignoring key conflicts, and returns rows actually inserted
	SaveBatch(ctx context.Context, rs []Record) (int, error)

	// Save inserts one record and reports whether it was new
	Save(ctx context.Context, r Record) (bool, error)

	// FindByForceAndMonth returns stored records for force fetched for month
	FindByForceAndMonth(ctx context.Context, force, month string) ([]Record, error)
}

// QueryRepo is the read side used by the read API
type QueryRepo interface {
	ListByMonth(ctx context.Context, month, force string, limit int) ([]Record, error)
	ListByOutcome(ctx context.Context, outcome string, limit int) ([]Record, error)
	ListByType(ctx context.Context, searchType string, limit int) ([]Record, error)
	ListWithin(ctx context.Context, box Box, limit int) ([]Record, error)
	Summary(ctx context.Context) (Summary, error)
}

// Repository is the transaction-owning facade the etl service saves through
type Repository interface {
	// SaveBatch inserts rs in one transaction; an empty batch still runs and returns 0
	SaveBatch(ctx context.Context, rs []Record) (int, error)

	// Save inserts one record and reports whether it was new
	Save(ctx context.Context, r Record) (bool, error)

	FindByForceAndMonth(ctx context.Context, force, month string) ([]Record, error)
}

// Observer receives one event per batch; implementations must be safe for concurrent use
type Observer interface {
	OnBatchSuccess(ctx context.Context, o BatchOutcome)
	OnBatchFailure(ctx context.Context, force, month string, err error)
}

// NopObserver discards batch events
type NopObserver struct{}

// OnBatchSuccess implements Observer
func (NopObserver) OnBatchSuccess(context.Context, BatchOutcome) {}

// OnBatchFailure implements Observer
func (NopObserver) OnBatchFailure(context.Context, string, string, error) {}
