package domain

import (
	"context"

	etl "stopsearch/internal/services/etl/domain"
)

// ServicePort is the read API service contract
type ServicePort interface {
	ByMonth(ctx context.Context, in ByMonthInput) ([]Stop, error)
	ByOutcome(ctx context.Context, outcome string, in LimitInput) ([]Stop, error)
	ByType(ctx context.Context, searchType string, in LimitInput) ([]Stop, error)
	Near(ctx context.Context, in NearInput) ([]Stop, error)
	Summary(ctx context.Context) (etl.Summary, error)
}
