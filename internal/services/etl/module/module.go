// Package module wires the etl unit from config and deps
package module

import (
	"context"

	"stopsearch/internal/adapters/policeapi"
	"stopsearch/internal/modkit"
	"stopsearch/internal/modkit/repokit"
	"stopsearch/internal/services/etl/domain"
	"stopsearch/internal/services/etl/metrics"
	"stopsearch/internal/services/etl/repo"
	"stopsearch/internal/services/etl/service"
)

// Ports defines what the etl module offers other modules
type Ports struct {
	Runner   domain.RunnerPort
	Repo     domain.Repository
	Query    domain.QueryRepo
	Months   MonthLister
	Metrics  *metrics.Collector
	Registry *metrics.Registry // nil when Prometheus is off
}

// MonthLister is the availability lookup the backfill module consumes
type MonthLister interface {
	ListAvailableMonths(ctx context.Context, force string) ([]string, error)
}

// Module implements the etl module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the etl module over deps.DB using deps.Driver
func New(deps modkit.Deps) (*Module, error) {
	return NewWithSource(deps, FromConfig(deps.Cfg), nil)
}

// NewWithSource is New with explicit options; a nil src uses the police api client
func NewWithSource(deps modkit.Deps, opts Options, src domain.Source) (*Module, error) {
	storage, err := repo.ForDriver(deps.DB, deps.Driver)
	if err != nil {
		return nil, err
	}
	qb, err := repo.Query.For(deps.Driver)
	if err != nil {
		return nil, err
	}

	client := policeapi.New(opts.API)
	if src == nil {
		src = client
	}

	mopts := []metrics.Option{metrics.WithFailureCap(opts.FailureCap), metrics.WithLogger(deps.Named("metrics"))}
	var reg *metrics.Registry
	if opts.Prometheus {
		reg = metrics.NewRegistry()
		mopts = append(mopts, metrics.WithRegistry(reg))
	}
	col := metrics.New(mopts...)
	unit := service.New(src, storage, col)
	unit.Retry = opts.SaveRetry

	m := &Module{deps: deps}
	m.ports = Ports{
		Runner:   unit,
		Repo:     storage,
		Query:    repokit.MustBind(qb, deps.DB),
		Months:   client,
		Metrics:  col,
		Registry: reg,
	}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "etl" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
