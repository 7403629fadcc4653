// Package module provides the backfill module implementation
package module

import (
	"stopsearch/internal/modkit"
	"stopsearch/internal/services/backfill/domain"
	"stopsearch/internal/services/backfill/guardrails"
	"stopsearch/internal/services/backfill/service"
)

// Ports defines the backfill module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the backfill module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the backfill module over the etl unit and month lister.
// It does not mount any routes
func New(deps modkit.Deps, opts Options, forces []string, runner domain.MonthRunner, months domain.MonthLister) (*Module, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	order, _ := domain.ParseOrder(opts.Order)

	svc := service.New(runner, months, service.Config{
		Forces:        forces,
		Concurrent:    opts.Concurrent,
		Workers:       opts.Workers,
		DelayPerMonth: opts.DelayPerMonth,
		Since:         opts.Since,
		Order:         order,
		Timeouts: guardrails.Timeouts{
			Discovery: opts.DiscoveryTimeout,
			Month:     opts.MonthTimeout,
		},
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "backfill" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
