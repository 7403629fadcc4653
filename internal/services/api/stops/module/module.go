// Package module wires the read API into the versioned router using modkit
package module

import (
	"stopsearch/internal/modkit"
	"stopsearch/internal/modkit/httpkit"
	str "stopsearch/internal/platform/strings"
	"stopsearch/internal/services/api/stops/domain"
	stopshttp "stopsearch/internal/services/api/stops/http"
	stopssvc "stopsearch/internal/services/api/stops/service"
	etl "stopsearch/internal/services/etl/domain"
)

// Ports defines what the read module offers other modules
type Ports struct {
	Service domain.ServicePort
}

// Module implements the read API module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// New constructs the read module over the etl query repo
func New(deps modkit.Deps, query etl.QueryRepo) *Module {
	return &Module{
		deps:  deps,
		name:  "stops",
		ports: Ports{Service: stopssvc.New(query)},
	}
}

// MountRoutes mounts /stops and /stats on the versioned router
func (m *Module) MountRoutes(r httpkit.Router) {
	stopshttp.Register(r, m.ports.Service)
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
