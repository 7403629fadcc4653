// Package modkit provides module wiring and core deps
package modkit

import (
	"stopsearch/internal/modkit/repokit"
	"stopsearch/internal/platform/config"
	"stopsearch/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log    logger.Logger
	Cfg    config.Conf
	DB     repokit.TxRunner
	Driver string
}

// Named returns a copy of Log tagged with component
func (d Deps) Named(component string) logger.Logger {
	return d.Log.With().Str("component", component).Logger()
}
