package main

import (
	"context"

	"stopsearch/internal/modkit"
	"stopsearch/internal/modkit/module"
	"stopsearch/internal/platform/config"
	"stopsearch/internal/platform/logger"
	"stopsearch/internal/platform/store"
	backfillmod "stopsearch/internal/services/backfill/module"
	etlmod "stopsearch/internal/services/etl/module"
	"stopsearch/internal/services/etl/repo"
)

// env is the opened process state every subcommand shares
type env struct {
	cfg  config.Conf
	app  config.App
	log  logger.Logger
	st   *store.Store
	deps modkit.Deps
	etl  etlmod.Ports
}

// openEnv validates config, opens and migrates the store, then wires the etl module
func openEnv(ctx context.Context) (*env, error) {
	cfg := config.New()
	app, err := config.LoadApp(cfg)
	if err != nil {
		return nil, failure("invalid configuration", err)
	}
	log := *logger.Get()

	st, err := store.Open(ctx, storeConfig(app), store.WithLogger(log))
	if err != nil {
		return nil, failure("open store", err)
	}
	if err := repo.Migrate(ctx, st.DB, st.Driver); err != nil {
		_ = st.Close(ctx)
		return nil, failure("migrate", err)
	}

	deps := modkit.Deps{Log: log, Cfg: cfg, DB: st.DB, Driver: st.Driver}
	em, err := etlmod.New(deps)
	if err != nil {
		_ = st.Close(ctx)
		return nil, failure("wire etl", err)
	}
	return &env{
		cfg:  cfg,
		app:  app,
		log:  log,
		st:   st,
		deps: deps,
		etl:  module.MustPortsOf[etlmod.Ports](em),
	}, nil
}

func storeConfig(app config.App) store.Config {
	return store.Config{
		Driver: app.StoreDriver,
		SQLite: store.SQLiteConfig{Path: app.SQLitePath},
		PG: store.PGConfig{
			URL:         app.PGURL,
			MaxConns:    int32(app.PGMaxConns),
			SlowQueryMs: app.PGSlowMs,
			LogSQL:      app.PGLogSQL,
		},
	}
}

// backfill builds the orchestrator; forces falls back to STOPSEARCH_FORCES
func (e *env) backfill(opts backfillmod.Options, forces []string) (backfillmod.Ports, error) {
	if len(forces) == 0 {
		forces = e.app.Forces
	}
	m, err := backfillmod.New(e.deps, opts, forces, e.etl.Runner, e.etl.Months)
	if err != nil {
		return backfillmod.Ports{}, failure("invalid backfill options", err)
	}
	return module.MustPortsOf[backfillmod.Ports](m), nil
}

func (e *env) close(ctx context.Context) {
	e.etl.Metrics.LogSummary()
	if err := e.st.Close(ctx); err != nil {
		e.log.Error().Err(err).Msg("failed to close store")
	}
}
