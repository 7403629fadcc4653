// Package api assembles the read-only HTTP API
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stopsearch/internal/modkit/httpkit"
	"stopsearch/internal/modkit/module"
	"stopsearch/internal/platform/config"
	phttp "stopsearch/internal/platform/net/http"
	"stopsearch/internal/platform/net/middleware"
)

// Options are the API options
type Options struct {
	Server         phttp.ServerOptions
	CORSOrigins    []string
	RequestTimeout time.Duration

	// Metrics is served at /metrics when non nil
	Metrics http.Handler
}

// FromConfig reads CORE_API_* settings
func FromConfig(cfg config.Conf) Options {
	a := cfg.Prefix("CORE_API_")
	return Options{
		Server:         phttp.ServerOptionsFromConfig(cfg),
		CORSOrigins:    a.MayCSV("CORS_ORIGINS", []string{"*"}),
		RequestTimeout: a.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// Mount mounts every routed module under /v1 with the common middleware stack
func Mount(r phttp.Router, opt Options, mods ...module.Module) {
	r.Use(middleware.Defaults(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins}, opt.RequestTimeout)...)
	if opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics)
	}
	httpkit.MountVersion(r, "v1", nil, func(v1 httpkit.Router) {
		module.MountAll(v1, mods...)
	})
}

// NewServer builds the read API server; Serve it directly or under a supervisor
func NewServer(opt Options, mods ...module.Module) *phttp.Server {
	return phttp.NewServer(opt.Server, func(m *chi.Mux) {
		Mount(phttp.AdaptChi(m), opt, mods...)
	})
}
