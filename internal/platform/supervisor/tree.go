// Package supervisor runs long lived services under a suture tree that restarts them on failure
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"stopsearch/internal/platform/config"
	"stopsearch/internal/platform/logger"
)

// Service is anything with a blocking Serve(ctx)
type Service = suture.Service

// TreeConfig holds restart and shutdown policy
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff
	FailureThreshold float64
	// FailureDecay is the rate in seconds at which failures decay
	FailureDecay float64
	// FailureBackoff is the pause once the threshold is exceeded
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long each service gets to stop
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig matches suture's built in defaults
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// FromConfig reads CORE_SUPERVISOR_* overrides on top of the defaults
func FromConfig(cfg config.Conf) TreeConfig {
	s := cfg.Prefix("CORE_SUPERVISOR_")
	d := DefaultTreeConfig()
	return TreeConfig{
		FailureThreshold: s.MayFloat64("FAILURE_THRESHOLD", d.FailureThreshold),
		FailureDecay:     s.MayFloat64("FAILURE_DECAY", d.FailureDecay),
		FailureBackoff:   s.MayDuration("FAILURE_BACKOFF", d.FailureBackoff),
		ShutdownTimeout:  s.MayDuration("SHUTDOWN_TIMEOUT", d.ShutdownTimeout),
	}
}

// Tree is a single supervisor; services are restarted independently
type Tree struct {
	root *suture.Supervisor
}

// New builds a tree that reports suture events on log
func New(name string, log logger.Logger, c TreeConfig) *Tree {
	d := DefaultTreeConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return &Tree{root: suture.New(name, suture.Spec{
		EventHook:        eventHook(log),
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	})}
}

// Add registers svc; it starts with the tree or immediately if the tree is running
func (t *Tree) Add(svc Service) suture.ServiceToken { return t.root.Add(svc) }

// Serve blocks until ctx is cancelled
func (t *Tree) Serve(ctx context.Context) error { return t.root.Serve(ctx) }

func eventHook(log logger.Logger) suture.EventHook {
	return func(e suture.Event) {
		evt := log.Warn()
		if e.Type() == suture.EventTypeResume {
			evt = log.Info()
		}
		evt.Fields(e.Map()).Str("event", e.String()).Msg("supervisor event")
	}
}
