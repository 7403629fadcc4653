// Package guardrails holds time budget helpers for backfill work
package guardrails

import (
	"context"
	"time"
)

// Timeouts bounds backfill phases; zero means no extra limit
type Timeouts struct {
	// Discovery caps the month listing call for one force
	Discovery time.Duration

	// Month caps fetch, map and save of one force+month
	Month time.Duration
}

// ForDiscovery returns a child context bounded by Discovery
func ForDiscovery(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Discovery)
}

// ForMonth returns a child context bounded by Month
func ForMonth(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Month)
}

// Remaining returns the time until ctx's deadline, zero when none is set or it has passed
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout never extends a parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
