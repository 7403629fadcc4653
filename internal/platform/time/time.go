// Package time contains time related helpers shared by the pipeline
package time

import (
	"context"
	"fmt"
	"time"
)

// YearMonthLayout is the upstream month format
const YearMonthLayout = "2006-01"

// SleepCtx waits for d or until ctx is done, whichever comes first
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff returns base*2^attempt capped at max; attempt counts from 0
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		if max > 0 && d >= max {
			return max
		}
		d *= 2
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// ParseYearMonth parses YYYY-MM into the first instant of that month in UTC
func ParseYearMonth(s string) (time.Time, error) {
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return t, nil
}

// YearMonth formats t as YYYY-MM in UTC
func YearMonth(t time.Time) string { return t.UTC().Format(YearMonthLayout) }
