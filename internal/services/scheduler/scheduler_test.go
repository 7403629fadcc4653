package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stopsearch/internal/platform/config"
	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/testkit"
	"stopsearch/internal/services/backfill/domain"
)

type countingRunner struct {
	calls atomic.Int32
	panic bool
}

func (r *countingRunner) RunOnce(context.Context) domain.MultiForceSummary {
	n := r.calls.Add(1)
	if r.panic && n%2 == 1 {
		panic("store exploded")
	}
	return domain.MultiForceSummary{TotalRecords: 10, ForcesCompleted: 1}
}

func mustNew(t *testing.T, r Runner, at, tz string) *Scheduler {
	t.Helper()
	s, err := New(r, Options{At: at, TZ: tz})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNextRun(t *testing.T) {
	london, _ := time.LoadLocation("Europe/London")
	s := mustNew(t, &countingRunner{}, "02:00", "Europe/London")

	cases := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"later today", time.Date(2024, 3, 1, 1, 0, 0, 0, london), time.Date(2024, 3, 1, 2, 0, 0, 0, london)},
		{"exactly now rolls over", time.Date(2024, 3, 1, 2, 0, 0, 0, london), time.Date(2024, 3, 2, 2, 0, 0, 0, london)},
		{"already passed", time.Date(2024, 3, 1, 9, 0, 0, 0, london), time.Date(2024, 3, 2, 2, 0, 0, 0, london)},
		{"summer time offset", time.Date(2024, 7, 1, 0, 30, 0, 0, time.UTC), time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2024, 1, 31, 23, 0, 0, 0, london), time.Date(2024, 2, 1, 2, 0, 0, 0, london)},
	}
	for _, tc := range cases {
		if got := s.Next(tc.from); !got.Equal(tc.want) {
			t.Fatalf("%s: Next(%s) = %s want %s", tc.name, tc.from, got, tc.want)
		}
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	for _, o := range []Options{{At: "25:00", TZ: "UTC"}, {At: "2:00", TZ: "UTC"}, {At: "02:00", TZ: "Mars/Olympus"}} {
		if _, err := New(&countingRunner{}, o); !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Fatalf("%+v: err = %v", o, err)
		}
	}
	testkit.MustPanic(t, func() { _, _ = New(nil, Options{At: "02:00", TZ: "UTC"}) })
}

func TestFromConfigDefaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.At != "02:00" || o.TZ != "Europe/London" {
		t.Fatalf("defaults = %+v", o)
	}
}

// fakeClock advances on every sleep and cancels after limit sleeps
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	waits  []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	n := len(c.waits)
	c.mu.Unlock()
	if n > c.limit {
		c.cancel()
	}
	return ctx.Err()
}

func TestServeRunsDailyAndSurvivesFailures(t *testing.T) {
	r := &countingRunner{panic: true}
	s := mustNew(t, r, "02:00", "UTC")

	ctx, cancel := context.WithCancel(context.Background())
	clk := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), limit: 3, cancel: cancel}
	s.now, s.sleep = clk.Now, clk.Sleep

	err := s.Serve(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v", err)
	}
	if got := r.calls.Load(); got != 3 {
		t.Fatalf("runs = %d want 3", got)
	}
	want := []time.Duration{14 * time.Hour, 24 * time.Hour, 24 * time.Hour, 24 * time.Hour}
	if len(clk.waits) != len(want) {
		t.Fatalf("waits = %v", clk.waits)
	}
	for i := range want {
		if clk.waits[i] != want[i] {
			t.Fatalf("wait %d = %s want %s", i, clk.waits[i], want[i])
		}
	}
}

func TestServeTwiceIsNoop(t *testing.T) {
	s := mustNew(t, &countingRunner{}, "02:00", "UTC")
	entered := make(chan struct{})
	s.sleep = func(ctx context.Context, _ time.Duration) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	<-entered

	if err := s.Serve(ctx); err != nil {
		t.Fatalf("second Serve = %v", err)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("first Serve = %v", err)
	}
}

func TestRunOnceRecoversPanic(t *testing.T) {
	s := mustNew(t, &countingRunner{panic: true}, "02:00", "UTC")
	var sum domain.MultiForceSummary
	testkit.MustNotPanic(t, func() { sum = s.RunOnce(context.Background()) })
	if sum.TotalRecords != 0 {
		t.Fatalf("panicking run should report zero summary, got %+v", sum)
	}
	if sum = s.RunOnce(context.Background()); sum.TotalRecords != 10 {
		t.Fatalf("second run = %+v", sum)
	}
}
