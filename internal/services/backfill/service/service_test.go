package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/testkit"
	"stopsearch/internal/services/backfill/domain"
)

type fakeRunner struct {
	mu       sync.Mutex
	calls    []string
	fail     map[string]error
	panicOn  string
	perMonth int
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRunner) Run(_ context.Context, force, month string) (int, error) {
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.calls = append(f.calls, force+"/"+month)
	err := f.fail[month]
	f.mu.Unlock()

	if month == f.panicOn {
		panic("boom")
	}
	if err != nil {
		return 0, err
	}
	return f.perMonth, nil
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeLister struct {
	months map[string][]string
	err    error
}

func (f fakeLister) ListAvailableMonths(_ context.Context, force string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.months[force], nil
}

func newSvc(r *fakeRunner, l fakeLister, cfg Config) (*Service, *testkit.Sleeper) {
	s := New(r, l, cfg)
	sl := &testkit.Sleeper{}
	s.sleep = sl.Sleep
	s.newID = func() string { return "run-1" }
	return s, sl
}

func TestBackfillForceIsolatesMonths(t *testing.T) {
	r := &fakeRunner{perMonth: 10, fail: map[string]error{"2023-02": errors.New("upstream 500")}}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01", "2023-02", "2023-03"}}}
	s, _ := newSvc(r, l, Config{})

	res, err := s.BackfillForce(context.Background(), "kent")
	if err != nil {
		t.Fatal(err)
	}
	if res.MonthsProcessed != 2 || res.MonthsFailed != 1 || res.TotalRecords != 20 {
		t.Fatalf("result = %+v", res)
	}
	if !slices.Equal(res.FailedMonths, []string{"2023-02"}) {
		t.Fatalf("failed months = %v", res.FailedMonths)
	}
	if !slices.Equal(r.Calls(), []string{"kent/2023-01", "kent/2023-02", "kent/2023-03"}) {
		t.Fatalf("calls = %v", r.Calls())
	}
}

func TestBackfillForceDiscoveryFailure(t *testing.T) {
	boom := errors.New("dates endpoint down")
	r := &fakeRunner{}
	s, _ := newSvc(r, fakeLister{err: boom}, Config{})

	res, err := s.BackfillForce(context.Background(), "kent")
	if err != nil {
		t.Fatalf("discovery failure must not propagate: %v", err)
	}
	if !errors.Is(res.DiscoveryErr, boom) || res.MonthsProcessed != 0 || res.TotalRecords != 0 || res.Force != "kent" {
		t.Fatalf("result = %+v", res)
	}
	if len(r.Calls()) != 0 {
		t.Fatalf("runner called: %v", r.Calls())
	}
}

func TestBackfillForceRecoversMonthPanic(t *testing.T) {
	r := &fakeRunner{perMonth: 1, panicOn: "2023-01"}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01", "2023-02"}}}
	s, _ := newSvc(r, l, Config{})
	res, err := s.BackfillForce(context.Background(), "kent")
	if err != nil || res.MonthsFailed != 1 || res.MonthsProcessed != 1 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestSinceAndOrder(t *testing.T) {
	months := []string{"2023-03", "2022-11", "2023-01", "2022-12"}
	got, skipped := plan(months, "2022-12", domain.OrderAsc)
	if skipped != 1 || !slices.Equal(got, []string{"2022-12", "2023-01", "2023-03"}) {
		t.Fatalf("asc = %v skipped=%d", got, skipped)
	}
	got, _ = plan(months, "", domain.OrderDesc)
	if !slices.Equal(got, []string{"2023-03", "2023-01", "2022-12", "2022-11"}) {
		t.Fatalf("desc = %v", got)
	}
	got, _ = plan(months, "", domain.OrderUpstream)
	if !slices.Equal(got, months) {
		t.Fatalf("upstream = %v", got)
	}
	if months[0] != "2023-03" {
		t.Fatal("plan must not reorder its input")
	}
}

func TestBackfillForcePacing(t *testing.T) {
	r := &fakeRunner{}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01", "2023-02", "2023-03"}}}
	s, sl := newSvc(r, l, Config{DelayPerMonth: 2 * time.Second})
	if _, err := s.BackfillForce(context.Background(), "kent"); err != nil {
		t.Fatal(err)
	}
	if w := sl.Waits(); len(w) != 2 || w[0] != 2*time.Second {
		t.Fatalf("waits = %v", w)
	}
}

func TestBackfillForceCancelled(t *testing.T) {
	r := &fakeRunner{}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01", "2023-02"}}}
	s, _ := newSvc(r, l, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.BackfillForce(ctx, "kent")
	if !errors.Is(err, context.Canceled) || len(r.Calls()) != 0 {
		t.Fatalf("err=%v calls=%v", err, r.Calls())
	}
}

func TestBackfillForceConcurrent(t *testing.T) {
	months := []string{"2023-01", "2023-02", "2023-03", "2023-04", "2023-05", "2023-06", "2023-07", "2023-08"}
	r := &fakeRunner{perMonth: 3, fail: map[string]error{"2023-05": errors.New("x"), "2023-02": errors.New("y")}}
	l := fakeLister{months: map[string][]string{"kent": months}}
	s, _ := newSvc(r, l, Config{Workers: 3})

	res, err := s.BackfillForceConcurrent(context.Background(), "kent")
	if err != nil {
		t.Fatal(err)
	}
	if res.MonthsProcessed != 6 || res.MonthsFailed != 2 || res.TotalRecords != 18 {
		t.Fatalf("result = %+v", res)
	}
	if !slices.Equal(res.FailedMonths, []string{"2023-02", "2023-05"}) {
		t.Fatalf("failed = %v", res.FailedMonths)
	}
	if len(r.Calls()) != len(months) {
		t.Fatalf("calls = %d", len(r.Calls()))
	}
	if p := r.peak.Load(); p > 3 {
		t.Fatalf("peak concurrency %d exceeds pool", p)
	}
}

func TestStorageErrorIsNotRetriedPerMonth(t *testing.T) {
	busy := perr.Storage(sqlite3.Error{Code: sqlite3.ErrBusy}, "insert")
	r := &fakeRunner{fail: map[string]error{"2023-01": busy}}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01"}}}
	s, sl := newSvc(r, l, Config{})

	res, _ := s.BackfillForce(context.Background(), "kent")
	if res.MonthsFailed != 1 || len(r.Calls()) != 1 || len(sl.Waits()) != 0 {
		t.Fatalf("res=%+v calls=%v waits=%v", res, r.Calls(), sl.Waits())
	}
}

func TestConcurrentPacingSkipsLastMonth(t *testing.T) {
	r := &fakeRunner{perMonth: 1}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01", "2023-02", "2023-03"}}}
	s, sl := newSvc(r, l, Config{Concurrent: true, Workers: 1, Order: domain.OrderAsc, DelayPerMonth: time.Second})

	res, err := s.BackfillForceConcurrent(context.Background(), "kent")
	if err != nil || res.MonthsProcessed != 3 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if w := sl.Waits(); !slices.Equal(w, []time.Duration{time.Second, time.Second}) {
		t.Fatalf("waits = %v", w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r2 := &fakeRunner{}
	s2, sl2 := newSvc(r2, l, Config{Concurrent: true, Workers: 1, DelayPerMonth: time.Second})
	_, _ = s2.BackfillForceConcurrent(ctx, "kent")
	if len(sl2.Waits()) != 0 {
		t.Fatalf("cancelled run should not pace: %v", sl2.Waits())
	}
}

type scripted map[string]func() (domain.Result, error)

func (s scripted) BackfillForce(_ context.Context, force string) (domain.Result, error) {
	return s[force]()
}

func TestRunBackfillIsolatesForces(t *testing.T) {
	var order []string
	step := func(name string, r domain.Result, err error) func() (domain.Result, error) {
		return func() (domain.Result, error) { order = append(order, name); return r, err }
	}
	bf := scripted{
		"kent":  step("kent", domain.Result{Force: "kent", TotalRecords: 5, MonthsProcessed: 2}, nil),
		"essex": step("essex", domain.Result{Force: "essex", TotalRecords: 1, MonthsProcessed: 1, MonthsFailed: 1}, errors.New("cancelled midway")),
		"boom":  func() (domain.Result, error) { order = append(order, "boom"); panic("kaboom") },
	}
	s, _ := newSvc(&fakeRunner{}, fakeLister{}, Config{})
	s.Backfiller = bf

	sum := s.RunBackfill(context.Background(), []string{"kent", "essex", "boom", "kent"})
	if !slices.Equal(order, []string{"kent", "essex", "boom", "kent"}) {
		t.Fatalf("order = %v", order)
	}
	if sum.ForcesCompleted != 2 || sum.ForcesFailed != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if !slices.Equal(sum.FailedForces, []string{"essex", "boom"}) {
		t.Fatalf("failed forces = %v", sum.FailedForces)
	}
	if sum.TotalRecords != 11 || sum.TotalMonthsProcessed != 5 || sum.TotalMonthsFailed != 1 {
		t.Fatalf("totals = %+v", sum)
	}
}

func TestRunBackfillEmpty(t *testing.T) {
	r := &fakeRunner{}
	s, _ := newSvc(r, fakeLister{months: map[string][]string{}}, Config{})
	sum := s.RunBackfill(context.Background(), nil)
	if sum.ForcesCompleted != 0 || sum.TotalRecords != 0 || len(sum.Results) != 0 || len(r.Calls()) != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunOnceUsesConfiguredForcesAndMode(t *testing.T) {
	r := &fakeRunner{perMonth: 2}
	l := fakeLister{months: map[string][]string{"kent": {"2023-01", "2023-02"}, "essex": {"2023-01"}}}
	s, _ := newSvc(r, l, Config{Forces: []string{"kent", "essex"}, Concurrent: true, Workers: 2})

	sum := s.RunOnce(context.Background())
	if sum.ForcesCompleted != 2 || sum.TotalRecords != 6 || sum.TotalMonthsProcessed != 3 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestNewRequiresPorts(t *testing.T) {
	testkit.MustPanic(t, func() { New(nil, fakeLister{}, Config{}) })
	testkit.MustPanic(t, func() { New(&fakeRunner{}, nil, Config{}) })
}
