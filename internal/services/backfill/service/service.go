// Package service drives per-month etl runs across forces
package service

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/logger"
	tim "stopsearch/internal/platform/time"
	"stopsearch/internal/services/backfill/domain"
	"stopsearch/internal/services/backfill/guardrails"
)

// Config holds configuration options for the backfill service
type Config struct {
	Forces []string // used by RunOnce

	// Concurrency & pacing
	Concurrent    bool
	Workers       int           // pool size for the concurrent variant; <=0 -> 4
	DelayPerMonth time.Duration // optional sleep after each month (per worker)

	// Month selection
	Since string       // YYYY-MM inclusive lower bound; empty keeps everything
	Order domain.Order // dispatch order; empty -> upstream

	Timeouts guardrails.Timeouts
}

// Service implements domain.RunnerPort
type Service struct {
	Runner domain.MonthRunner
	Months domain.MonthLister
	Cfg    Config

	// Backfiller overrides the per-force step used by RunBackfill; nil uses the service itself
	Backfiller domain.ForceBackfiller

	sleep func(context.Context, time.Duration) error
	newID func() string
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the backfill service
func New(runner domain.MonthRunner, months domain.MonthLister, cfg Config) *Service {
	if runner == nil {
		panic("backfill.Service requires a non nil MonthRunner")
	}
	if months == nil {
		panic("backfill.Service requires a non nil MonthLister")
	}
	return &Service{
		Runner: runner,
		Months: months,
		Cfg:    cfg,
		sleep:  tim.SleepCtx,
		newID:  func() string { return uuid.NewString() },
	}
}

// RunOnce backfills every configured force under a fresh run id
func (s *Service) RunOnce(ctx context.Context) domain.MultiForceSummary {
	ctx = logger.WithRun(ctx, s.newID())
	logger.C(ctx).Info().Strs("forces", s.Cfg.Forces).Msg("run once starting")
	return s.RunBackfill(ctx, s.Cfg.Forces)
}

// RunBackfill backfills forces in order; one force failing or panicking never stops the rest
func (s *Service) RunBackfill(ctx context.Context, forces []string) domain.MultiForceSummary {
	var sum domain.MultiForceSummary
	if len(forces) == 0 {
		return sum
	}
	bf := s.Backfiller
	if bf == nil {
		bf = forceFunc(s.backfill)
	}

	for _, force := range forces {
		if ctx.Err() != nil {
			logger.C(ctx).Warn().Err(ctx.Err()).Str("next_force", force).Msg("backfill cancelled")
			break
		}
		r, err := safeBackfill(ctx, bf, force)
		if r.Force == "" {
			r.Force = force
		}
		if err != nil {
			logger.C(ctx).Error().Err(err).Str("force", force).Msg("force backfill failed")
		}
		sum.Add(r, err != nil)
	}

	logger.C(ctx).Info().
		Int("total_records", sum.TotalRecords).
		Int("months_processed", sum.TotalMonthsProcessed).
		Int("months_failed", sum.TotalMonthsFailed).
		Int("forces_completed", sum.ForcesCompleted).
		Int("forces_failed", sum.ForcesFailed).
		Strs("failed_forces", sum.FailedForces).
		Msg("backfill summary")
	return sum
}

type forceFunc func(context.Context, string) (domain.Result, error)

func (f forceFunc) BackfillForce(ctx context.Context, force string) (domain.Result, error) {
	return f(ctx, force)
}

func safeBackfill(ctx context.Context, bf domain.ForceBackfiller, force string) (r domain.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = perr.PanicErrf("backfill %s panicked: %v", force, rec)
		}
	}()
	return bf.BackfillForce(ctx, force)
}

func (s *Service) backfill(ctx context.Context, force string) (domain.Result, error) {
	if s.Cfg.Concurrent {
		return s.BackfillForceConcurrent(ctx, force)
	}
	return s.BackfillForce(ctx, force)
}

// BackfillForce processes every available month of force one at a time.
// A discovery failure yields a zero Result with DiscoveryErr set and no error
func (s *Service) BackfillForce(ctx context.Context, force string) (domain.Result, error) {
	ctx = logger.WithForce(ctx, force)
	months, res, ok := s.discover(ctx, force)
	if !ok {
		return res, nil
	}

	for i, m := range months {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := s.runMonth(ctx, force, m)
		record(&res, m, n, err)
		if s.Cfg.DelayPerMonth > 0 && i < len(months)-1 {
			if err := s.sleep(ctx, s.Cfg.DelayPerMonth); err != nil {
				return res, err
			}
		}
	}
	s.logResult(ctx, res)
	return res, nil
}

type monthResult struct {
	month string
	n     int
	err   error
}

// BackfillForceConcurrent is BackfillForce over a bounded pool.
// Results are folded by a single consumer so totals need no locking
func (s *Service) BackfillForceConcurrent(ctx context.Context, force string) (domain.Result, error) {
	ctx = logger.WithForce(ctx, force)
	months, res, ok := s.discover(ctx, force)
	if !ok {
		return res, nil
	}

	workers := s.Cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make(chan monthResult, len(months))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for mr := range results {
			record(&res, mr.month, mr.n, mr.err)
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	last := len(months) - 1
	for i, m := range months {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := s.runMonth(ctx, force, m)
			results <- monthResult{month: m, n: n, err: err}
			if s.Cfg.DelayPerMonth > 0 && i < last && ctx.Err() == nil {
				return s.sleep(ctx, s.Cfg.DelayPerMonth)
			}
			return nil
		})
	}
	// only pacing returns errors, and only once ctx is done
	if err := g.Wait(); err != nil {
		logger.C(ctx).Debug().Err(err).Msg("pacing interrupted")
	}
	close(results)
	<-done

	slices.Sort(res.FailedMonths)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	s.logResult(ctx, res)
	return res, nil
}

// discover lists, filters and orders months; ok=false means discovery failed
func (s *Service) discover(ctx context.Context, force string) ([]string, domain.Result, bool) {
	res := domain.Result{Force: force}

	dctx, cancel := guardrails.ForDiscovery(ctx, s.Cfg.Timeouts)
	months, err := s.Months.ListAvailableMonths(dctx, force)
	cancel()
	if err != nil {
		res.DiscoveryErr = err
		logger.C(ctx).Warn().Err(err).Msg("month discovery failed, nothing to backfill")
		return nil, res, false
	}

	planned, skipped := plan(months, s.Cfg.Since, s.Cfg.Order)
	res.MonthsSkipped = skipped
	logger.C(ctx).Info().Int("available", len(months)).Int("planned", len(planned)).Int("skipped", skipped).Msg("months discovered")
	return planned, res, true
}

// plan applies the Since filter then the requested order
func plan(months []string, since string, order domain.Order) ([]string, int) {
	out := make([]string, 0, len(months))
	for _, m := range months {
		if since != "" && m < since {
			continue
		}
		out = append(out, m)
	}
	switch order {
	case domain.OrderAsc:
		slices.Sort(out)
	case domain.OrderDesc:
		slices.Sort(out)
		slices.Reverse(out)
	}
	return out, len(months) - len(out)
}

func record(res *domain.Result, month string, n int, err error) {
	if err != nil {
		res.MonthsFailed++
		res.FailedMonths = append(res.FailedMonths, month)
		return
	}
	res.MonthsProcessed++
	res.TotalRecords += n
}

// runMonth runs one month under its time budget; storage retries live in the etl unit
func (s *Service) runMonth(ctx context.Context, force, month string) (int, error) {
	n, err := s.runMonthOnce(ctx, force, month)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("month", month).Msg("month failed")
	}
	return n, err
}

func (s *Service) runMonthOnce(ctx context.Context, force, month string) (n int, err error) {
	mctx, cancel := guardrails.ForMonth(ctx, s.Cfg.Timeouts)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = perr.PanicErrf("month %s/%s panicked: %v", force, month, rec)
		}
	}()
	return s.Runner.Run(mctx, force, month)
}

func (s *Service) logResult(ctx context.Context, res domain.Result) {
	logger.C(ctx).Info().
		Int("total_records", res.TotalRecords).
		Int("months_processed", res.MonthsProcessed).
		Int("months_failed", res.MonthsFailed).
		Strs("failed_months", res.FailedMonths).
		Msg("force backfill complete")
}
