// Package scheduler runs the multi-force backfill once a day at a wall clock time
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"stopsearch/internal/platform/config"
	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/logger"
	tim "stopsearch/internal/platform/time"
	"stopsearch/internal/platform/validate"
	"stopsearch/internal/services/backfill/domain"
)

// Runner is the daily job
type Runner interface {
	RunOnce(ctx context.Context) domain.MultiForceSummary
}

// Options holds the daily trigger
type Options struct {
	At string `env:"AT" validate:"required,hhmm"`
	TZ string `env:"TZ" validate:"required,tz"`
}

// FromConfig reads CORE_SCHEDULE_AT (default 02:00) and CORE_SCHEDULE_TZ (default Europe/London)
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("CORE_SCHEDULE_")
	return Options{
		At: s.MayString("AT", "02:00"),
		TZ: s.MayString("TZ", "Europe/London"),
	}
}

// Scheduler triggers Runner daily; it satisfies suture.Service
type Scheduler struct {
	runner Runner
	hour   int
	minute int
	loc    *time.Location

	running atomic.Bool
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// New validates opts and builds a Scheduler
func New(runner Runner, opts Options) (*Scheduler, error) {
	if runner == nil {
		panic("scheduler requires a non nil Runner")
	}
	if err := validate.Struct(opts, perr.ErrorCodeConfig); err != nil {
		return nil, perr.WithOp(err, "scheduler.options")
	}
	loc, err := time.LoadLocation(opts.TZ)
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeConfig, "unknown time zone"), "TZ")
	}
	at, _ := time.Parse("15:04", opts.At)
	return &Scheduler{
		runner: runner,
		hour:   at.Hour(),
		minute: at.Minute(),
		loc:    loc,
		now:    time.Now,
		sleep:  tim.SleepCtx,
	}, nil
}

// Next returns the first trigger strictly after from.
// A wall time skipped by a DST change fires at the normalized instant
func (s *Scheduler) Next(from time.Time) time.Time {
	local := from.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// RunOnce runs the job now; a panicking run is logged and reported as a zero summary
func (s *Scheduler) RunOnce(ctx context.Context) (sum domain.MultiForceSummary) {
	log := logger.C(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Err(perr.PanicErrf("scheduled run panicked: %v", rec)).Msg("scheduled run failed")
			sum = domain.MultiForceSummary{}
		}
	}()
	sum = s.runner.RunOnce(ctx)
	evt := log.Info()
	if sum.Partial() {
		evt = log.Warn()
	}
	evt.Int("total_records", sum.TotalRecords).
		Int("forces_completed", sum.ForcesCompleted).
		Int("forces_failed", sum.ForcesFailed).
		Msg("scheduled run complete")
	return sum
}

// Serve sleeps until each trigger and runs the job until ctx is done.
// A second concurrent Serve logs and returns nil without scheduling anything
func (s *Scheduler) Serve(ctx context.Context) error {
	log := logger.Named("scheduler")
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("scheduler already running")
		return nil
	}
	defer s.running.Store(false)

	log.Info().Int("hour", s.hour).Int("minute", s.minute).Str("tz", s.loc.String()).Msg("scheduler started")
	for {
		now := s.now()
		next := s.Next(now)
		log.Info().Time("next_run", next).Msg("waiting for next run")
		if err := s.sleep(ctx, next.Sub(now)); err != nil {
			log.Info().Msg("scheduler stopped")
			return ctx.Err()
		}
		s.RunOnce(ctx)
	}
}

// String names the service in supervisor events
func (s *Scheduler) String() string { return "scheduler" }
