// Package service runs one force+month through fetch, map and save
package service

import (
	"context"
	"time"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/logger"
	tim "stopsearch/internal/platform/time"
	"stopsearch/internal/services/etl/domain"
)

// SaveRetry bounds retries of the save step on transient storage errors
type SaveRetry struct {
	Attempts int           // total save attempts; <=0 -> 1
	Base     time.Duration // first backoff; <=0 -> 500ms
}

// Service is the etl unit; it is safe for concurrent use when its ports are
type Service struct {
	Source   domain.Source
	Repo     domain.Repository
	Observer domain.Observer
	Retry    SaveRetry

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the etl unit; a nil observer discards events
func New(src domain.Source, repo domain.Repository, obs domain.Observer) *Service {
	if src == nil {
		panic("etl.Service requires a non nil Source")
	}
	if repo == nil {
		panic("etl.Service requires a non nil Repository")
	}
	if obs == nil {
		obs = domain.NopObserver{}
	}
	return &Service{Source: src, Repo: repo, Observer: obs, now: time.Now, sleep: tim.SleepCtx}
}

// Run ingests force for month and returns how many rows were new.
// Bad records are dropped one by one; fetch and save failures are reported then returned
func (s *Service) Run(ctx context.Context, force, month string) (int, error) {
	ctx = logger.WithForce(ctx, force)
	log := logger.C(ctx)
	start := s.now()

	raws, err := s.Source.FetchStops(ctx, force, month)
	if err != nil {
		s.fail(ctx, force, month, err)
		return 0, err
	}

	out := domain.BatchOutcome{Force: force, Month: month, Fetched: len(raws)}
	recs := make([]domain.Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := domain.MapRecord(raw)
		if err != nil {
			out.Dropped = append(out.Dropped, domain.Drop{Index: i, Reason: err.Error()})
			log.Warn().Err(err).Str("month", month).Int("index", i).Msg("dropping unmappable record")
			continue
		}
		recs = append(recs, rec.Attribute(force, month))
	}
	out.Mapped = len(recs)

	// an empty batch still goes through the save path
	inserted, err := s.save(ctx, month, recs)
	if err != nil {
		s.fail(ctx, force, month, err)
		return 0, err
	}
	out.Inserted = inserted
	out.Deduplicated = out.Mapped - inserted
	out.Elapsed = s.now().Sub(start)

	s.Observer.OnBatchSuccess(ctx, out)
	log.Info().
		Str("month", month).
		Int("fetched", out.Fetched).
		Int("mapped", out.Mapped).
		Int("dropped", len(out.Dropped)).
		Int("inserted", out.Inserted).
		Int("deduplicated", out.Deduplicated).
		Dur("elapsed", out.Elapsed).
		Msg("batch loaded")
	return inserted, nil
}

// save retries SaveBatch on errors the store marks as transient. The batch runs in
// one transaction so a failed attempt leaves nothing behind and the fetched records are reused
func (s *Service) save(ctx context.Context, month string, recs []domain.Record) (int, error) {
	attempts := max(s.Retry.Attempts, 1)
	base := s.Retry.Base
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	for i := 0; ; i++ {
		n, err := s.Repo.SaveBatch(ctx, recs)
		if err == nil || !perr.Retryable(err) || i == attempts-1 {
			return n, err
		}
		d := tim.Backoff(base, 30*time.Second, i)
		logger.C(ctx).Warn().Err(err).Str("month", month).Int("attempt", i).Dur("retry_in", d).Msg("save failed with transient storage error, retrying")
		if se := s.sleep(ctx, d); se != nil {
			return n, err
		}
	}
}

func (s *Service) fail(ctx context.Context, force, month string, err error) {
	s.Observer.OnBatchFailure(ctx, force, month, err)
	logger.C(ctx).Error().Err(err).Str("month", month).Msg("batch failed")
}
