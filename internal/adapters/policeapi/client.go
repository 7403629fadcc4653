// Package policeapi is a resilient client for the data.police.uk stop and search endpoints
package policeapi

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/logger"
	tim "stopsearch/internal/platform/time"
	"stopsearch/internal/platform/validate"
)

// maxBody bounds one response; a busy force month is a few MB
const maxBody = 64 << 20

// Client fetches raw stop and search records.
// It is safe for concurrent use
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	log     logger.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// New creates a Client; zero option fields take defaults
func New(o Options) *Client {
	o = o.withDefaults()
	lim := rate.NewLimiter(rate.Inf, 0)
	if o.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(o.RPS), o.Burst)
	}
	c := &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		limiter: lim,
		log:     *logger.Named("policeapi"),
		now:     time.Now,
		sleep:   tim.SleepCtx,
	}
	threshold := uint32(o.BreakerThreshold)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "policeapi",
		MaxRequests: 1,
		Timeout:     o.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return countsAsSuccess(err) || stderrs.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

// FetchStops returns every record upstream holds for force in yearMonth (YYYY-MM).
// An empty upstream list is not an error
func (c *Client) FetchStops(ctx context.Context, force, yearMonth string) ([]map[string]any, error) {
	if strings.TrimSpace(force) == "" {
		return nil, perr.InvalidArgf("force is required")
	}
	if !validate.IsYearMonth(yearMonth) {
		return nil, perr.InvalidArgf("invalid year-month %q", yearMonth)
	}
	q := url.Values{"force": {force}, "date": {yearMonth}}

	var out []map[string]any
	if err := c.getJSON(ctx, "FetchStops", c.opts.StopsPath, q, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

// availability is one entry of the dates listing
type availability struct {
	Date          string   `json:"date"`
	StopAndSearch []string `json:"stop-and-search"`
}

// ListAvailableMonths returns the months whose stop-and-search list names force, in upstream order
func (c *Client) ListAvailableMonths(ctx context.Context, force string) ([]string, error) {
	if strings.TrimSpace(force) == "" {
		return nil, perr.InvalidArgf("force is required")
	}
	var entries []availability
	if err := c.getJSON(ctx, "ListAvailableMonths", c.opts.AvailabilityPath, url.Values{"force": {force}}, &entries); err != nil {
		return nil, err
	}
	months := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Date == "" {
			continue
		}
		for _, f := range e.StopAndSearch {
			if f == force {
				months = append(months, e.Date)
				break
			}
		}
	}
	return months, nil
}

// getJSON runs one logical request through the breaker and decodes a 2xx body into dst
func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, dst any) error {
	u := strings.TrimRight(c.opts.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	body, err := c.cb.Execute(func() ([]byte, error) { return c.do(ctx, op, u) })
	if err != nil {
		if stderrs.Is(err, gobreaker.ErrOpenState) || stderrs.Is(err, gobreaker.ErrTooManyRequests) {
			return newAPIError(op, KindBreaker, 0, 0, err)
		}
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return newAPIError(op, KindDecode, http.StatusOK, 1, err)
	}
	return nil
}

// do issues GET url with retries on transport errors and transient statuses
func (c *Client) do(ctx context.Context, op, u string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newAPIError(op, KindTransport, 0, attempt, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, newAPIError(op, KindTransport, 0, attempt, err)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil || attempt >= c.opts.MaxRetries {
				return nil, newAPIError(op, KindTransport, 0, attempt+1, err)
			}
			back := tim.Backoff(c.opts.RetryBase, c.opts.RetryCap, attempt)
			logger.C(ctx).Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("retry_in", back).Msg("policeapi transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, newAPIError(op, KindTransport, 0, attempt+1, err)
			}
			continue
		}

		logger.C(ctx).Debug().
			Str("op", op).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Msg("policeapi http response")

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			_ = resp.Body.Close()
			if err != nil {
				return nil, newAPIError(op, KindTransport, resp.StatusCode, attempt+1, err)
			}
			return body, nil
		}

		if retryableStatus(resp.StatusCode) && attempt < c.opts.MaxRetries {
			wait := tim.Backoff(c.opts.RetryBase, c.opts.RetryCap, attempt)
			if resp.StatusCode == http.StatusTooManyRequests {
				if ra := retryAfter(resp.Header.Get("Retry-After"), c.now()); ra > wait {
					wait = ra
				}
			}
			_ = drainAndClose(resp.Body)
			logger.C(ctx).Warn().Str("op", op).Int("status", resp.StatusCode).Int("attempt", attempt).Dur("retry_in", wait).Msg("policeapi transient status retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, newAPIError(op, KindTransport, 0, attempt+1, err)
			}
			continue
		}

		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, newAPIError(op, KindStatus, resp.StatusCode, attempt+1,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(tail))))
	}
}

// retryAfter reads delta seconds or an HTTP date
func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil {
		if s < 0 {
			return 0
		}
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
