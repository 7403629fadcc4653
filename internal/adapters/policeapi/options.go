package policeapi

import (
	"time"

	"stopsearch/internal/platform/config"
)

const (
	defaultBaseURL          = "https://data.police.uk/api"
	defaultStopsPath        = "/stops-force"
	defaultAvailabilityPath = defaultStopsPath // without a date the endpoint lists available months
	defaultUA               = "stopsearch-etl"
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBase        = time.Second
	defaultRetryCap         = 30 * time.Second
	defaultRPS              = 15
	defaultBurst            = 30
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = time.Minute
)

// Options configures the Client
type Options struct {
	BaseURL          string
	StopsPath        string
	AvailabilityPath string
	UserAgent        string
	Timeout          time.Duration

	// MaxRetries is the number of extra attempts after the first; 0 disables retries
	MaxRetries int
	RetryBase  time.Duration
	RetryCap   time.Duration

	// RPS <= 0 disables client side limiting
	RPS   float64
	Burst int

	// BreakerThreshold consecutive failed requests open the breaker for BreakerCooldown
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// FromConfig reads client options with the CORE_POLICEAPI_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_POLICEAPI_")
	return Options{
		BaseURL:          c.MayString("BASE_URL", defaultBaseURL),
		StopsPath:        c.MayString("STOPS_PATH", defaultStopsPath),
		AvailabilityPath: c.MayString("AVAILABILITY_PATH", defaultAvailabilityPath),
		UserAgent:        c.MayString("USER_AGENT", defaultUA),
		Timeout:          c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries:       c.MayInt("RETRIES", defaultMaxRetries),
		RetryBase:        c.MayDuration("RETRY_BASE", defaultRetryBase),
		RetryCap:         c.MayDuration("RETRY_CAP", defaultRetryCap),
		RPS:              c.MayFloat64("RPS", defaultRPS),
		Burst:            c.MayInt("BURST", defaultBurst),
		BreakerThreshold: c.MayInt("BREAKER_THRESHOLD", defaultBreakerThreshold),
		BreakerCooldown:  c.MayDuration("BREAKER_COOLDOWN", defaultBreakerCooldown),
	}
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.StopsPath == "" {
		o.StopsPath = defaultStopsPath
	}
	if o.AvailabilityPath == "" {
		o.AvailabilityPath = defaultAvailabilityPath
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RetryCap <= 0 {
		o.RetryCap = defaultRetryCap
	}
	if o.Burst <= 0 {
		o.Burst = defaultBurst
	}
	if o.BreakerThreshold <= 0 {
		o.BreakerThreshold = defaultBreakerThreshold
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = defaultBreakerCooldown
	}
	return o
}
