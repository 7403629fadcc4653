package module

import (
	"time"

	"stopsearch/internal/platform/config"
	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/validate"
)

// Options holds configuration options for the backfill service
type Options struct {
	Workers          int           `env:"WORKERS" validate:"min=1,max=64"`
	Concurrent       bool          `env:"CONCURRENT"`
	Order            string        `env:"ORDER" validate:"omitempty,oneof=upstream asc desc"`
	Since            string        `env:"SINCE" validate:"omitempty,yearmonth"`
	DelayPerMonth    time.Duration `env:"DELAY"`
	MonthTimeout     time.Duration `env:"MONTH_TIMEOUT"`
	DiscoveryTimeout time.Duration `env:"DISCOVERY_TIMEOUT"`
}

// FromConfig reads the backfill options from config with CORE_BACKFILL_ prefix
func FromConfig(cfg config.Conf) Options {
	bf := cfg.Prefix("CORE_BACKFILL_")
	return Options{
		Workers:          bf.MayInt("WORKERS", 4),
		Concurrent:       bf.MayBool("CONCURRENT", false),
		Order:            bf.MayString("ORDER", "upstream"),
		Since:            bf.MayString("SINCE", ""),
		DelayPerMonth:    bf.MayDuration("DELAY", 0),
		MonthTimeout:     bf.MayDuration("MONTH_TIMEOUT", 0),
		DiscoveryTimeout: bf.MayDuration("DISCOVERY_TIMEOUT", time.Minute),
	}
}

// Validate rejects settings that would make a run meaningless
func (o Options) Validate() error {
	if err := validate.Struct(o, perr.ErrorCodeConfig); err != nil {
		return perr.WithOp(err, "backfill.options")
	}
	return nil
}
