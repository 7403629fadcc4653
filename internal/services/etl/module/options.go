package module

import (
	"time"

	"stopsearch/internal/adapters/policeapi"
	"stopsearch/internal/platform/config"
	"stopsearch/internal/services/etl/metrics"
	"stopsearch/internal/services/etl/service"
)

// Options holds configuration for the etl module
type Options struct {
	API        policeapi.Options
	FailureCap int
	Prometheus bool
	SaveRetry  service.SaveRetry
}

// FromConfig reads CORE_POLICEAPI_, CORE_METRICS_ and CORE_ETL_ settings
func FromConfig(cfg config.Conf) Options {
	m := cfg.Prefix("CORE_METRICS_")
	e := cfg.Prefix("CORE_ETL_")
	return Options{
		API:        policeapi.FromConfig(cfg),
		FailureCap: m.MayInt("FAILURE_CAP", metrics.DefaultFailureCap),
		Prometheus: m.MayBool("PROMETHEUS", true),
		SaveRetry: service.SaveRetry{
			Attempts: e.MayInt("SAVE_ATTEMPTS", 2),
			Base:     e.MayDuration("SAVE_RETRY_BASE", 500*time.Millisecond),
		},
	}
}
