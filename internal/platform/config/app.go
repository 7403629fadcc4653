package config

import (
	"strings"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/logger"
	"stopsearch/internal/platform/validate"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// App holds process-wide settings shared by every command
type App struct {
	Forces      []string `env:"STOPSEARCH_FORCES" validate:"required,min=1,dive,force"`
	StoreDriver string   `env:"STOPSEARCH_STORE_DRIVER" validate:"oneof=sqlite postgres"`
	SQLitePath  string   `env:"STOPSEARCH_SQLITE_PATH" validate:"required_if=StoreDriver sqlite"`
	PGURL       string   `env:"SERVICE_PGSQL_DBURL" validate:"required_if=StoreDriver postgres"`
	PGMaxConns  int      `env:"SERVICE_PGSQL_MAX_CONNS" validate:"min=1"`
	PGSlowMs    int      `env:"SERVICE_PGSQL_SLOW_MS" validate:"min=0"`
	PGLogSQL    bool     `env:"SERVICE_PGSQL_LOG_SQL"`
	LogLevel    string   `env:"LOG_LEVEL"`
}

// LoadApp reads App from the environment and validates it
func LoadApp(c Conf) (App, error) {
	pg := c.Prefix("SERVICE_PGSQL_")
	app := App{
		Forces:      lower(c.MayCSV("STOPSEARCH_FORCES", []string{"metropolitan"})),
		StoreDriver: strings.ToLower(c.MayString("STOPSEARCH_STORE_DRIVER", DriverSQLite)),
		SQLitePath:  c.MayString("STOPSEARCH_SQLITE_PATH", "stopsearch.db"),
		PGURL:       pg.MayString("DBURL", ""),
		PGMaxConns:  pg.MayInt("MAX_CONNS", 4),
		PGSlowMs:    pg.MayInt("SLOW_MS", 500),
		PGLogSQL:    pg.MayBool("LOG_SQL", false),
		LogLevel:    c.MayString("LOG_LEVEL", "info"),
	}
	return app, app.Validate()
}

// Validate reports the first invalid setting as an ErrorCodeConfig error
func (a App) Validate() error {
	if _, err := logger.ParseLevel(a.LogLevel); err != nil {
		return perr.WithField(perr.Wrap(err, perr.ErrorCodeConfig, "invalid LOG_LEVEL"), "LOG_LEVEL")
	}
	return validate.Struct(a, perr.ErrorCodeConfig)
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
