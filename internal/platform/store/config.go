package store

import "time"

// Driver names
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and configures one backend
type Config struct {
	Driver string
	PG     PGConfig
	SQLite SQLiteConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// SQLiteConfig configures the embedded database file
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration // default 5s
	LogSQL      bool
	SlowQueryMs int
}
