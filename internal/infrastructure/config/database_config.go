package config

import (
	"time"
)

// DatabaseConfig holds the Postgres pool settings. The service only reads, but
// its queries are long: one stats request keeps a connection for the whole
// event scan.
type DatabaseConfig struct {
	URL              string
	MaxConnections   int
	MinConnections   int
	MaxLifetime      time.Duration
	MaxIdleTime      time.Duration
	HealthCheck      time.Duration
	StatementTimeout time.Duration
	ApplicationName  string
}

// DefaultDatabaseConfig returns default database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		// a compare request loads two windows at once, up to three queries each
		MaxConnections:   16,
		MinConnections:   2,
		MaxLifetime:      30 * time.Minute,
		MaxIdleTime:      5 * time.Minute,
		HealthCheck:      time.Minute,
		StatementTimeout: 60 * time.Second,
		ApplicationName:  "subscription-metrics",
	}
}
