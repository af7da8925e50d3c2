package db

import "time"

// Config holds PostgreSQL pool settings.
// Defaults are applied by DefaultConfig; YAML and environment values override them.
type Config struct {
	ConnectionString  string        `yaml:"url" env:"DATABASE_CONN_URL"`
	MigrationsTable   string        `yaml:"migrations_table" env:"DATABASE_MIGRATIONS_TABLE"`
	HealthCheckPeriod time.Duration `yaml:"healthcheck_period" env:"DATABASE_HEALTHCHECK_PERIOD"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime" env:"DATABASE_MAX_CONN_LIFETIME"`
	RetryInterval     time.Duration `yaml:"retry_interval" env:"DATABASE_RETRY_INTERVAL"`
	RetryAttempts     int           `yaml:"retry_attempts" env:"DATABASE_RETRY_ATTEMPTS"`
	MaxOpenConns      int32         `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MinConns          int32         `yaml:"min_conns" env:"DATABASE_MIN_CONNS"`
}

// DefaultConfig returns the pool settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MigrationsTable:   "schema_migrations",
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryInterval:     5 * time.Second,
		RetryAttempts:     3,
		MaxOpenConns:      10,
		MinConns:          2,
	}
}
