// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3000"`

	// Database (PostgreSQL)
	DatabaseURL string   `env:"DATABASE_URL,required,notEmpty"`
	DB          DBConfig `envPrefix:"DB_"`

	// Cache (Redis). Empty disables the user cache.
	RedisURL     string        `env:"REDIS_URL" envDefault:""`
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"1h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Telemetry TelemetryConfig
}

// DBConfig holds connection pool settings.
type DBConfig struct {
	MaxConns          int32         `env:"MAX_CONNS" envDefault:"10"`
	MinConns          int32         `env:"MIN_CONNS" envDefault:"2"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"15m"`
	HealthCheckPeriod time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// QueryTimeout bounds each database call, including waiting for a pooled connection.
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s"`
}

// TelemetryConfig controls trace and metric export.
// The OTLP exporters additionally honour the standard OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	Enabled        bool          `env:"TELEMETRY_ENABLED" envDefault:"true"`
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"userapi"`
	ServiceVersion string        `env:"SERVICE_VERSION" envDefault:"0.1.0"`
	Insecure       bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	MetricInterval time.Duration `env:"OTEL_METRIC_INTERVAL" envDefault:"15s"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DB.MinConns > cfg.DB.MaxConns {
		return nil, fmt.Errorf("failed to parse config: DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)",
			cfg.DB.MinConns, cfg.DB.MaxConns)
	}
	return cfg, nil
}
