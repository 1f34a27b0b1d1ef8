package config

import "time"

// Database type constants
const (
	DatabaseTypePostgres = "postgres"
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypeSQLite   = "sqlite"
)

// Config is the root configuration of an asyncrepo process.
type Config struct {
	Service       ServiceConfig       `mapstructure:"service"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Repository    RepositoryConfig    `mapstructure:"repository"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig configures the SQL connection pool.
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"` // postgres, mysql, sqlite
	URL             string        `mapstructure:"url" secret:"true"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// RepositoryConfig tunes the reactive repository layer.
type RepositoryConfig struct {
	// DefaultPageSize replaces page sizes below 1
	DefaultPageSize int64 `mapstructure:"default_page_size"`
	// DefaultBatchSize replaces batch sizes below 1
	DefaultBatchSize int `mapstructure:"default_batch_size"`
	// IgnoreNulls skips nil columns on Save and Update
	IgnoreNulls bool `mapstructure:"ignore_nulls"`
}

// ObservabilityConfig configures logging, metrics and tracing.
type ObservabilityConfig struct {
	LogLevel          string  `mapstructure:"log_level"`
	LogFormat         string  `mapstructure:"log_format"` // json, text
	MetricsEnabled    bool    `mapstructure:"metrics_enabled"`
	TracingEnabled    bool    `mapstructure:"tracing_enabled"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "asyncrepo",
			Environment: "production",
		},
		Database: DatabaseConfig{
			Type:            DatabaseTypePostgres,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			QueryTimeout:    30 * time.Second,
			ConnectTimeout:  5 * time.Second,
		},
		Repository: RepositoryConfig{
			DefaultPageSize:  10,
			DefaultBatchSize: 1000,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingSampleRate: 0.1,
		},
	}
}
