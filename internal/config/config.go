package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/discovery/pkg/config"
	"github.com/utafrali/discovery/pkg/database"
)

// Catalog backends selectable through CATALOG_BACKEND.
const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// Config holds all configuration for the discovery service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"DISCOVERY_HTTP_PORT" envDefault:"8011"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"discovery"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:""`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	DBName           string `env:"DISCOVERY_DB_NAME" envDefault:"discovery"`

	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`

	// Catalog collaborators
	CatalogBackend            string `env:"CATALOG_BACKEND" envDefault:"postgres"`
	ElasticsearchURL          string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchItemsIndex   string `env:"ELASTICSEARCH_ITEMS_INDEX" envDefault:"marketplace_items"`
	ElasticsearchVendorsIndex string `env:"ELASTICSEARCH_VENDORS_INDEX" envDefault:"marketplace_vendors"`
	VendorServiceURL          string `env:"VENDOR_SERVICE_URL" envDefault:""`

	// Search history
	HistoryRetention       time.Duration `env:"HISTORY_RETENTION" envDefault:"720h"`
	HistorySweepInterval   time.Duration `env:"HISTORY_SWEEP_INTERVAL" envDefault:"1h"`
	HistoryRecorderBuffer  int           `env:"HISTORY_RECORDER_BUFFER" envDefault:"1024"`
	HistoryRecorderWorkers int           `env:"HISTORY_RECORDER_WORKERS" envDefault:"2"`
	HistoryWriteTimeout    time.Duration `env:"HISTORY_WRITE_TIMEOUT" envDefault:"5s"`

	// Trending
	TrendingCacheTTL time.Duration `env:"TRENDING_CACHE_TTL" envDefault:"60s"`

	// Per-client rate limit on the search API. Zero RPS disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load discovery config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Postgres returns the pool configuration derived from the POSTGRES_* keys.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.DBName
	pg.SSLMode = c.PostgresSSLMode
	if c.PostgresMaxConns > 0 {
		pg.MaxConns = c.PostgresMaxConns
	}
	return pg
}

// Redis returns the client configuration derived from the REDIS_* keys.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("invalid postgres port: %d", c.PostgresPort)
	}
	if c.RedisPort < 1 || c.RedisPort > 65535 {
		return fmt.Errorf("invalid redis port: %d", c.RedisPort)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}

	switch c.CatalogBackend {
	case BackendPostgres, BackendMemory:
	case BackendElasticsearch:
		if c.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is required for the elasticsearch backend")
		}
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q (want postgres, elasticsearch or memory)", c.CatalogBackend)
	}
	if c.VendorServiceURL != "" {
		if u, err := url.Parse(c.VendorServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid VENDOR_SERVICE_URL: %q", c.VendorServiceURL)
		}
	}

	if c.HistoryRetention <= 0 {
		return fmt.Errorf("HISTORY_RETENTION must be positive, got %s", c.HistoryRetention)
	}
	if c.HistorySweepInterval <= 0 {
		return fmt.Errorf("HISTORY_SWEEP_INTERVAL must be positive, got %s", c.HistorySweepInterval)
	}
	if c.HistoryRecorderBuffer < 1 {
		return fmt.Errorf("HISTORY_RECORDER_BUFFER must be at least 1, got %d", c.HistoryRecorderBuffer)
	}
	if c.HistoryRecorderWorkers < 1 {
		return fmt.Errorf("HISTORY_RECORDER_WORKERS must be at least 1, got %d", c.HistoryRecorderWorkers)
	}
	if c.HistoryWriteTimeout <= 0 {
		return fmt.Errorf("HISTORY_WRITE_TIMEOUT must be positive, got %s", c.HistoryWriteTimeout)
	}
	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("SLOW_QUERY_THRESHOLD must not be negative, got %s", c.SlowQueryThreshold)
	}
	if c.TrendingCacheTTL < 0 {
		return fmt.Errorf("TRENDING_CACHE_TTL must not be negative, got %s", c.TrendingCacheTTL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled, got %d", c.RateLimitBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	return nil
}
