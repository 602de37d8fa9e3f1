package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8011, cfg.HTTPPort)
	assert.Equal(t, "discovery", cfg.DBName)
	assert.Equal(t, BackendPostgres, cfg.CatalogBackend)
	assert.Equal(t, 720*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, time.Hour, cfg.HistorySweepInterval)
	assert.Equal(t, 1024, cfg.HistoryRecorderBuffer)
	assert.Equal(t, 2, cfg.HistoryRecorderWorkers)
	assert.Equal(t, 5*time.Second, cfg.HistoryWriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.TrendingCacheTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.VendorServiceURL)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("DISCOVERY_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_UnknownCatalogBackend(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "solr")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown CATALOG_BACKEND")
}

func TestLoad_CustomCatalogBackend(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "elasticsearch")
	t.Setenv("ELASTICSEARCH_URL", "http://es.prod:9200")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendElasticsearch, cfg.CatalogBackend)
	assert.Equal(t, "http://es.prod:9200", cfg.ElasticsearchURL)
}

func TestLoad_InvalidVendorServiceURL(t *testing.T) {
	t.Setenv("VENDOR_SERVICE_URL", "vendor-service")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VENDOR_SERVICE_URL")
}

func TestLoad_HistorySettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"zero retention", "HISTORY_RETENTION", "0s", "HISTORY_RETENTION"},
		{"zero sweep", "HISTORY_SWEEP_INTERVAL", "0s", "HISTORY_SWEEP_INTERVAL"},
		{"zero buffer", "HISTORY_RECORDER_BUFFER", "0", "HISTORY_RECORDER_BUFFER"},
		{"zero workers", "HISTORY_RECORDER_WORKERS", "0", "HISTORY_RECORDER_WORKERS"},
		{"negative cache ttl", "TRENDING_CACHE_TTL", "-1s", "TRENDING_CACHE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_TrendingCacheDisabled(t *testing.T) {
	t.Setenv("TRENDING_CACHE_TTL", "0s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Zero(t, cfg.TrendingCacheTTL)
}

func TestConfig_PostgresAndRedis(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("DISCOVERY_DB_NAME", "discovery_test")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, "discovery_test", pg.DBName)
	assert.Equal(t, int32(20), pg.MaxConns)

	assert.Equal(t, "localhost:6380", cfg.Redis().Addr())
}

func TestLoad_RateLimit(t *testing.T) {
	t.Run("disabled with zero rps", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_RPS", "0")
		t.Setenv("RATE_LIMIT_BURST", "0")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Zero(t, cfg.RateLimitRPS)
	})

	t.Run("negative rps", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_RPS", "-1")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT_RPS")
	})

	t.Run("enabled without burst", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_RPS", "5")
		t.Setenv("RATE_LIMIT_BURST", "0")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT_BURST")
	})
}
