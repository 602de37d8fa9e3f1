package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/discovery/internal/cache"
	"github.com/utafrali/discovery/internal/catalog"
	catalogES "github.com/utafrali/discovery/internal/catalog/elasticsearch"
	catalogmem "github.com/utafrali/discovery/internal/catalog/memory"
	catalogpg "github.com/utafrali/discovery/internal/catalog/postgres"
	"github.com/utafrali/discovery/internal/catalog/remote"
	"github.com/utafrali/discovery/internal/catalog/seed"
	"github.com/utafrali/discovery/internal/config"
	"github.com/utafrali/discovery/internal/event"
	handler "github.com/utafrali/discovery/internal/handler/http"
	"github.com/utafrali/discovery/internal/repository/postgres"
	"github.com/utafrali/discovery/internal/service"
	"github.com/utafrali/discovery/internal/worker"
	"github.com/utafrali/discovery/migrations"
	"github.com/utafrali/discovery/pkg/database"
	"github.com/utafrali/discovery/pkg/health"
	"github.com/utafrali/discovery/pkg/httpclient"
	pkgkafka "github.com/utafrali/discovery/pkg/kafka"
	"github.com/utafrali/discovery/pkg/middleware"
	"github.com/utafrali/discovery/pkg/tracing"
)

const (
	serviceName    = "discovery"
	serviceVersion = "0.1.0"
	consumerGroup  = "discovery-service-user-deleted"
)

// App wires together all dependencies and runs the discovery service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	userDeleted    *pkgkafka.Consumer
	recorder       *service.HistoryRecorder
	sweeper        *worker.RetentionSweeper
	httpServer     *http.Server
	stopLimiter    context.CancelFunc
	tracerShutdown func(context.Context) error
}

// catalogBackend groups the three catalog collaborators and the health check
// of whatever serves them.
type catalogBackend struct {
	eligibility catalog.EligibilityResolver
	items       catalog.ItemLookup
	vendors     catalog.VendorLookup
	ping        health.Checker
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.DBName),
	)
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, serviceName))

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Catalog collaborators.
	backend, err := newCatalogBackend(ctx, cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if backend.ping != nil {
		healthHandler.RegisterCritical(cfg.CatalogBackend, backend.ping)
	}

	// Trending cache. Redis is optional: without it trending reads go
	// straight to the history store.
	var (
		redisClient   *redis.Client
		trendingCache service.TrendingCache
	)
	if cfg.TrendingCacheTTL > 0 {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis(), logger)
		if err != nil {
			logger.Warn("redis unavailable, trending cache disabled",
				slog.String("error", err.Error()),
			)
		} else {
			trendingCache = cache.NewTrendingCache(redisClient, cfg.TrendingCacheTTL)
			healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
			logger.Info("trending cache enabled", slog.Duration("ttl", cfg.TrendingCacheTTL))
		}
	}

	historyRepo := postgres.NewHistoryRepository(pool)
	historyService := service.NewHistoryService(historyRepo, logger)

	// Kafka producer and consumer, when enabled.
	var (
		producer    *pkgkafka.Producer
		userDeleted *pkgkafka.Consumer
		publisher   service.SearchEventPublisher
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = event.NewProducer(producer, logger)

		eventConsumer := event.NewConsumer(historyService, logger)
		userDeleted = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:    cfg.KafkaBrokers,
			GroupID:    consumerGroup,
			Topic:      event.TopicUserDeleted,
			MinBytes:   1,
			MaxBytes:   10e6,
			DeadLetter: pkgkafka.NewDeadLetterQueue(cfg.KafkaBrokers, logger),
		}, eventConsumer.Handle, logger)

		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// Build the dependency graph.
	recorder := service.NewHistoryRecorder(historyRepo, publisher, service.RecorderConfig{
		Buffer:       cfg.HistoryRecorderBuffer,
		Workers:      cfg.HistoryRecorderWorkers,
		WriteTimeout: cfg.HistoryWriteTimeout,
	}, logger)

	searchService := service.NewSearchService(backend.eligibility, backend.items, backend.vendors, recorder, logger)
	suggestionService := service.NewSuggestionService(historyRepo, backend.eligibility, backend.items, backend.vendors, logger)
	trendingService := service.NewTrendingService(historyRepo, trendingCache, logger)

	sweeper := worker.NewRetentionSweeper(historyRepo, cfg.HistoryRetention, cfg.HistorySweepInterval, logger)

	routerCfg := handler.RouterConfig{
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		TrendingMaxAge: cfg.TrendingCacheTTL,
	}
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	if cfg.RateLimitRPS > 0 {
		routerCfg.RateLimit = middleware.RateLimit(limiterCtx, middleware.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		}, logger)
	}

	// HTTP router.
	router := handler.NewRouter(
		handler.NewSearchHandler(searchService, suggestionService, trendingService, logger),
		handler.NewHistoryHandler(historyService, logger),
		healthHandler,
		logger,
		routerCfg,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		userDeleted:    userDeleted,
		recorder:       recorder,
		sweeper:        sweeper,
		httpServer:     httpServer,
		stopLimiter:    stopLimiter,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newCatalogBackend selects the catalog implementation named by
// CATALOG_BACKEND. When VENDOR_SERVICE_URL is set, eligibility is resolved
// by the vendor service instead of the catalog store.
func newCatalogBackend(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (catalogBackend, error) {
	var backend catalogBackend

	switch cfg.CatalogBackend {
	case config.BackendElasticsearch:
		store, err := catalogES.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchItemsIndex, cfg.ElasticsearchVendorsIndex, logger)
		if err != nil {
			return backend, fmt.Errorf("connect to elasticsearch: %w", err)
		}
		backend = catalogBackend{eligibility: store, items: store, vendors: store, ping: store.Ping}
		logger.Info("catalog backend: elasticsearch", slog.String("url", cfg.ElasticsearchURL))

	case config.BackendMemory:
		demo := seed.Build(time.Now())
		store := catalogmem.New()
		store.PutVendors(demo.Vendors...)
		store.PutItems(demo.Items...)
		backend = catalogBackend{eligibility: store, items: store, vendors: store}
		logger.Warn("catalog backend: in-memory demo catalog",
			slog.Int("vendors", len(demo.Vendors)),
			slog.Int("items", len(demo.Items)),
		)

	default:
		store := catalogpg.NewStore(pool)
		backend = catalogBackend{eligibility: store, items: store, vendors: store}
		logger.Info("catalog backend: postgres")
	}

	if cfg.VendorServiceURL != "" {
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("vendor-service"),
			logger,
		)
		backend.eligibility = remote.NewEligibilityResolver(client, cfg.VendorServiceURL)
		logger.Info("vendor eligibility resolved remotely", slog.String("url", cfg.VendorServiceURL))
	}

	return backend, nil
}

// Run starts the HTTP server, Kafka consumer, and background jobs, then blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Kafka consumer.
	if a.userDeleted != nil {
		go func() {
			if err := a.userDeleted.Start(ctx); err != nil {
				errCh <- fmt.Errorf("user deleted consumer: %w", err)
			}
		}()
	}

	// Start background retention sweep.
	go a.sweeper.Run(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. History recorder (flush queued writes while the pool is open)
// 3. Tracer (flush pending spans)
// 4. Kafka consumer
// 5. Kafka producer
// 6. Redis client
// 7. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopLimiter()

	// 2. Queued history writes may still publish events, so this precedes the producer.
	a.recorder.Close()

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Kafka consumer.
	if a.userDeleted != nil {
		if err := a.userDeleted.Close(); err != nil {
			a.logger.Error("user deleted consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 6. Close Redis client.
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 7. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3

	var lastErr error
	for attempt := range attempts {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
