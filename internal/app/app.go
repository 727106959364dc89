package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
	"github.com/Zarakkhan-dev/automated-review-system/internal/aireview"
	"github.com/Zarakkhan-dev/automated-review-system/internal/auth"
	"github.com/Zarakkhan-dev/automated-review-system/internal/config"
	"github.com/Zarakkhan-dev/automated-review-system/internal/event"
	handler "github.com/Zarakkhan-dev/automated-review-system/internal/handler/http"
	"github.com/Zarakkhan-dev/automated-review-system/internal/reconcile"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository/postgres"
	rediscache "github.com/Zarakkhan-dev/automated-review-system/internal/repository/redis"
	"github.com/Zarakkhan-dev/automated-review-system/internal/service"
	"github.com/Zarakkhan-dev/automated-review-system/internal/storage"
	"github.com/Zarakkhan-dev/automated-review-system/internal/storage/memory"
	"github.com/Zarakkhan-dev/automated-review-system/internal/storage/minio"
	"github.com/Zarakkhan-dev/automated-review-system/migrations"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/database"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/health"
	pkgkafka "github.com/Zarakkhan-dev/automated-review-system/pkg/kafka"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/middleware"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "review-service"

// visitorTTL is how long an idle client IP keeps its generate rate limiter.
const visitorTTL = 10 * time.Minute

// App wires together all dependencies and runs the review service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	reconciler *reconcile.Reconciler
	limiter    *middleware.IPLimiter
	tracer     tracing.Shutdown
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Everything opened so far is released if a later step fails.
	var release cleanup
	defer func() {
		if err != nil {
			release.run()
		}
	}()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   cfg.OTELSampleRate,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	release.add(func() { _ = shutdownTracer(context.Background()) })

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	release.add(pool.Close)
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := database.RegisterPoolMetrics(registry, pool, ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Redis backs only the product detail cache; without it reads go
	// straight to PostgreSQL.
	var (
		redisClient *redis.Client
		cache       repository.ProductCache
	)
	redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, product cache disabled", slog.String("error", err.Error()))
	} else {
		release.add(func() { _ = redisClient.Close() })
		cache = rediscache.NewProductCache(redisClient, cfg.ProductCacheTTL)
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Initialize Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	release.add(func() { _ = producer.Close() })
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	model, err := newModel(ctx, cfg, registry, logger)
	if err != nil {
		return nil, err
	}
	helpers, err := aireview.NewHelpers(model, cfg.SentimentCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("init review helpers: %w", err)
	}

	store, pingStore, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}
	var media http.Handler
	if mem, ok := store.(*memory.Storage); ok {
		logger.Warn("MINIO_ENDPOINT not set, product images kept in memory")
		media = mem
	}

	// Build the dependency graph.
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	events := event.NewProducer(producer, logger)

	services := handler.Services{
		Users:    service.NewUserService(userRepo, tokens, events, logger),
		Products: service.NewProductService(productRepo, reviewRepo, cache, store, events, logger),
		Reviews:  service.NewReviewService(reviewRepo, productRepo, userRepo, cache, helpers, events, logger),
		Chats:    service.NewChatService(chatRepo, model, logger),
	}

	reconciler := reconcile.New(productRepo, services.Reviews, reconcile.Config{
		Schedule:     cfg.ReconcileSchedule,
		RunOnStartup: cfg.ReconcileOnStartup,
	}, registry, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	healthHandler.RegisterNonCritical("kafka", producer.Ping)
	if pingStore != nil {
		healthHandler.RegisterNonCritical("minio", pingStore)
	}

	limiter := middleware.NewIPLimiter(cfg.ChatRateLimitRPS, cfg.ChatRateLimitBurst, visitorTTL)

	// HTTP router.
	router := handler.NewRouter(services, handler.RouterConfig{
		ServiceName: ServiceName,
		Tokens:      tokens.Validate,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
		},
		Cookies: handler.CookieConfig{
			Secure: cfg.SecureCookies(),
			MaxAge: cfg.JWTExpiry,
		},
		MaxImageBytes:   cfg.MaxImageBytes,
		GenerateLimiter: limiter,
		Metrics:         middleware.NewHTTPMetrics(registry, ServiceName),
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Tracing:         cfg.OTELEnabled,
		Health:          healthHandler,
		Media:           media,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation calls can take most of AI_TIMEOUT.
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		reconciler: reconciler,
		limiter:    limiter,
		tracer:     shutdownTracer,
		httpServer: httpServer,
	}, nil
}

// newModel builds the generation client chain. Without an API key every
// helper answers with its fallback text.
func newModel(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (ai.Client, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, AI generation disabled")
		return ai.Disabled{}, nil
	}

	gemini, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.AITimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	breakerCfg := ai.DefaultBreakerConfig(gemini.Name())
	breakerCfg.Timeout = cfg.AIBreakerTimeout
	breakerCfg.MinRequests = cfg.AIBreakerMinCalls
	breakerCfg.FailureRatio = cfg.AIBreakerFailRatio

	// The limiter sits outside the breaker so callers giving up while
	// queued for a token never reach it.
	var client ai.Client = gemini
	client = ai.WithMetrics(client, ai.NewMetrics(reg))
	client = ai.WithBreaker(client, breakerCfg, reg, logger)
	client = ai.WithRateLimit(client, cfg.AIRPS, cfg.AIBurst)

	logger.Info("AI generation enabled", slog.String("model", cfg.GeminiModel))
	return client, nil
}

// newStorage returns MinIO storage when an endpoint is configured, otherwise
// in-memory storage served under the API's own address. The returned ping
// is nil for memory storage.
func newStorage(cfg *config.Config) (storage.Storage, health.Checker, error) {
	if cfg.MinioEndpoint == "" {
		return memory.New(fmt.Sprintf("http://localhost:%d%s", cfg.HTTPPort, handler.MediaPrefix)), nil, nil
	}
	store, err := minio.New(minio.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init minio storage: %w", err)
	}
	return store, store.Ping, nil
}

// cleanup releases resources in reverse order of acquisition.
type cleanup []func()

func (c *cleanup) add(f func()) {
	*c = append(*c, f)
}

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// Run starts the HTTP server and background workers and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	go a.limiter.Run(ctx)

	if err := a.reconciler.Start(ctx); err != nil {
		return fmt.Errorf("start reconciler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Let an in-flight reconcile pass finish before its dependencies close.
	a.reconciler.Stop()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	if err := a.tracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
