package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/apptpage/libs/config"
	"github.com/md-rashed-zaman/apptpage/libs/httpx"
	"github.com/md-rashed-zaman/apptpage/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptpage/libs/otel"
	"github.com/md-rashed-zaman/apptpage/libs/runtime"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/events"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/handlers"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/metrics"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/mount"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/schedctx"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "page-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pageMetrics := metrics.NewPageMetrics(reg)

	client, err := meetings.NewClient(meetings.Config{
		BaseURL:     config.String("MEETINGS_BASE_URL", "http://meeting-service:8091"),
		Timeout:     config.Duration("MEETINGS_TIMEOUT", 5*time.Second),
		MaxAttempts: config.Int("MEETINGS_MAX_ATTEMPTS", 3),
		Backoff:     config.Duration("MEETINGS_BACKOFF", 250*time.Millisecond),
		Logger:      logger,
		Metrics:     pageMetrics,
	})
	if err != nil {
		panic(err)
	}

	sessionTTL := config.Duration("SESSION_TTL", 24*time.Hour)
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)

	var (
		store       schedctx.Store
		rateLimitMW httpx.Middleware
		readyChecks []runtime.ReadyCheck
	)
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		store = schedctx.NewRedisStore(rdb, sessionTTL, config.String("SESSION_KEY_PREFIX", "apptctx"))
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info("scheduling context and rate limiting on redis", "redis_addr", addr, "per_minute", limitPerMinute)
	} else {
		mem := schedctx.NewMemoryStore(sessionTTL)
		go mem.Run(ctx, time.Minute)
		store = mem
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
		logger.Info("scheduling context and rate limiting in memory", "per_minute", limitPerMinute)
	}

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	publisher := events.NewPublisher(events.Config{
		Brokers: brokers,
		Topic:   config.String("KAFKA_SELECTION_TOPIC", events.DefaultSelectionTopic),
	}, logger, pageMetrics)
	if kp, ok := publisher.(*events.KafkaPublisher); ok {
		go kp.Run(ctx)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	registry := mount.NewRegistry(mount.RegistryConfig{
		Fetcher: client,
		IdleTTL: config.Duration("MOUNT_IDLE_TTL", 30*time.Minute),
		Logger:  logger,
		Metrics: pageMetrics,
	})
	defer registry.Close()
	go registry.Run(ctx, time.Minute)

	reconciler := view.NewReconciler(view.Config{
		Registry:        registry,
		Store:           store,
		FastPathCallers: config.List("FAST_PATH_CALLERS", "mbw_mia,mbw_avi"),
		RootPath:        config.String("ROOT_PATH", "/"),
		Publisher:       publisher,
		Metrics:         pageMetrics,
		Logger:          logger,
	})

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handlers.New(reconciler, store, handlers.Config{
		DefaultTimezone: config.String("DEFAULT_TIMEZONE", "UTC"),
		ViewWait:        config.Duration("VIEW_WAIT_TIMEOUT", 3*time.Second),
		Logger:          logger,
	}).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id,"+handlers.TimezoneHeader),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithSession(httpx.SessionPolicy{
			CookieName: config.String("SESSION_COOKIE_NAME", "appt_session"),
			TTL:        sessionTTL,
			Secure:     config.Bool("SESSION_COOKIE_SECURE", false),
		}),
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<10))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "page")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}
