package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/apptpage/libs/config"
	"github.com/md-rashed-zaman/apptpage/libs/db"
	"github.com/md-rashed-zaman/apptpage/libs/httpx"
	"github.com/md-rashed-zaman/apptpage/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptpage/libs/otel"
	"github.com/md-rashed-zaman/apptpage/libs/runtime"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/consumer"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/handlers"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/inbox"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/selections"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "meeting-service")
	port, err := config.Port("PORT", "8091")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	poolOpts := db.DefaultPoolOptions()
	poolOpts.MaxConns = int32(config.Int("DB_MAX_CONNS", int(poolOpts.MaxConns)))
	pool, err := db.Open(ctx, dbURL, poolOpts)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)
	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	if brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")); len(brokers) > 0 {
		selectionConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   config.String("KAFKA_SELECTION_TOPIC", selections.Topic),
		}, selections.NewHandler(func(tx pgx.Tx) selections.Recorder { return repo.WithTx(tx) }, logger))
		go selectionConsumer.Run(ctx)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("selection stats consumer disabled (no kafka brokers configured)")
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.New(repo, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "meeting")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}
