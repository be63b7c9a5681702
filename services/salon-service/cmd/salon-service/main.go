package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/distributor"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "salon-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(service)
	if err != nil {
		logger.Error("invalid otel configuration", "err", err)
		panic(err)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	cfg, err := loadSettings()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		panic(err)
	}

	pool, err := db.Open(ctx, cfg.databaseURL, cfg.dbOptions(logger))
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.migrateOnStart {
		applied, err := db.Migrate(ctx, pool, migrations.FS, migrations.Dir)
		if err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied", "files", applied)
	}

	signer, err := auth.NewSigner(cfg.jwtSecret, cfg.jwtTTL)
	if err != nil {
		panic(err)
	}

	metrics.Register()

	outboxRepo := outbox.NewRepository()
	repo := storage.NewRepository(pool, outboxRepo)

	avail := availability.NewService(repo, logger, availability.Config{
		Location:    cfg.location,
		Concurrency: cfg.calcConcurrency,
	})
	assigner := distributor.NewService(distributorStore{repo: repo}, logger, cfg.mergePolicy)

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
		Retention: cfg.eventRetention,
	})
	go publisher.Run(ctx)

	if cfg.autoAssign {
		startAutoAssign(ctx, logger, pool, cfg, assigner)
	}

	limiter, redisCheck := newLimiter(logger, cfg)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}, redisCheck}
	if cfg.kafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", metrics.Handler())
	handlers.Set{
		Auth:     handlers.NewAuthHandler(repo, signer, logger),
		Owner:    handlers.NewOwnerHandler(repo, logger),
		Staff:    handlers.NewStaffHandler(repo, logger),
		Salon:    handlers.NewSalonHandler(repo, logger),
		Barber:   handlers.NewBarberHandler(avail, assigner, repo, logger),
		Schedule: handlers.NewScheduleHandler(avail, logger),
		Customer: handlers.NewCustomerHandler(repo, logger),
	}.Register(mux, auth.RequireAuth(signer), httpx.WithRateLimit(limiter, logger, httpx.RateLimitOptions{
		FailOpen:   cfg.rateLimitFailOpen,
		TrustProxy: cfg.trustProxy,
	}))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(cfg.cors),
		httpx.WithBodyLimit(cfg.bodyLimit),
		httpx.WithTimeout(cfg.requestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "salon")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	if err := startGrpcServer(ctx, logger, pool, cfg); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
