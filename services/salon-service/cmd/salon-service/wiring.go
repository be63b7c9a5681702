package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/consumer"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/distributor"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/inbox"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// distributorStore runs each assignment in one storage transaction.
type distributorStore struct {
	repo *storage.Repository
}

func (s distributorStore) Atomic(ctx context.Context, fn func(distributor.Tx) error) error {
	return s.repo.InTx(ctx, func(tx *storage.Tx) error { return fn(tx) })
}

// newLimiter prefers a shared Redis window and falls back to a per-process one.
func newLimiter(logger *slog.Logger, cfg settings) (httpx.Limiter, runtime.ReadyCheck) {
	if cfg.redisAddr == "" {
		logger.Info("rate limiting enabled (memory)", "per_minute", cfg.rateLimit)
		return httpx.NewMemoryRateLimiter(cfg.rateLimit, time.Minute), runtime.ReadyCheck{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})
	logger.Info("rate limiting enabled (redis)", "per_minute", cfg.rateLimit, "redis_addr", cfg.redisAddr)
	return httpx.NewRedisRateLimiter(rdb, cfg.rateLimit, time.Minute, "salon:rl"),
		runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)}
}

type assigner interface {
	Assign(ctx context.Context, createdBy string) (distributor.Result, error)
}

// startAutoAssign consumes availability events and re-runs the distributor
// for their creator.
func startAutoAssign(ctx context.Context, logger *slog.Logger, pool *db.Pool, cfg settings, a assigner) {
	if cfg.kafkaBrokers == "" {
		logger.Warn("AUTO_ASSIGN_ON_SAVE set without KAFKA_BROKERS; skipping")
		return
	}
	claims := inbox.NewRepository(pool, cfg.kafkaGroupID)
	c := consumer.New(logger, claims, consumer.Config{
		Brokers: cfg.kafkaBrokers,
		GroupID: cfg.kafkaGroupID,
		Topics:  []string{outbox.EventAvailabilitySaved, outbox.EventAvailabilityReplaced},
	}, autoAssignHandler(logger, a))
	go c.Run(ctx)
	if cfg.eventRetention > 0 {
		go pruneInbox(ctx, logger, claims, cfg.eventRetention)
	}
}

type inboxPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// pruneInbox forgets claims older than retention once an hour. Kafka does
// not redeliver that far back, so the rows no longer guard anything.
func pruneInbox(ctx context.Context, logger *slog.Logger, p inboxPruner, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.Prune(ctx, now.Add(-retention))
			if err != nil {
				logger.Error("inbox prune failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("inbox pruned", "rows", n)
			}
		}
	}
}

func autoAssignHandler(logger *slog.Logger, a assigner) consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload outbox.AvailabilityPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil || payload.CreatedBy == "" {
			logger.Error("invalid availability event", "err", err, "topic", msg.Topic)
			return nil
		}
		res, err := a.Assign(ctx, payload.CreatedBy)
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Info("auto assign skipped", "created_by", payload.CreatedBy, "reason", apperr.Message(err, err.Error()))
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("auto assign done", "created_by", payload.CreatedBy, "assigned", res.Assigned, "slots_added", res.SlotsAdded)
		return nil
	}
}
