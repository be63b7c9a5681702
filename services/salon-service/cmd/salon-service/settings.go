package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/distributor"
)

type settings struct {
	databaseURL    string
	migrateOnStart bool
	dbMaxConns     int
	dbSlowQuery    time.Duration

	jwtSecret string
	jwtTTL    time.Duration

	location        *time.Location
	calcConcurrency int
	mergePolicy     distributor.MergePolicy

	redisAddr         string
	redisPassword     string
	redisDB           int
	rateLimit         int
	rateLimitFailOpen bool
	trustProxy        bool

	kafkaBrokers   string
	kafkaGroupID   string
	autoAssign     bool
	eventRetention time.Duration

	grpcPort       string
	grpcReflection bool

	cors           httpx.CORSPolicy
	bodyLimit      int64
	requestTimeout time.Duration
}

func (s settings) dbOptions(logger *slog.Logger) db.Options {
	return db.Options{MaxConns: int32(s.dbMaxConns), SlowQuery: s.dbSlowQuery, Logger: logger}
}

func loadSettings() (settings, error) {
	var s settings
	var err error

	if s.databaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return s, err
	}
	s.migrateOnStart = config.Bool("MIGRATE_ON_START", false)
	if s.dbMaxConns, err = config.Int("DB_MAX_CONNS", 10); err != nil {
		return s, err
	}
	if s.dbSlowQuery, err = config.Duration("DB_SLOW_QUERY", 500*time.Millisecond); err != nil {
		return s, err
	}

	if s.jwtSecret, err = config.RequiredString("JWT_SECRET"); err != nil {
		return s, err
	}
	ttlHours, err := config.Int("JWT_TTL_HOURS", 30*24)
	if err != nil {
		return s, err
	}
	s.jwtTTL = time.Duration(ttlHours) * time.Hour

	if s.location, err = time.LoadLocation(config.String("TIMEZONE", "UTC")); err != nil {
		return s, fmt.Errorf("TIMEZONE: %w", err)
	}
	if s.calcConcurrency, err = config.Int("CALC_CONCURRENCY", 8); err != nil {
		return s, err
	}
	if s.mergePolicy, err = distributor.ParseMergePolicy(config.String("DISTRIBUTOR_MERGE", string(distributor.MergeAppend))); err != nil {
		return s, err
	}

	s.redisAddr = config.String("REDIS_ADDR", "")
	s.redisPassword = config.String("REDIS_PASSWORD", "")
	if s.redisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return s, err
	}
	if s.rateLimit, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return s, err
	}
	s.rateLimitFailOpen = config.Bool("RATE_LIMIT_FAIL_OPEN", true)
	s.trustProxy = config.Bool("TRUST_PROXY", false)

	s.kafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.kafkaGroupID = config.String("KAFKA_GROUP_ID", "salon-service")
	s.autoAssign = config.Bool("AUTO_ASSIGN_ON_SAVE", false)
	if s.eventRetention, err = config.Duration("EVENT_RETENTION", 7*24*time.Hour); err != nil {
		return s, err
	}

	if s.grpcPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return s, err
	}
	s.grpcReflection = config.Bool("GRPC_REFLECTION", false)

	maxAge, err := config.Duration("CORS_MAX_AGE", 10*time.Minute)
	if err != nil {
		return s, err
	}
	s.cors = httpx.CORSPolicy{
		AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS"),
		AllowedMethods:   listOr("CORS_ALLOWED_METHODS", "GET", "POST", "PUT", "DELETE", "OPTIONS"),
		AllowedHeaders:   listOr("CORS_ALLOWED_HEADERS", "Authorization", "Content-Type", "X-Request-Id"),
		AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           maxAge,
	}

	limit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	if err != nil {
		return s, err
	}
	s.bodyLimit = int64(limit)
	timeoutSeconds, err := config.Int("REQUEST_TIMEOUT_SECONDS", 15)
	if err != nil {
		return s, err
	}
	s.requestTimeout = time.Duration(timeoutSeconds) * time.Second
	return s, nil
}

func listOr(key string, fallback ...string) []string {
	if v := config.List(key); len(v) > 0 {
		return v
	}
	return fallback
}
