/**
 * @description
 * This is the main entry point for the roster service. It initializes all
 * components (configuration, logging, the database pool, Redis, the message
 * broker, repositories, the application service, the cron sweeps, and the
 * HTTP server), wires them together and runs until signalled to stop.
 *
 * @dependencies
 * - log/slog, net/http, os/signal: Standard Go libraries.
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - github.com/joho/godotenv: .env loading for local development.
 * - github.com/redis/go-redis/v9: Redis client for ingest rate limiting.
 * - internal/api, internal/app, internal/config, internal/store: The
 *   service's own packages.
 * - pkg/logging, pkg/rabbitmq: Shared logging and broker plumbing.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/berkmanco/pickleballers-sub001/internal/api"
	"github.com/berkmanco/pickleballers-sub001/internal/app"
	"github.com/berkmanco/pickleballers-sub001/internal/config"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
	"github.com/berkmanco/pickleballers-sub001/pkg/logging"
	"github.com/berkmanco/pickleballers-sub001/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("cannot load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting roster service", "port", cfg.ServerPort, "env", cfg.Env)

	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		logger.Warn("internal api key not configured, reconciliation HTTP ingest disabled", "env", "INTERNAL_API_KEY")
	}

	// Database pool, tuned the same way across our services.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database url parse failed", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts behind pgbouncer
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connected")

	// Redis backs the notice ingest rate limiter; the service runs without it.
	var redisClient *redis.Client
	if cfg.NoticeRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			logger.Warn("redis url missing, notice rate limiting disabled", "env", "REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				logger.Warn("redis url parse failed, notice rate limiting disabled", "error", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					logger.Warn("redis ping failed, notice rate limiting disabled", "error", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					logger.Info("redis connected")
				}
			}
		}
	}
	var limiter *app.RedisRateLimiter
	if redisClient != nil {
		limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// The producer publishes notification events; a broker outage at startup
	// degrades to a logging fallback instead of blocking roster operations.
	var publisher rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq producer unavailable, using fallback", "error", err)
		publisher = &rabbitmq.EventProducerFallback{Logger: logger}
	} else {
		defer eventProducer.Close()
		publisher = eventProducer
		logger.Info("rabbitmq producer connected")
	}

	repository := store.NewPostgresRepository(dbpool)
	gate := app.NewNotificationGate(repository, logger)
	notifier := app.NewNotifier(repository, publisher, gate, cfg.EventsExchange, logger)
	service := app.NewService(repository, notifier, logger, app.MatcherSettings{
		AmountToleranceCents: cfg.FuzzyAmountToleranceCents,
		SenderDistanceMax:    cfg.FuzzySenderDistanceMax,
	})

	// Inbound payment notices arrive over AMQP; the HTTP ingest endpoint is
	// the fallback path, so a consumer failure is not fatal.
	noticeConsumer := app.NewNoticeConsumer(service, logger)
	rabbitConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq consumer unavailable, notices arrive via HTTP ingest only", "error", err)
	} else {
		defer rabbitConsumer.Close()
		noticeBindings := map[string]func([]byte) bool{
			cfg.NoticeRoutingKey: noticeConsumer.HandleMessage,
		}
		if err := rabbitConsumer.ConsumeWithBindings(cfg.EventsExchange, cfg.NoticeQueue, noticeBindings); err != nil {
			logger.Error("notice consumer start failed", "error", err)
			os.Exit(1)
		}
		logger.Info("notice consumer started", "queue", cfg.NoticeQueue, "routing_key", cfg.NoticeRoutingKey)
	}

	jobs := app.NewJobs(service, logger, time.Duration(cfg.ReminderLeadHours)*time.Hour)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()

	handlers := api.NewHandlers(service, limiter, cfg.NoticeRateLimitPerMinute, logger)
	router := api.Routes(handlers, cfg.IdentityJWKSURL, cfg.InternalAPIKey, splitOrigins(cfg.CORSAllowedOrigins))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	// Let in-flight cron jobs finish before the process exits.
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("cron jobs still running at shutdown deadline")
	}

	logger.Info("shutdown complete")
}

// splitOrigins turns the comma-separated CORS origin list into the slice the
// router wants. An empty value allows any origin, matching local development.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
