// Command worker consumes scan jobs from Redpanda and scores resumes.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/capigiba/ADS/internal/adapter/embeddings"
	"github.com/capigiba/ADS/internal/adapter/observability"
	"github.com/capigiba/ADS/internal/adapter/queue/redpanda"
	"github.com/capigiba/ADS/internal/adapter/repo/postgres"
	"github.com/capigiba/ADS/internal/config"
	"github.com/capigiba/ADS/internal/scanner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	// The worker exposes its own /metrics endpoint for scrape.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	pool, err := postgres.NewPool(context.Background(), cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	resumeRepo := postgres.NewResumeRepo(pool)
	skillRepo := postgres.NewSkillRepo(pool)
	scanRepo := postgres.NewScanRepo(pool)

	// Embeddings client behind a Redis cache; repeated texts across scans skip
	// the provider entirely.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() { _ = rdb.Close() }()
	embedClient := embeddings.NewCache(embeddings.NewClient(cfg), rdb, cfg.EmbeddingsModel, cfg.EmbedCacheTTL)

	matcher, err := scanner.NewSkillMatcher(cfg.Scoring.FuzzyTitleMatchThreshold, cfg.Scoring.FuzzySkillMatchThreshold)
	if err != nil {
		slog.Error("skill matcher init failed", slog.Any("error", err))
		os.Exit(1)
	}
	engine := scanner.New(matcher, scanner.NewExperienceExtractor(), embeddings.Similarity(embedClient), cfg.ScanConcurrency, logger)

	handler := redpanda.NewScanHandler(scanRepo, resumeRepo, skillRepo, engine, cfg, logger)

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, "ads-scanner-workers", handler, cfg.ScanConcurrency)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			slog.Error("failed to close consumer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker shut down")
}
