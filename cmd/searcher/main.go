// Command searcher runs the search query service.
//
// GET /api/v1/search?q= (also served at /search) runs a multi-field match
// over document content and entity text and returns ranked rows with
// highlighted content fragments. Results are cached in Redis when it is
// reachable, and the cache is dropped whenever the index-complete topic
// reports a new or replaced document.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/app"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/awsconfig"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "max_results", cfg.Search.MaxResults)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer("searcher", cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	awsCfg, err := awsconfig.Load(ctx, cfg.AWS)
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}
	idx, err := app.NewIndex(cfg, awsCfg)
	if err != nil {
		slog.Error("search is not configured", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("index", health.PingCheck(idx.Ping, true))

	opts := []searcher.Option{searcher.WithMetrics(m), searcher.WithSize(cfg.Search.MaxResults)}
	var queryCache *cache.QueryCache
	if cfg.Search.CacheEnabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			checker.Register("redis", health.Disabled)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			opts = append(opts, searcher.WithCache(queryCache))
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("search cache enabled, ingestion clears it after each write",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	h := handler.New(searcher.New(idx, opts...), queryCache)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = handler.CORS()(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Serve(gctx, server, cfg.Server.ShutdownTimeout)
	})
	if cfg.Kafka.Enabled && queryCache != nil {
		invalidations := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, cfg.Kafka.ConsumerGroup+"-search-cache",
			queryCache.HandleIndexComplete())
		g.Go(func() error {
			return invalidations.Start(gctx)
		})
		slog.Info("cache invalidation consumer enabled", "topic", cfg.Kafka.Topics.IndexComplete)
	}

	if err := g.Wait(); err != nil {
		slog.Error("search service error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
