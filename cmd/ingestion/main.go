// Command ingestion runs the document ingestion service.
//
// Object-created events arrive either over HTTP (POST /api/v1/events) or from
// the object-created Kafka topic when Kafka is enabled. Each event is run
// through OCR, annotation, and the index write. Health endpoints are served
// at /health/live and /health/ready and Prometheus metrics on the metrics
// port.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
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
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/consumer"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/awsconfig"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/resilience"
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
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer("ingestion", cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	awsCfg, err := awsconfig.Load(ctx, cfg.AWS)
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}
	ingest, err := app.NewIngest(ctx, cfg, awsCfg, m)
	if err != nil {
		slog.Error("failed to build ingestion pipeline", "error", err)
		os.Exit(1)
	}
	defer ingest.Close()

	checker := health.NewChecker()
	ingest.RegisterChecks(checker)

	h := handler.New(ingest.Pipeline)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
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
	if cfg.Kafka.Enabled {
		events := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ObjectCreated, cfg.Kafka.ConsumerGroup,
			consumer.HandleMessage(ingest.Pipeline, resilience.RetryPolicy{
				MaxAttempts:  cfg.Kafka.MaxAttempts,
				InitialDelay: cfg.Kafka.RetryBackoff,
			})))
		g.Go(func() error {
			return events.Start(gctx)
		})
		slog.Info("object-created consumer enabled", "topic", cfg.Kafka.Topics.ObjectCreated)
	}

	if err := g.Wait(); err != nil {
		slog.Error("ingestion service error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
