// Command uploader issues presigned upload URLs for the ingest bucket.
//
// POST /api/v1/uploads with {"fileName": "..."} returns
// {"uploadUrl": "...", "fileName": "..."}; the URL accepts a single PUT for
// one hour.
//
// Usage:
//
//	go run ./cmd/uploader [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/app"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/uploads"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/awsconfig"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/middleware"
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
	if err := cfg.ValidateUploads(); err != nil {
		slog.Error("uploader is not configured", "error", err)
		os.Exit(1)
	}
	slog.Info("starting upload service", "port", cfg.Server.Port, "bucket", cfg.Uploads.Bucket)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer("uploader", cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	awsCfg, err := awsconfig.Load(ctx, cfg.AWS)
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	issuer := uploads.NewIssuerFromConfig(awsCfg, cfg.Uploads.Bucket, cfg.Uploads.Expiry, m)
	checker := health.NewChecker()

	mux := http.NewServeMux()
	uploads.NewHandler(issuer).Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = uploads.CORS()(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := app.Serve(ctx, server, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("upload service error", "error", err)
		os.Exit(1)
	}
	slog.Info("upload service stopped")
}
