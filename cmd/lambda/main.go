// Command lambda is the AWS Lambda entry point of the ingestion pipeline. It
// is subscribed to the bucket's object-created notifications and answers
// each invocation with {statusCode, body}.
//
// Clients are built once per execution environment and reused across
// invocations. Configuration comes from the environment (OPENSEARCH_HOST,
// OPENSEARCH_INDEX, DSP_*), with an optional YAML file named by DSP_CONFIG.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/app"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/awsconfig"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
)

func main() {
	cfg, err := config.Load(os.Getenv("DSP_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	p, startupErr := build(cfg)
	if startupErr != nil {
		slog.Error("ingestion pipeline unavailable", "error", startupErr)
	}
	lambda.Start(handler.LambdaHandler(p, startupErr))
}

// build wires the pipeline. A configuration error is returned rather than
// fatal so each invocation can report it as a 500.
func build(cfg *config.Config) (handler.Processor, error) {
	ctx := context.Background()
	awsCfg, err := awsconfig.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	cfg.Kafka.Enabled = false
	in, err := app.NewIngest(ctx, cfg, awsCfg, metrics.New(prometheus.NewRegistry()))
	if err != nil {
		return nil, err
	}
	return in.Pipeline, nil
}
