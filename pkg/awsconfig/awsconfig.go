// Package awsconfig builds the shared aws.Config every AWS-backed adapter is
// constructed from.
package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
)

// Load resolves credentials through the default chain (env, shared config,
// IMDS, web identity) for the configured region. A non-empty endpoint points
// every client at a local stack.
func Load(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg, nil
}
