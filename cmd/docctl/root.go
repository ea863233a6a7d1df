package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/awsconfig"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Operate the document ingestion and search pipeline",
	Long: `docctl drives the pipeline from the command line.

It reads the same configuration as the services: a YAML file, an optional
.env file, and DSP_* environment overrides.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/development.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(presignCmd)
	rootCmd.AddCommand(initIndexCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(retryFailedCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and AWS credentials for a subcommand.
func setup(ctx context.Context) (*config.Config, aws.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, aws.Config{}, err
	}
	logger.Setup(logLevel, "text")
	awsCfg, err := awsconfig.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	return cfg, awsCfg, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
