package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/uploads"
)

var presignExpiry time.Duration

var presignCmd = &cobra.Command{
	Use:   "presign <file-name>",
	Short: "Issue a presigned upload URL for the ingest bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresign,
}

func init() {
	presignCmd.Flags().DurationVar(&presignExpiry, "expiry", uploads.DefaultExpiry, "URL lifetime")
}

func runPresign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, awsCfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if err := cfg.ValidateUploads(); err != nil {
		return err
	}
	grant, err := uploads.NewIssuerFromConfig(awsCfg, cfg.Uploads.Bucket, presignExpiry, nil).Issue(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, grant)
}
