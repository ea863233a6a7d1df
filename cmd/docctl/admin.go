package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/app"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/index/opensearch"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/ledger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/postgres"
)

var retryLimit int

var initIndexCmd = &cobra.Command{
	Use:   "init-index",
	Short: "Create the OpenSearch index with its mapping if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, awsCfg, err := setup(ctx)
		if err != nil {
			return err
		}
		if cfg.OpenSearch.Backend != config.BackendOpenSearch {
			fmt.Fprintf(cmd.OutOrStdout(), "index backend is %q; nothing to create\n", cfg.OpenSearch.Backend)
			return nil
		}
		if err := cfg.ValidateIndex(); err != nil {
			return err
		}
		if err := opensearch.NewFromConfig(cfg.OpenSearch, awsCfg).EnsureIndex(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "index %q ready\n", cfg.OpenSearch.Index)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the ingest ledger schema in PostgreSQL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, _, err := setup(ctx)
		if err != nil {
			return err
		}
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := ledger.New(db).EnsureSchema(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ledger schema ready")
		return nil
	},
}

var retryFailedCmd = &cobra.Command{
	Use:   "retry-failed",
	Short: "Re-run the most recent failed ingest runs recorded in the ledger",
	Long: `Reads failed runs from the ingest ledger, newest first, and runs each
object through the pipeline again. Writes are idempotent, so replaying an
object that has since succeeded only rewrites the same document.`,
	Args: cobra.NoArgs,
	RunE: runRetryFailed,
}

func init() {
	retryFailedCmd.Flags().IntVar(&retryLimit, "limit", 50, "Maximum number of runs to retry")
}

func runRetryFailed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, awsCfg, err := setup(ctx)
	if err != nil {
		return err
	}
	cfg.Postgres.Enabled = true
	in, err := app.NewIngest(ctx, cfg, awsCfg, nil)
	if err != nil {
		return err
	}
	defer in.Close()
	if in.Ledger == nil {
		return errors.New("ingest ledger unavailable; check postgres settings")
	}

	refs, err := in.Ledger.Failed(ctx, retryLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var failed int
	for _, ref := range refs {
		result, err := in.Pipeline.ProcessObject(ctx, ref)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s/%s: %v\n", ref.Bucket, ref.Key, err)
			continue
		}
		fmt.Fprintf(out, "%s/%s: %s\n", ref.Bucket, ref.Key, result.Status)
	}
	fmt.Fprintf(out, "retried %d, still failing %d\n", len(refs), failed)
	if failed > 0 {
		return fmt.Errorf("%d runs still failing", failed)
	}
	return nil
}
