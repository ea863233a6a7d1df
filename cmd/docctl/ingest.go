package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/app"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
)

var (
	ingestBucket    string
	ingestKey       string
	ingestEventFile string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one object through OCR, annotation, and indexing",
	Long: `Runs a single object through the ingestion pipeline, either by bucket and
key or from an object-created event document ("-" reads stdin).

Examples:
  docctl ingest --bucket uploads --key scans/invoice.png
  docctl ingest --event event.json`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBucket, "bucket", "", "Source bucket")
	ingestCmd.Flags().StringVar(&ingestKey, "key", "", "Object key")
	ingestCmd.Flags().StringVar(&ingestEventFile, "event", "", "Path to an object-created event JSON file")
	ingestCmd.MarkFlagsMutuallyExclusive("event", "key")
	ingestCmd.MarkFlagsRequiredTogether("bucket", "key")
	ingestCmd.MarkFlagsOneRequired("event", "key")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, awsCfg, err := setup(ctx)
	if err != nil {
		return err
	}
	in, err := app.NewIngest(ctx, cfg, awsCfg, nil)
	if err != nil {
		return err
	}
	defer in.Close()

	var result *pipeline.Result
	if ingestEventFile != "" {
		raw, err := readEvent(cmd, ingestEventFile)
		if err != nil {
			return err
		}
		result, err = in.Pipeline.Process(ctx, raw)
		if err != nil {
			return err
		}
	} else {
		result, err = in.Pipeline.ProcessObject(ctx, document.ObjectRef{Bucket: ingestBucket, Key: ingestKey})
		if err != nil {
			return err
		}
	}
	return printJSON(cmd, result)
}

func readEvent(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event file: %w", err)
	}
	return raw, nil
}
