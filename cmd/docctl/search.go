package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/app"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/searcher"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed documents",
	Long: `Matches the query against document content and entity text and prints
the ranked rows as JSON.

Examples:
  docctl search invoice
  docctl search --limit 5 "acme corporation"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", searcher.DefaultSize, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, awsCfg, err := setup(ctx)
	if err != nil {
		return err
	}
	idx, err := app.NewIndex(cfg, awsCfg)
	if err != nil {
		return err
	}

	rows, err := searcher.New(idx, searcher.WithSize(searchLimit)).Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no results")
	}
	return printJSON(cmd, rows)
}
