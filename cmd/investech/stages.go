package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/app"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/pipeline"
)

var jsonOutput bool

var bulletinsCmd = &cobra.Command{
	Use:   "bulletins",
	Short: "Parse unprocessed F45 bulletins into the quarterly series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(func(ctx context.Context, a *app.App) (*pipeline.Summary, error) {
			return a.Orchestrator.ProcessBulletins(ctx, pipeline.Options{Symbols: symbols})
		})
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Store predicted prices for reconciled quarters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(func(ctx context.Context, a *app.App) (*pipeline.Summary, error) {
			return a.Orchestrator.PredictPrices(ctx, pipeline.Options{Symbols: symbols})
		})
	},
}

var lastPriceCmd = &cobra.Command{
	Use:   "lastprice",
	Short: "Refresh the latest close of every predicted symbol",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(func(ctx context.Context, a *app.App) (*pipeline.Summary, error) {
			return a.Orchestrator.RefreshLastPrices(ctx, pipeline.Options{Symbols: symbols})
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run bulletins, predictions and last prices in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			summaries, err := a.Orchestrator.Run(ctx, pipeline.Options{Symbols: symbols})
			for _, s := range summaries {
				printSummary(s)
			}
			return err
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{bulletinsCmd, predictCmd, lastPriceCmd, runCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")
	}
}

func runStage(stage func(ctx context.Context, a *app.App) (*pipeline.Summary, error)) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		summary, err := stage(ctx, a)
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	})
}

func printSummary(s *pipeline.Summary) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(s)
		return
	}
	fmt.Printf("%-12s processed=%d skipped=%d failed=%d inserted=%d duplicates=%d duration=%s\n",
		s.Stage, s.Processed, s.Skipped, s.Failed, s.Inserted, s.Duplicates, s.Duration.Round(time.Millisecond))
}
