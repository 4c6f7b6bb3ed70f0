package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/app"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
)

var (
	scheduleExpr string
	runOnStart   bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the full pipeline on a cron schedule",
	Long:  `Runs bulletins, predictions and last prices whenever the cron expression fires. Blocks until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleExpr, "cron", "", "Cron expression (overrides pipeline.schedule)")
	scheduleCmd.Flags().BoolVar(&runOnStart, "now", false, "Also run once immediately")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	expr := config.Pipeline.Schedule
	if scheduleExpr != "" {
		if err := common.ValidateSchedule(scheduleExpr); err != nil {
			return err
		}
		expr = scheduleExpr
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		if err := a.SchedulerService.Start(expr); err != nil {
			return err
		}
		if runOnStart {
			if err := a.SchedulerService.TriggerNow(); err != nil {
				return err
			}
		}

		logger.Info().Str("cron_expr", expr).Msg("Scheduler ready - Press Ctrl+C to stop")
		<-ctx.Done()
		logger.Info().Msg("Interrupt signal received")
		return nil
	})
}
