package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/app"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	dataPath    string
	symbols     []string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "investech",
	Short: "SET financial statement pipeline",
	Long: `Parses F45 financial statement bulletins into a per-symbol quarterly
profit/loss and EPS series, then derives predicted prices from daily closes.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Badger data directory (overrides config)")
	rootCmd.PersistentFlags().StringSliceVarP(&symbols, "symbols", "s", nil, "Limit the run to these symbols (e.g. PTT,SET:AOT,KBANK.BK)")

	rootCmd.AddCommand(bulletinsCmd, predictCmd, lastPriceCmd, runCmd, scheduleCmd, versionCmd)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup runs before every subcommand. Startup order:
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides (highest priority)
// 3. Validate
// 4. Initialize logger and print banner
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("investech.toml"); err == nil {
			configFiles = append(configFiles, "investech.toml")
		} else if _, err := os.Stat("deployments/investech.toml"); err == nil {
			configFiles = append(configFiles, "deployments/investech.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, dataPath, symbols)

	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	common.InstallCrashHandler("logs")
	common.PrintBanner(common.LoadVersionFromFile())

	logger.Debug().
		Strs("config_files", configFiles).
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Strs("symbols", config.Pipeline.Symbols).
		Msg("Resolved configuration")

	return nil
}

// withApp builds the application, runs fn with a context cancelled on
// SIGINT/SIGTERM, and closes the application.
func withApp(fn func(ctx context.Context, application *app.App) error) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close application")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, application)
}
