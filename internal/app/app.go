package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/eodhd"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/httpclient"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/retry"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/bulletin"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/pipeline"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/prediction"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/prices"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/scheduler"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/timeseries"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	PriceFeed         *eodhd.Client
	BulletinService   *bulletin.Service
	Assembler         *timeseries.Assembler
	PriceCache        *prices.Cache
	PredictionService *prediction.Service
	Orchestrator      *pipeline.Orchestrator
	SchedulerService  *scheduler.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		_ = app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("bulletin_workers", cfg.Pipeline.BulletinWorkers).
		Int("prediction_workers", cfg.Pipeline.PredictionWorkers).
		Strs("symbols", cfg.Pipeline.Symbols).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the pipeline in dependency order: transport, parsing,
// series assembly, prices, predictions, orchestration.
func (a *App) initServices() error {
	cfg := a.Config

	if cfg.EODHD.APIKey == "" {
		a.Logger.Warn().Msg("EODHD api key not set, price lookups will fail")
	}

	// Bulletin retrieval: every failure retried, Retries total attempts
	bulletinClient := httpclient.NewClient(cfg.HTTP, cfg.Bulletin.GetTimeout())
	fetchPolicy := retry.NewPolicy(cfg.Bulletin.Retries-1, cfg.Retry.BackoffFactor, retry.AnyFailure)
	fetcher := bulletin.NewHTTPFetcher(bulletinClient, fetchPolicy, a.Logger)

	parser := bulletin.NewParser(cfg.Bulletin.ContentSelector, a.Logger)
	a.BulletinService = bulletin.NewService(parser, fetcher, a.Logger)

	a.Assembler = timeseries.NewAssembler(
		a.StorageManager.QuarterStorage(),
		a.StorageManager.NewsStorage(),
		a.BulletinService,
		a.Logger,
	)

	// Price feed: only throttling and dropped connections are retried
	common.SetDefaultSuffix(cfg.EODHD.ExchangeSuffix)
	a.PriceFeed = eodhd.NewClient(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithHTTPClient(httpclient.NewClient(cfg.HTTP, cfg.EODHD.GetTimeout())),
		eodhd.WithRequestInterval(cfg.EODHD.GetRateLimit()),
		eodhd.WithExchangeSuffix(cfg.EODHD.ExchangeSuffix),
		eodhd.WithLogger(a.Logger),
	)
	pricePolicy := retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.BackoffFactor, retry.RateLimitOrConnection)
	a.PriceCache = prices.NewCache(a.PriceFeed, a.StorageManager.PriceCacheStorage(), pricePolicy, cfg.EODHD.Bars, a.Logger)

	a.PredictionService = prediction.NewService(a.PriceCache, a.StorageManager.PredictionStorage(), a.Logger)

	a.Orchestrator = pipeline.NewOrchestrator(
		a.StorageManager,
		a.BulletinService,
		a.Assembler,
		a.PredictionService,
		a.PriceCache,
		pipeline.Config{
			BulletinWorkers:   cfg.Pipeline.BulletinWorkers,
			PredictionWorkers: cfg.Pipeline.PredictionWorkers,
			RunTimeout:        cfg.Pipeline.GetRunTimeout(),
			Symbols:           cfg.Pipeline.Symbols,
		},
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(func(ctx context.Context) error {
		_, err := a.Orchestrator.Run(ctx, pipeline.Options{})
		return err
	}, a.Logger)

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
