// Package pipeline runs the bulletin, prediction and last-price stages over
// bounded worker pools.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/prediction"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/services/timeseries"
)

// QuarterPredictor predicts and stores the price for one quarter.
type QuarterPredictor interface {
	PredictQuarter(ctx context.Context, q *models.ReconciledQuarter) (prediction.Outcome, error)
}

// LatestPrices returns the most recent bar of a symbol.
type LatestPrices interface {
	Latest(ctx context.Context, symbol string) (models.PriceBar, bool)
}

// Config holds pool widths and run scope.
type Config struct {
	BulletinWorkers   int
	PredictionWorkers int
	RunTimeout        time.Duration
	Symbols           []string
}

// Options scope a single run. Empty Symbols falls back to the configured
// scope, then to the symbol catalog.
type Options struct {
	Symbols []string
}

// Orchestrator owns the pipeline stages.
type Orchestrator struct {
	storage   interfaces.StorageManager
	bulletins timeseries.BulletinProcessor
	assembler *timeseries.Assembler
	predictor QuarterPredictor
	prices    LatestPrices
	config    Config
	logger    arbor.ILogger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	storage interfaces.StorageManager,
	bulletins timeseries.BulletinProcessor,
	assembler *timeseries.Assembler,
	predictor QuarterPredictor,
	prices LatestPrices,
	config Config,
	logger arbor.ILogger,
) *Orchestrator {
	if config.BulletinWorkers <= 0 {
		config.BulletinWorkers = 20
	}
	if config.PredictionWorkers <= 0 {
		config.PredictionWorkers = 5
	}
	return &Orchestrator{
		storage:   storage,
		bulletins: bulletins,
		assembler: assembler,
		predictor: predictor,
		prices:    prices,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes bulletins, predictions and last prices in order. A stage that
// fails to enumerate its input stops the run.
func (o *Orchestrator) Run(ctx context.Context, opts Options) ([]*Summary, error) {
	ctx, cancel := o.withRunTimeout(ctx)
	defer cancel()

	stages := []func(context.Context, Options) (*Summary, error){
		o.ProcessBulletins,
		o.PredictPrices,
		o.RefreshLastPrices,
	}

	summaries := make([]*Summary, 0, len(stages))
	for _, stage := range stages {
		summary, err := stage(ctx, opts)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ProcessBulletins parses every unprocessed F45 bulletin in scope, then
// reconciles and persists the batch.
func (o *Orchestrator) ProcessBulletins(ctx context.Context, opts Options) (*Summary, error) {
	runID, logger, started := o.begin(StageBulletins)
	ctx, cancel := o.withRunTimeout(ctx)
	defer cancel()

	symbols, err := o.scope(ctx, opts)
	if err != nil {
		return nil, err
	}

	docs, err := o.storage.NewsStorage().ListFinancialStatements(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate bulletins: %w", err)
	}

	pending, err := o.assembler.Pending(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to load processed urls: %w", err)
	}

	var c counters
	c.skipped.Add(int64(len(docs) - len(pending)))

	logger.Info().
		Int("documents", len(docs)).
		Int("pending", len(pending)).
		Int("workers", o.config.BulletinWorkers).
		Msg("Processing bulletins")

	records := make([]*models.QuarterRecord, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.BulletinWorkers)
	for i, doc := range pending {
		g.Go(func() error {
			err := common.RecoverUnit(logger, doc.URL, func() error {
				record, err := o.bulletins.Process(gctx, doc)
				if err != nil {
					return err
				}
				records[i] = record
				return nil
			})
			if err != nil {
				c.failed.Add(1)
				logger.Warn().
					Str("symbol", doc.Symbol).
					Str("url", doc.URL).
					Err(err).
					Msg("Bulletin failed")
				return nil
			}
			if records[i] == nil {
				c.skipped.Add(1)
				return nil
			}
			c.processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	parsed := make([]*models.QuarterRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			parsed = append(parsed, r)
		}
	}

	result, err := o.assembler.Assemble(ctx, parsed)
	if err != nil {
		return nil, err
	}
	c.inserted.Add(int64(result.Inserted))
	c.duplicates.Add(int64(result.Duplicates))

	summary := c.summary(runID, StageBulletins, started)
	o.logSummary(logger, summary)
	return summary, nil
}

// PredictPrices stores a predicted price for every reconciled quarter in
// scope that does not have one yet.
func (o *Orchestrator) PredictPrices(ctx context.Context, opts Options) (*Summary, error) {
	runID, logger, started := o.begin(StagePredictions)
	ctx, cancel := o.withRunTimeout(ctx)
	defer cancel()

	symbols, err := o.scope(ctx, opts)
	if err != nil {
		return nil, err
	}

	quarters, err := o.storage.QuarterStorage().ListQuarters(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate quarters: %w", err)
	}

	logger.Info().
		Int("quarters", len(quarters)).
		Int("workers", o.config.PredictionWorkers).
		Msg("Predicting prices")

	var c counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.PredictionWorkers)
	for _, q := range quarters {
		g.Go(func() error {
			var outcome prediction.Outcome
			unit := models.PredictionKey(q.Symbol, q.Year, q.Quarter, q.Datetime)
			err := common.RecoverUnit(logger, unit, func() error {
				var err error
				outcome, err = o.predictor.PredictQuarter(gctx, q)
				return err
			})
			if err != nil {
				c.failed.Add(1)
				logger.Warn().
					Str("symbol", q.Symbol).
					Int("year", q.Year).
					Str("quarter", string(q.Quarter)).
					Err(err).
					Msg("Prediction failed")
				return nil
			}

			c.processed.Add(1)
			switch outcome {
			case prediction.OutcomeInserted:
				c.inserted.Add(1)
			case prediction.OutcomeDuplicate:
				c.duplicates.Add(1)
			default:
				c.skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := c.summary(runID, StagePredictions, started)
	o.logSummary(logger, summary)
	return summary, nil
}

// RefreshLastPrices upserts the latest cached close of every predicted symbol.
func (o *Orchestrator) RefreshLastPrices(ctx context.Context, opts Options) (*Summary, error) {
	runID, logger, started := o.begin(StageLastPrices)
	ctx, cancel := o.withRunTimeout(ctx)
	defer cancel()

	symbols, err := o.storage.PredictionStorage().ListPredictedSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate predicted symbols: %w", err)
	}
	if scope := o.explicitScope(opts); len(scope) > 0 {
		symbols = intersect(symbols, scope)
	}

	var c counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.PredictionWorkers)
	for _, symbol := range symbols {
		g.Go(func() error {
			err := common.RecoverUnit(logger, symbol, func() error {
				bar, ok := o.prices.Latest(gctx, symbol)
				if !ok {
					c.skipped.Add(1)
					return nil
				}
				err := o.storage.LastPriceStorage().UpsertLastPrice(gctx, &models.LastPrice{
					Symbol:    symbol,
					Price:     bar.Close,
					Date:      bar.Date,
					UpdatedAt: o.now(),
				})
				if err != nil {
					return err
				}
				c.processed.Add(1)
				c.inserted.Add(1)
				return nil
			})
			if err != nil {
				c.failed.Add(1)
				logger.Warn().Str("symbol", symbol).Err(err).Msg("Last price refresh failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := c.summary(runID, StageLastPrices, started)
	o.logSummary(logger, summary)
	return summary, nil
}

func (o *Orchestrator) begin(stage Stage) (string, arbor.ILogger, time.Time) {
	runID := common.NewRunID()
	logger := o.logger.WithCorrelationId(runID)
	logger.Info().Str("stage", string(stage)).Msg("Stage started")
	return runID, logger, o.now()
}

func (o *Orchestrator) logSummary(logger arbor.ILogger, s *Summary) {
	logger.Info().
		Str("stage", string(s.Stage)).
		Int("processed", s.Processed).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("inserted", s.Inserted).
		Int("duplicates", s.Duplicates).
		Dur("duration", s.Duration).
		Msg("Stage completed")
}

func (o *Orchestrator) withRunTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.config.RunTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= o.config.RunTimeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.config.RunTimeout)
}

func (o *Orchestrator) explicitScope(opts Options) []string {
	if len(opts.Symbols) > 0 {
		return common.NormalizeSymbols(opts.Symbols)
	}
	return common.NormalizeSymbols(o.config.Symbols)
}

// scope resolves the symbols of a run. nil means every symbol.
func (o *Orchestrator) scope(ctx context.Context, opts Options) ([]string, error) {
	if explicit := o.explicitScope(opts); len(explicit) > 0 {
		return explicit, nil
	}

	catalog, err := o.storage.SymbolStorage().ListSymbols(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}
	return catalog, nil
}

func intersect(symbols, scope []string) []string {
	allowed := make(map[string]struct{}, len(scope))
	for _, s := range scope {
		allowed[s] = struct{}{}
	}
	out := symbols[:0:0]
	for _, s := range symbols {
		if _, ok := allowed[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
