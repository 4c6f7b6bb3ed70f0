package timeseries

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// BulletinProcessor parses a stored news item into a quarter record.
type BulletinProcessor interface {
	Process(ctx context.Context, doc *models.NewsDocument) (*models.QuarterRecord, error)
}

// Result summarises one assembled batch.
type Result struct {
	Records    []*models.ReconciledQuarter
	Inserted   int
	Duplicates int
	Backfilled int
}

// Assembler turns parsed bulletins into persisted series records.
type Assembler struct {
	quarters  interfaces.QuarterStorage
	news      interfaces.NewsStorage
	processor BulletinProcessor
	logger    arbor.ILogger
}

// NewAssembler creates an assembler. news and processor are only needed for
// Q3 backfill and may be nil.
func NewAssembler(quarters interfaces.QuarterStorage, news interfaces.NewsStorage, processor BulletinProcessor, logger arbor.ILogger) *Assembler {
	return &Assembler{
		quarters:  quarters,
		news:      news,
		processor: processor,
		logger:    logger,
	}
}

// Pending drops documents whose URL is already in the quarter store, and
// repeated URLs within docs.
func (a *Assembler) Pending(ctx context.Context, docs []*models.NewsDocument) ([]*models.NewsDocument, error) {
	processed, err := a.quarters.ProcessedURLs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(docs))
	pending := make([]*models.NewsDocument, 0, len(docs))
	for _, doc := range docs {
		if _, ok := processed[doc.URL]; ok {
			continue
		}
		if _, ok := seen[doc.URL]; ok {
			continue
		}
		seen[doc.URL] = struct{}{}
		pending = append(pending, doc)
	}

	a.logger.Debug().
		Int("documents", len(docs)).
		Int("processed", len(processed)).
		Int("pending", len(pending)).
		Msg("Filtered processed bulletins")

	return pending, nil
}

// Assemble reconciles one batch, backfills Q3 cumulatives from the store and
// persists the flattened series. Duplicates counts stored URLs and bulletins
// whose quarter is held by another URL.
func (a *Assembler) Assemble(ctx context.Context, records []*models.QuarterRecord) (*Result, error) {
	reconciler := NewReconciler(a.logger)
	for _, record := range records {
		reconciler.Add(record)
	}

	backfilled := a.backfill(ctx, reconciler, records)

	flat := Flatten(reconciler.Result())

	// superseded records follow the kept ones so the store marks their
	// URLs processed instead of inserting them
	superseded := reconciler.Superseded()
	persist := make([]*models.ReconciledQuarter, 0, len(flat)+len(superseded))
	persist = append(persist, flat...)
	for i := range superseded {
		persist = append(persist, &superseded[i])
	}

	inserted, duplicates, err := a.Persist(ctx, persist)
	if err != nil {
		return nil, err
	}

	return &Result{
		Records:    flat,
		Inserted:   inserted,
		Duplicates: duplicates,
		Backfilled: backfilled,
	}, nil
}

// backfill feeds the stored Q3 bulletin of every (symbol, year) that has an
// annual figure in this batch but no Q3.
func (a *Assembler) backfill(ctx context.Context, reconciler *Reconciler, records []*models.QuarterRecord) int {
	if a.news == nil || a.processor == nil {
		return 0
	}

	count := 0
	done := make(map[bucketKey]struct{})
	for _, record := range records {
		if record == nil || len(record.Years) == 0 || models.QuarterFromLabel(record.QuarterLabel) != models.Q4 {
			continue
		}
		key := bucketKey{symbol: record.Symbol, year: record.FiscalYear()}
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}

		if reconciler.HasQuarter(key.symbol, key.year, models.Q3) {
			continue
		}

		q3Record, err := a.storedQ3(ctx, key.symbol, key.year)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				a.logger.Warn().
					Str("symbol", key.symbol).
					Int("year", key.year).
					Err(err).
					Msg("Q3 backfill failed, annual figure stored unadjusted")
			}
			continue
		}

		reconciler.AddCumulative(q3Record)
		count++
	}
	return count
}

func (a *Assembler) storedQ3(ctx context.Context, symbol string, year int) (*models.QuarterRecord, error) {
	stored, err := a.quarters.FindQuarter(ctx, symbol, year, models.Q3)
	if err != nil {
		return nil, err
	}

	doc, err := a.news.GetNews(ctx, stored.URL)
	if err != nil {
		return nil, err
	}

	record, err := a.processor.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("reparse %s: %w", doc.URL, err)
	}
	if record == nil || record.FiscalYear() != year {
		return nil, fmt.Errorf("reparse %s: %w", doc.URL, models.ErrNotFound)
	}
	return record, nil
}

// Flatten returns one record per (symbol, year, quarter) ordered by symbol,
// year and datetime, with quarter breaking ties.
func Flatten(reconciled Reconciled) []*models.ReconciledQuarter {
	var out []*models.ReconciledQuarter
	for _, years := range reconciled {
		for _, quarters := range years {
			for _, entry := range quarters {
				record := entry
				out = append(out, &record)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if !a.Datetime.Equal(b.Datetime) {
			return a.Datetime.Before(b.Datetime)
		}
		return a.Quarter.Index() < b.Quarter.Index()
	})

	return out
}

// Persist inserts records in order. Records already stored are counted as
// duplicates and left untouched.
func (a *Assembler) Persist(ctx context.Context, records []*models.ReconciledQuarter) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	inserted, duplicates, err := a.quarters.InsertQuarters(ctx, records)
	if err != nil {
		return inserted, duplicates, fmt.Errorf("failed to persist series: %w", err)
	}

	a.logger.Info().
		Int("records", len(records)).
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Msg("Persisted quarterly series")

	return inserted, duplicates, nil
}
