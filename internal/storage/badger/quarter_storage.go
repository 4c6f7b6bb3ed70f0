package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// quarterBatchSize bounds the records written per Badger transaction.
const quarterBatchSize = 500

// QuarterStorage implements the QuarterStorage interface for Badger
type QuarterStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQuarterStorage creates a new QuarterStorage instance
func NewQuarterStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QuarterStorage {
	return &QuarterStorage{
		db:     db,
		logger: logger,
	}
}

// ProcessedURLs returns the URLs of stored quarters and of bulletins marked
// processed because their quarter was already held by another URL.
func (s *QuarterStorage) ProcessedURLs(ctx context.Context) (map[string]struct{}, error) {
	var records []models.ReconciledQuarter
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to load processed urls: %w", err)
	}

	var markers []models.ProcessedBulletin
	if err := s.db.Store().Find(&markers, nil); err != nil {
		return nil, fmt.Errorf("failed to load processed bulletins: %w", err)
	}

	urls := make(map[string]struct{}, len(records)+len(markers))
	for _, r := range records {
		if r.URL != "" {
			urls[r.URL] = struct{}{}
		}
	}
	for _, m := range markers {
		urls[m.URL] = struct{}{}
	}
	return urls, nil
}

// InsertQuarters writes records in the given order, keyed by source URL.
// A record whose URL is stored, or whose (symbol, year, quarter) is already
// held by another URL, is a duplicate. The second case leaves a
// ProcessedBulletin marker so the URL is not offered again.
func (s *QuarterStorage) InsertQuarters(ctx context.Context, records []*models.ReconciledQuarter) (int, int, error) {
	inserted, duplicates := 0, 0

	for start := 0; start < len(records); start += quarterBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, duplicates, err
		}

		end := start + quarterBatchSize
		if end > len(records) {
			end = len(records)
		}

		ins, dup, err := s.insertBatch(records[start:end])
		if errors.Is(err, badger.ErrConflict) {
			// A concurrent writer touched one of our keys; replay once so
			// the keys it wrote are seen as duplicates.
			ins, dup, err = s.insertBatch(records[start:end])
		}
		if err != nil {
			return inserted, duplicates, fmt.Errorf("failed to insert quarters: %w", err)
		}
		inserted += ins
		duplicates += dup
	}

	return inserted, duplicates, nil
}

type quarterIdentity struct {
	symbol  string
	year    int
	quarter models.Quarter
}

func (s *QuarterStorage) insertBatch(batch []*models.ReconciledQuarter) (int, int, error) {
	inserted, duplicates := 0, 0

	err := s.db.Store().Badger().Update(func(tx *badger.Txn) error {
		inserted, duplicates = 0, 0
		// identities written by this transaction
		held := make(map[quarterIdentity]string, len(batch))

		for _, record := range batch {
			if record.URL == "" {
				return fmt.Errorf("quarter %s %d %s has no source url", record.Symbol, record.Year, record.Quarter)
			}

			var stored models.ReconciledQuarter
			err := s.db.Store().TxGet(tx, record.URL, &stored)
			if err == nil {
				duplicates++
				s.logger.Debug().
					Str("url", record.URL).
					Str("symbol", record.Symbol).
					Msg("Quarter already stored, skipping")
				continue
			}
			if !errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}

			id := quarterIdentity{symbol: record.Symbol, year: record.Year, quarter: record.Quarter}
			keptURL, ok := held[id]
			if !ok {
				keptURL, err = s.txHolder(tx, id)
				if err != nil {
					return err
				}
			}
			if keptURL != "" {
				duplicates++
				if err := s.txMarkProcessed(tx, record, keptURL); err != nil {
					return err
				}
				continue
			}

			record.SeriesKey = models.BuildSeriesKey(record.Symbol, record.Year, record.Datetime)
			if err := s.db.Store().TxInsert(tx, record.URL, record); err != nil {
				return err
			}
			held[id] = record.URL
			inserted++
		}
		return nil
	})

	return inserted, duplicates, err
}

// txHolder returns the URL already stored for id, or "" when there is none.
func (s *QuarterStorage) txHolder(tx *badger.Txn, id quarterIdentity) (string, error) {
	var existing []models.ReconciledQuarter
	query := badgerhold.Where("Symbol").Eq(id.symbol).Index("Symbol").
		And("Year").Eq(id.year).
		And("Quarter").Eq(id.quarter).
		Limit(1)
	if err := s.db.Store().TxFind(tx, &existing, query); err != nil {
		return "", err
	}
	if len(existing) == 0 {
		return "", nil
	}
	return existing[0].URL, nil
}

func (s *QuarterStorage) txMarkProcessed(tx *badger.Txn, record *models.ReconciledQuarter, keptURL string) error {
	s.logger.Debug().
		Str("url", record.URL).
		Str("symbol", record.Symbol).
		Int("year", record.Year).
		Str("quarter", string(record.Quarter)).
		Str("kept_url", keptURL).
		Msg("Quarter already held by another bulletin, marking processed")

	return s.db.Store().TxUpsert(tx, record.URL, &models.ProcessedBulletin{
		URL:      record.URL,
		Symbol:   record.Symbol,
		Year:     record.Year,
		Quarter:  record.Quarter,
		KeptURL:  keptURL,
		MarkedAt: time.Now(),
	})
}

func (s *QuarterStorage) GetQuarter(ctx context.Context, url string) (*models.ReconciledQuarter, error) {
	var record models.ReconciledQuarter
	if err := s.db.Store().Get(url, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("quarter %s: %w", url, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quarter: %w", err)
	}
	return &record, nil
}

func (s *QuarterStorage) FindQuarter(ctx context.Context, symbol string, year int, quarter models.Quarter) (*models.ReconciledQuarter, error) {
	var records []models.ReconciledQuarter
	query := badgerhold.Where("Symbol").Eq(symbol).Index("Symbol").
		And("Year").Eq(year).
		And("Quarter").Eq(quarter).
		SortBy("SeriesKey").Reverse().Limit(1)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to find quarter: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("quarter %s %d %s: %w", symbol, year, quarter, models.ErrNotFound)
	}
	return &records[0], nil
}

// ListQuarters returns stored quarters in (Symbol, Year, Datetime) order.
func (s *QuarterStorage) ListQuarters(ctx context.Context, symbols []string) ([]*models.ReconciledQuarter, error) {
	query := badgerhold.Where("SeriesKey").Ne("").Index("SeriesKey")
	if len(symbols) > 0 {
		query = badgerhold.Where("Symbol").In(badgerhold.Slice(symbols)...).Index("Symbol")
	}

	var records []models.ReconciledQuarter
	if err := s.db.Store().Find(&records, query.SortBy("SeriesKey")); err != nil {
		return nil, fmt.Errorf("failed to list quarters: %w", err)
	}
	return toQuarterPointers(records), nil
}

func (s *QuarterStorage) ListQuartersBySymbol(ctx context.Context, symbol string) ([]*models.ReconciledQuarter, error) {
	var records []models.ReconciledQuarter
	query := badgerhold.Where("Symbol").Eq(symbol).Index("Symbol").SortBy("SeriesKey")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list quarters for %s: %w", symbol, err)
	}
	return toQuarterPointers(records), nil
}

func (s *QuarterStorage) CountQuarters(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ReconciledQuarter{}, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func toQuarterPointers(records []models.ReconciledQuarter) []*models.ReconciledQuarter {
	result := make([]*models.ReconciledQuarter, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result
}
