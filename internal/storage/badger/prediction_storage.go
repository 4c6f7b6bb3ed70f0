package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// PredictionStorage implements the PredictionStorage interface for Badger
type PredictionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPredictionStorage creates a new PredictionStorage instance
func NewPredictionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PredictionStorage {
	return &PredictionStorage{
		db:     db,
		logger: logger,
	}
}

// InsertPrediction stores a record under (symbol, year, quarter, datetime).
// An existing record is never overwritten.
func (s *PredictionStorage) InsertPrediction(ctx context.Context, record *models.PredictedPriceRecord) error {
	if record.Symbol == "" {
		return fmt.Errorf("prediction symbol is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	key := record.Key()
	err := s.db.Store().Insert(key, record)
	if errors.Is(err, badger.ErrConflict) {
		// Lost a race with another worker; the retry resolves to ErrKeyExists
		err = s.db.Store().Insert(key, record)
	}
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("prediction %s: %w", key, models.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

func (s *PredictionStorage) GetPrediction(ctx context.Context, key string) (*models.PredictedPriceRecord, error) {
	var record models.PredictedPriceRecord
	if err := s.db.Store().Get(key, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("prediction %s: %w", key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return &record, nil
}

// ListPredictions returns predictions for a symbol, or all when symbol is empty.
func (s *PredictionStorage) ListPredictions(ctx context.Context, symbol string) ([]*models.PredictedPriceRecord, error) {
	var query *badgerhold.Query
	if symbol != "" {
		query = badgerhold.Where("Symbol").Eq(symbol).Index("Symbol")
	}

	var records []models.PredictedPriceRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Symbol != records[j].Symbol {
			return records[i].Symbol < records[j].Symbol
		}
		return records[i].Datetime.Before(records[j].Datetime)
	})

	result := make([]*models.PredictedPriceRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

// ListPredictedSymbols returns the distinct symbols that have a prediction.
func (s *PredictionStorage) ListPredictedSymbols(ctx context.Context) ([]string, error) {
	var records []models.PredictedPriceRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list predicted symbols: %w", err)
	}

	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		symbols = append(symbols, r.Symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *PredictionStorage) CountPredictions(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.PredictedPriceRecord{}, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
