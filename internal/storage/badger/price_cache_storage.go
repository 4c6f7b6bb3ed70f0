package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// PriceCacheStorage implements the PriceCacheStorage interface for Badger
type PriceCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPriceCacheStorage creates a new PriceCacheStorage instance
func NewPriceCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PriceCacheStorage {
	return &PriceCacheStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PriceCacheStorage) GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	var series models.PriceSeries
	if err := s.db.Store().Get(symbol, &series); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("price series %s: %w", symbol, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price series: %w", err)
	}
	return &series, nil
}

// SaveSeries upserts the full series for a symbol.
func (s *PriceCacheStorage) SaveSeries(ctx context.Context, series *models.PriceSeries) error {
	if series.Symbol == "" {
		return fmt.Errorf("price series symbol is required")
	}
	if series.FetchedAt.IsZero() {
		series.FetchedAt = time.Now()
	}
	if err := s.db.Store().Upsert(series.Symbol, series); err != nil {
		return fmt.Errorf("failed to save price series: %w", err)
	}
	return nil
}
