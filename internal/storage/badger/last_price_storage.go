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

// LastPriceStorage implements the LastPriceStorage interface for Badger
type LastPriceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewLastPriceStorage creates a new LastPriceStorage instance
func NewLastPriceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.LastPriceStorage {
	return &LastPriceStorage{
		db:     db,
		logger: logger,
	}
}

func (s *LastPriceStorage) UpsertLastPrice(ctx context.Context, price *models.LastPrice) error {
	if price.Symbol == "" {
		return fmt.Errorf("last price symbol is required")
	}
	price.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(price.Symbol, price); err != nil {
		return fmt.Errorf("failed to save last price: %w", err)
	}
	return nil
}

func (s *LastPriceStorage) GetLastPrice(ctx context.Context, symbol string) (*models.LastPrice, error) {
	var price models.LastPrice
	if err := s.db.Store().Get(symbol, &price); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("last price %s: %w", symbol, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get last price: %w", err)
	}
	return &price, nil
}
