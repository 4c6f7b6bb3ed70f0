package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	news       interfaces.NewsStorage
	symbol     interfaces.SymbolStorage
	quarter    interfaces.QuarterStorage
	prediction interfaces.PredictionStorage
	priceCache interfaces.PriceCacheStorage
	lastPrice  interfaces.LastPriceStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:         db,
		news:       NewNewsStorage(db, logger),
		symbol:     NewSymbolStorage(db, logger),
		quarter:    NewQuarterStorage(db, logger),
		prediction: NewPredictionStorage(db, logger),
		priceCache: NewPriceCacheStorage(db, logger),
		lastPrice:  NewLastPriceStorage(db, logger),
		logger:     logger,
	}
}

// NewsStorage returns the News storage interface
func (m *Manager) NewsStorage() interfaces.NewsStorage {
	return m.news
}

// SymbolStorage returns the Symbol storage interface
func (m *Manager) SymbolStorage() interfaces.SymbolStorage {
	return m.symbol
}

// QuarterStorage returns the Quarter storage interface
func (m *Manager) QuarterStorage() interfaces.QuarterStorage {
	return m.quarter
}

// PredictionStorage returns the Prediction storage interface
func (m *Manager) PredictionStorage() interfaces.PredictionStorage {
	return m.prediction
}

// PriceCacheStorage returns the PriceCache storage interface
func (m *Manager) PriceCacheStorage() interfaces.PriceCacheStorage {
	return m.priceCache
}

// LastPriceStorage returns the LastPrice storage interface
func (m *Manager) LastPriceStorage() interfaces.LastPriceStorage {
	return m.lastPrice
}

// Close closes the database connection
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing Badger storage manager")
	return m.db.Close()
}
