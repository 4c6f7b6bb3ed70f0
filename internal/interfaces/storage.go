package interfaces

import (
	"context"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// NewsStorage - read access to harvested exchange news
type NewsStorage interface {
	// ListFinancialStatements returns news items whose headline carries the F45 tag.
	// When symbols is non-empty only those symbols are returned.
	ListFinancialStatements(ctx context.Context, symbols []string) ([]*models.NewsDocument, error)
	GetNews(ctx context.Context, url string) (*models.NewsDocument, error)
	SaveNews(ctx context.Context, docs ...*models.NewsDocument) error
	CountNews(ctx context.Context) (int, error)
}

// SymbolStorage - the exchange symbol catalog
type SymbolStorage interface {
	ListSymbols(ctx context.Context) ([]string, error)
	SaveSymbols(ctx context.Context, symbols ...*models.Symbol) error
}

// QuarterStorage - persisted reconciled quarters, keyed by source URL
type QuarterStorage interface {
	// ProcessedURLs returns every source URL already stored or marked processed.
	ProcessedURLs(ctx context.Context) (map[string]struct{}, error)
	// InsertQuarters inserts records in order. A stored URL, or a
	// (symbol, year, quarter) already held by another URL, is skipped and
	// reported as a duplicate; the latter URL is marked processed.
	InsertQuarters(ctx context.Context, records []*models.ReconciledQuarter) (inserted int, duplicates int, err error)
	GetQuarter(ctx context.Context, url string) (*models.ReconciledQuarter, error)
	// FindQuarter returns the latest record for (symbol, year, quarter).
	FindQuarter(ctx context.Context, symbol string, year int, quarter models.Quarter) (*models.ReconciledQuarter, error)
	ListQuarters(ctx context.Context, symbols []string) ([]*models.ReconciledQuarter, error)
	// ListQuartersBySymbol returns one symbol's series in (Year, Datetime) order.
	ListQuartersBySymbol(ctx context.Context, symbol string) ([]*models.ReconciledQuarter, error)
	CountQuarters(ctx context.Context) (int, error)
}

// PredictionStorage - predicted price records, insert-only
type PredictionStorage interface {
	// InsertPrediction returns models.ErrDuplicate when the key exists.
	InsertPrediction(ctx context.Context, record *models.PredictedPriceRecord) error
	GetPrediction(ctx context.Context, key string) (*models.PredictedPriceRecord, error)
	ListPredictions(ctx context.Context, symbol string) ([]*models.PredictedPriceRecord, error)
	ListPredictedSymbols(ctx context.Context) ([]string, error)
	CountPredictions(ctx context.Context) (int, error)
}

// PriceCacheStorage - one historical bar series per symbol
type PriceCacheStorage interface {
	// GetSeries returns models.ErrNotFound on a cache miss.
	GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)
	SaveSeries(ctx context.Context, series *models.PriceSeries) error
}

// LastPriceStorage - latest close per symbol
type LastPriceStorage interface {
	UpsertLastPrice(ctx context.Context, price *models.LastPrice) error
	GetLastPrice(ctx context.Context, symbol string) (*models.LastPrice, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	NewsStorage() NewsStorage
	SymbolStorage() SymbolStorage
	QuarterStorage() QuarterStorage
	PredictionStorage() PredictionStorage
	PriceCacheStorage() PriceCacheStorage
	LastPriceStorage() LastPriceStorage
	Close() error
}
