package badger

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

var financialStatementPattern = regexp.MustCompile(regexp.QuoteMeta(models.FinancialStatementTag))

// NewsStorage implements the NewsStorage interface for Badger
type NewsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewNewsStorage creates a new NewsStorage instance
func NewNewsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.NewsStorage {
	return &NewsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *NewsStorage) ListFinancialStatements(ctx context.Context, symbols []string) ([]*models.NewsDocument, error) {
	query := badgerhold.Where("Headline").RegExp(financialStatementPattern)
	if len(symbols) > 0 {
		query = query.And("Symbol").In(badgerhold.Slice(symbols)...)
	}

	var docs []models.NewsDocument
	if err := s.db.Store().Find(&docs, query.SortBy("Symbol", "Datetime")); err != nil {
		return nil, fmt.Errorf("failed to list financial statements: %w", err)
	}

	result := make([]*models.NewsDocument, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *NewsStorage) GetNews(ctx context.Context, url string) (*models.NewsDocument, error) {
	var doc models.NewsDocument
	if err := s.db.Store().Get(url, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("news %s: %w", url, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get news: %w", err)
	}
	return &doc, nil
}

// SaveNews upserts news items keyed by URL.
func (s *NewsStorage) SaveNews(ctx context.Context, docs ...*models.NewsDocument) error {
	for _, doc := range docs {
		if doc.URL == "" {
			return fmt.Errorf("news URL is required")
		}
		if err := s.db.Store().Upsert(doc.URL, doc); err != nil {
			return fmt.Errorf("failed to save news %s: %w", doc.URL, err)
		}
	}
	return nil
}

func (s *NewsStorage) CountNews(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.NewsDocument{}, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
