package bulletin

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// Service fetches and parses F45 bulletins.
type Service struct {
	parser  *Parser
	fetcher interfaces.BulletinFetcher
	logger  arbor.ILogger
}

// NewService creates a bulletin service.
func NewService(parser *Parser, fetcher interfaces.BulletinFetcher, logger arbor.ILogger) *Service {
	return &Service{
		parser:  parser,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Process parses one news item. Items without the F45 tag return (nil, nil).
// A stored HTML body is used when present; otherwise the page is fetched.
func (s *Service) Process(ctx context.Context, doc *models.NewsDocument) (*models.QuarterRecord, error) {
	if doc == nil || !doc.IsFinancialStatement() {
		return nil, nil
	}

	html := doc.HTMLBody
	if html == "" {
		if s.fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher configured for %s", ErrFetchFailed, doc.URL)
		}
		body, err := s.fetcher.Fetch(ctx, doc.URL)
		if err != nil {
			return nil, err
		}
		html = body
	}

	record, err := s.parser.Parse(html, doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.URL, err)
	}

	s.logger.Debug().
		Str("symbol", record.Symbol).
		Str("url", record.SourceURL).
		Str("period", record.QuarterLabel).
		Int("years", len(record.Years)).
		Bool("has_eps", record.HasEPS).
		Msg("Parsed bulletin")

	return record, nil
}
