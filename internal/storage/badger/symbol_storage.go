package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// SymbolStorage implements the SymbolStorage interface for Badger
type SymbolStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSymbolStorage creates a new SymbolStorage instance
func NewSymbolStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SymbolStorage {
	return &SymbolStorage{
		db:     db,
		logger: logger,
	}
}

// ListSymbols returns the distinct symbol codes, sorted.
func (s *SymbolStorage) ListSymbols(ctx context.Context) ([]string, error) {
	var symbols []models.Symbol
	if err := s.db.Store().Find(&symbols, nil); err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := seen[sym.Symbol]; ok || sym.Symbol == "" {
			continue
		}
		seen[sym.Symbol] = struct{}{}
		result = append(result, sym.Symbol)
	}
	sort.Strings(result)
	return result, nil
}

func (s *SymbolStorage) SaveSymbols(ctx context.Context, symbols ...*models.Symbol) error {
	for _, sym := range symbols {
		sym.Symbol = strings.ToUpper(strings.TrimSpace(sym.Symbol))
		if sym.Symbol == "" {
			return fmt.Errorf("symbol is required")
		}
		if err := s.db.Store().Upsert(sym.Symbol, sym); err != nil {
			return fmt.Errorf("failed to save symbol %s: %w", sym.Symbol, err)
		}
	}
	return nil
}
