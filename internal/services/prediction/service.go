package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// PriceResolver returns the close of a symbol on a given calendar date.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, symbol string, at time.Time) (float64, bool)
}

// Outcome classifies one PredictQuarter call.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
	OutcomeNoPrice
	OutcomeZeroEPS
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeNoPrice:
		return "no_price"
	case OutcomeZeroEPS:
		return "zero_eps"
	}
	return "unknown"
}

// Service turns reconciled quarters into persisted predicted prices.
type Service struct {
	prices      PriceResolver
	predictions interfaces.PredictionStorage
	logger      arbor.ILogger
	now         func() time.Time
}

// NewService creates a prediction service.
func NewService(prices PriceResolver, predictions interfaces.PredictionStorage, logger arbor.ILogger) *Service {
	return &Service{
		prices:      prices,
		predictions: predictions,
		logger:      logger,
		now:         time.Now,
	}
}

// PredictQuarter predicts and stores one quarter. A record already stored
// under the same key is left untouched and reported as OutcomeDuplicate.
// The quarter's own EPS is used as both the previous and current value.
func (s *Service) PredictQuarter(ctx context.Context, q *models.ReconciledQuarter) (Outcome, error) {
	key := models.PredictionKey(q.Symbol, q.Year, q.Quarter, q.Datetime)
	if _, err := s.predictions.GetPrediction(ctx, key); err == nil {
		return OutcomeDuplicate, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return 0, err
	}

	close, ok := s.prices.ResolvePrice(ctx, q.Symbol, q.Datetime)
	if !ok {
		return OutcomeNoPrice, nil
	}

	p, err := Predict(q.EPS, q.EPS, close)
	if errors.Is(err, ErrZeroDenominator) {
		s.logger.Debug().
			Str("symbol", q.Symbol).
			Int("year", q.Year).
			Str("quarter", string(q.Quarter)).
			Msg("Zero EPS, skipping prediction")
		return OutcomeZeroEPS, nil
	}
	if err != nil {
		return 0, err
	}

	record := &models.PredictedPriceRecord{
		Symbol:       q.Symbol,
		Year:         q.Year,
		Quarter:      q.Quarter,
		Datetime:     q.Datetime,
		ClosePrice:   p.ClosePrice,
		PredictPrice: p.PredictPrice,
		URL:          q.URL,
		EPS:          q.EPS,
		CreatedAt:    s.now(),
	}

	if err := s.predictions.InsertPrediction(ctx, record); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return OutcomeDuplicate, nil
		}
		return 0, fmt.Errorf("failed to store prediction %s: %w", key, err)
	}

	s.logger.Debug().
		Str("symbol", q.Symbol).
		Int("year", q.Year).
		Str("quarter", string(q.Quarter)).
		Float64("close", p.ClosePrice).
		Float64("predicted", p.PredictPrice).
		Msg("Stored predicted price")

	return OutcomeInserted, nil
}
