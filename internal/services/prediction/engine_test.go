package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/storage/badger"
)

func TestPredict(t *testing.T) {
	tests := []struct {
		name          string
		prev, cur     float64
		close         float64
		wantClose     float64
		wantPredicted float64
		wantErr       error
	}{
		{name: "equal eps", prev: 1, cur: 1, close: 20, wantClose: 20, wantPredicted: 30},
		{name: "zero sum", prev: 0, cur: 0, close: 20, wantErr: ErrZeroDenominator},
		{name: "opposite signs cancel", prev: 0.5, cur: -0.5, close: 20, wantErr: ErrZeroDenominator},
		{name: "rounded", prev: 0.3, cur: 0.7, close: 12.345, wantClose: 12.35, wantPredicted: 20.99},
		{name: "negative eps", prev: 1, cur: -0.5, close: 10, wantClose: 10, wantPredicted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Predict(tt.prev, tt.cur, tt.close)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClose, got.ClosePrice)
			assert.Equal(t, tt.wantPredicted, got.PredictPrice)
		})
	}
}

type fixedPrices map[string]float64

func (f fixedPrices) ResolvePrice(ctx context.Context, symbol string, at time.Time) (float64, bool) {
	p, ok := f[symbol]
	return p, ok
}

func newTestPredictions(t *testing.T) interfaces.PredictionStorage {
	t.Helper()
	m, err := badger.NewManager(arbor.NewNoOpLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m.PredictionStorage()
}

func TestService_PredictQuarter(t *testing.T) {
	ctx := context.Background()
	store := newTestPredictions(t)
	svc := NewService(fixedPrices{"ABC": 20}, store, arbor.NewNoOpLogger())

	q := &models.ReconciledQuarter{
		URL:      "https://example.test/ABC/fy",
		Symbol:   "ABC",
		Year:     2023,
		Quarter:  models.Q4,
		PnL:      300,
		EPS:      0.3,
		Datetime: time.Date(2024, 2, 28, 17, 0, 0, 0, time.UTC),
	}

	outcome, err := svc.PredictQuarter(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	record, err := store.GetPrediction(ctx, models.PredictionKey("ABC", 2023, models.Q4, q.Datetime))
	require.NoError(t, err)
	assert.Equal(t, 20.0, record.ClosePrice)
	assert.Equal(t, 30.0, record.PredictPrice)
	assert.Equal(t, q.URL, record.URL)
	assert.Equal(t, 0.3, record.EPS)

	outcome, err = svc.PredictQuarter(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	count, err := store.CountPredictions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_PredictQuarterSkips(t *testing.T) {
	ctx := context.Background()
	store := newTestPredictions(t)
	svc := NewService(fixedPrices{"ABC": 20}, store, arbor.NewNoOpLogger())

	at := time.Date(2024, 2, 28, 17, 0, 0, 0, time.UTC)

	outcome, err := svc.PredictQuarter(ctx, &models.ReconciledQuarter{Symbol: "ABC", Year: 2023, Quarter: models.Q4, Datetime: at})
	require.NoError(t, err)
	assert.Equal(t, OutcomeZeroEPS, outcome)

	outcome, err = svc.PredictQuarter(ctx, &models.ReconciledQuarter{Symbol: "XYZ", Year: 2023, Quarter: models.Q4, EPS: 1, Datetime: at})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoPrice, outcome)

	count, err := store.CountPredictions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
