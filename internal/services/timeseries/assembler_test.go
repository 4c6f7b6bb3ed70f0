package timeseries

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

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	m, err := badger.NewManager(arbor.NewNoOpLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// recordsByURL stands in for the bulletin service on backfill.
type recordsByURL map[string]*models.QuarterRecord

func (r recordsByURL) Process(ctx context.Context, doc *models.NewsDocument) (*models.QuarterRecord, error) {
	return r[doc.URL], nil
}

func TestAssembler_AssembleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	a := NewAssembler(store.QuarterStorage(), nil, nil, arbor.NewNoOpLogger())

	batch := []*models.QuarterRecord{q3Record("ABC", 900, 0.9), annualRecord("ABC", 1200, 1.2)}

	first, err := a.Assemble(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Zero(t, first.Duplicates)

	second, err := a.Assemble(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 2, second.Duplicates)

	count, err := store.QuarterStorage().CountQuarters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	series, err := store.QuarterStorage().ListQuartersBySymbol(ctx, "ABC")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, models.Q3, series[0].Quarter)
	assert.Equal(t, models.Q4, series[1].Quarter)
	assert.Equal(t, 300.0, series[1].PnL)
}

func TestAssembler_Pending(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	a := NewAssembler(store.QuarterStorage(), nil, nil, arbor.NewNoOpLogger())

	_, err := a.Assemble(ctx, []*models.QuarterRecord{q3Record("ABC", 900, 0.9)})
	require.NoError(t, err)

	docs := []*models.NewsDocument{
		{URL: "https://example.test/ABC/q3"},
		{URL: "https://example.test/ABC/fy"},
		{URL: "https://example.test/ABC/fy"},
	}
	pending, err := a.Pending(ctx, docs)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "https://example.test/ABC/fy", pending[0].URL)
}

func TestAssembler_BackfillsStoredQ3(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	q3 := q3Record("ABC", 900, 0.9)
	require.NoError(t, store.NewsStorage().SaveNews(ctx, &models.NewsDocument{
		URL: q3.SourceURL, Symbol: "ABC", Headline: "Quarter 3 (F45)", Datetime: "2023-11-14T17:00:00",
	}))

	a := NewAssembler(store.QuarterStorage(), store.NewsStorage(), recordsByURL{q3.SourceURL: q3}, arbor.NewNoOpLogger())

	_, err := a.Assemble(ctx, []*models.QuarterRecord{q3})
	require.NoError(t, err)

	result, err := a.Assemble(ctx, []*models.QuarterRecord{annualRecord("ABC", 1200, 1.2)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Backfilled)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 300.0, result.Records[0].PnL)
	assert.Equal(t, 0.3, result.Records[0].EPS)
}

func TestAssembler_BackfillMissingQ3(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	a := NewAssembler(store.QuarterStorage(), store.NewsStorage(), recordsByURL{}, arbor.NewNoOpLogger())

	result, err := a.Assemble(ctx, []*models.QuarterRecord{annualRecord("ABC", 1200, 1.2)})
	require.NoError(t, err)
	assert.Zero(t, result.Backfilled)
	assert.Equal(t, 1200.0, result.Records[0].PnL)
}

func TestFlatten_Order(t *testing.T) {
	records := []*models.QuarterRecord{
		annualRecord("XYZ", 1, 0),
		q3Record("ABC", 0, 0),
		annualRecord("ABC", 2, 0),
		{Symbol: "ABC", Years: []int{2022}, QuarterLabel: "Quarter 1", SourceURL: "abc-2022", Datetime: fyPublished},
	}

	flat := Flatten(Reconcile(records))
	require.Len(t, flat, 4)

	var got []string
	for _, r := range flat {
		got = append(got, r.Symbol+"-"+string(r.Quarter))
	}
	assert.Equal(t, []string{"ABC-Q1", "ABC-Q3", "ABC-Q4", "XYZ-Q4"}, got)
	assert.Equal(t, 2022, flat[0].Year)
}

func TestAssembler_SupersededBulletinStaysProcessedAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	original := annualRecord("ABC", 1200, 1.2)
	amended := annualRecord("ABC", 1250, 1.25)
	amended.SourceURL = "https://example.test/ABC/fy-amended"
	amended.Datetime = fyPublished.Add(24 * time.Hour)

	processor := recordsByURL{original.SourceURL: original, amended.SourceURL: amended}
	docs := []*models.NewsDocument{{URL: original.SourceURL}, {URL: amended.SourceURL}}
	a := NewAssembler(store.QuarterStorage(), nil, processor, arbor.NewNoOpLogger())

	run := func() (int, *Result) {
		pending, err := a.Pending(ctx, docs)
		require.NoError(t, err)
		var records []*models.QuarterRecord
		for _, doc := range pending {
			record, err := processor.Process(ctx, doc)
			require.NoError(t, err)
			records = append(records, record)
		}
		result, err := a.Assemble(ctx, records)
		require.NoError(t, err)
		return len(pending), result
	}

	pending, first := run()
	assert.Equal(t, 2, pending)
	assert.Equal(t, 1, first.Inserted)
	assert.Equal(t, 1, first.Duplicates)

	for i := 0; i < 2; i++ {
		pending, again := run()
		assert.Zero(t, pending)
		assert.Zero(t, again.Inserted)
	}

	series, err := store.QuarterStorage().ListQuartersBySymbol(ctx, "ABC")
	require.NoError(t, err)
	require.Len(t, series, 1, "one Q4 per (symbol, year)")
	assert.Equal(t, amended.SourceURL, series[0].URL)
	assert.Equal(t, 1250.0, series[0].PnL)
}

func TestAssembler_LaterRunKeepsStoredQuarter(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	a := NewAssembler(store.QuarterStorage(), nil, nil, arbor.NewNoOpLogger())

	_, err := a.Assemble(ctx, []*models.QuarterRecord{annualRecord("ABC", 1200, 1.2)})
	require.NoError(t, err)

	amended := annualRecord("ABC", 1250, 1.25)
	amended.SourceURL = "https://example.test/ABC/fy-amended"
	amended.Datetime = fyPublished.Add(24 * time.Hour)

	result, err := a.Assemble(ctx, []*models.QuarterRecord{amended})
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, 1, result.Duplicates)

	count, err := store.QuarterStorage().CountQuarters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	pending, err := a.Pending(ctx, []*models.NewsDocument{{URL: amended.SourceURL}})
	require.NoError(t, err)
	assert.Empty(t, pending)
}
