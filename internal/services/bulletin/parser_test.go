package bulletin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

const quarterlyBulletin = `<html><body>
<div class="header">Quarter 1 navigation</div>
<div class="raw-html">
Financial Statement Quarter 3 (F45)
Ended 30 September (In thousands)
Quarter 3 2023 2022
Profit (Loss) 300 200
EPS (Baht) 0.30 0.20
</div>
<div class="raw-html">Quarter 2 2021 Profit 1 2</div>
</body></html>`

const annualBulletin = `<html><body><div class="raw-html">
Yearly 12 Months
Ended 31 December
2023 2022
Net Profit (Loss) (1,234.5) 89
EPS (0.12) 0.05
</div></body></html>`

func newsDoc(url string) *models.NewsDocument {
	return &models.NewsDocument{
		URL:      url,
		Symbol:   "ABC",
		Headline: "Financial Statement (F45)",
		Datetime: "2023-11-14T17:30:00",
	}
}

func TestParse_Quarterly(t *testing.T) {
	p := NewParser("", arbor.NewNoOpLogger())

	record, err := p.Parse(quarterlyBulletin, newsDoc("https://example.test/q3"))
	require.NoError(t, err)

	assert.Equal(t, "ABC", record.Symbol)
	assert.Equal(t, "https://example.test/q3", record.SourceURL)
	assert.Equal(t, "Quarter 3", record.QuarterLabel)
	assert.Equal(t, []int{2023, 2022}, record.Years)
	assert.Equal(t, []float64{300, 200}, record.PnL)
	assert.True(t, record.HasEPS)
	assert.Equal(t, []float64{0.30, 0.20}, record.EPS)
	assert.Equal(t, time.Date(2023, 11, 14, 17, 30, 0, 0, time.UTC), record.Datetime)
	assert.Equal(t, 2023, record.FiscalYear())
}

func TestParse_AnnualNegative(t *testing.T) {
	p := NewParser(DefaultContentSelector, arbor.NewNoOpLogger())

	record, err := p.Parse(annualBulletin, newsDoc("https://example.test/fy"))
	require.NoError(t, err)

	assert.Equal(t, models.LabelAnnual, record.QuarterLabel)
	assert.Equal(t, models.Q4, models.QuarterFromLabel(record.QuarterLabel))
	assert.Equal(t, []int{2023, 2022}, record.Years)
	assert.Equal(t, []float64{-1234.5, 89}, record.PnL)
	assert.Equal(t, []float64{-0.12, 0.05}, record.EPS)
}

func TestParse_Deterministic(t *testing.T) {
	p := NewParser("", arbor.NewNoOpLogger())
	doc := newsDoc("https://example.test/q3")

	first, err := p.Parse(quarterlyBulletin, doc)
	require.NoError(t, err)
	second, err := p.Parse(quarterlyBulletin, doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_InvalidDatetime(t *testing.T) {
	p := NewParser("", arbor.NewNoOpLogger())
	doc := newsDoc("https://example.test/bad")
	doc.Datetime = "14/11/2023"

	_, err := p.Parse(quarterlyBulletin, doc)
	assert.Error(t, err)
}

func TestParse_MissingContainer(t *testing.T) {
	p := NewParser("", arbor.NewNoOpLogger())

	record, err := p.Parse(`<html><body><p>Quarter 2 2023 Profit 5</p></body></html>`, newsDoc("u"))
	require.NoError(t, err)

	assert.Empty(t, record.Years)
	assert.Empty(t, record.PnL)
	assert.False(t, record.HasEPS)
	assert.Equal(t, models.LabelAnnual, record.QuarterLabel)
}

func TestParseText_EPSWindow(t *testing.T) {
	p := NewParser("", arbor.NewNoOpLogger())

	t.Run("no EPS anchor", func(t *testing.T) {
		_, _, eps, hasEPS := p.ParseText("Quarter 1 2023 2022 Profit 10 20", "u")
		assert.False(t, hasEPS)
		assert.Nil(t, eps)
	})

	t.Run("EPS anchor without values", func(t *testing.T) {
		years, pnl, eps, hasEPS := p.ParseText("Quarter 1 2023 2022 Profit 10 20 EPS", "u")
		assert.Equal(t, []int{2023, 2022}, years)
		assert.Equal(t, []float64{10, 20}, pnl)
		assert.True(t, hasEPS)
		assert.Equal(t, []float64{0}, eps)
	})

	t.Run("Increase preferred over Profit", func(t *testing.T) {
		years, pnl, _, _ := p.ParseText("2023 2022 Profit 1 2 Increase 30 40", "u")
		assert.Equal(t, []int{2023, 2022}, years)
		assert.Equal(t, []float64{30, 40}, pnl)
	})
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Quarter 1 2023", "Quarter 1"},
		{"Quarter 2 then Quarter 3", "Quarter 2"},
		{"Quarter 3", "Quarter 3"},
		{"Quarter 3 12 Months", models.LabelAnnual},
		{"Yearly statement", models.LabelAnnual},
		{"Quarter 4", models.LabelAnnual},
		{"", models.LabelAnnual},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodLabel(tt.content))
		})
	}
}
