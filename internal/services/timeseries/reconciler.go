// Package timeseries reconciles parsed bulletins into a per-symbol quarterly
// series and persists it.
package timeseries

import (
	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// epsPlaces is the rounding applied to every reconciled EPS value.
const epsPlaces = 4

// Reconciled is the reconciler output: symbol -> year -> quarter.
type Reconciled map[string]map[int]map[models.Quarter]models.ReconciledQuarter

type bucketKey struct {
	symbol string
	year   int
}

// Reconciler accumulates parsed records and derives a standalone Q4 from the
// annual figure and the Q3 nine-month cumulative.
type Reconciler struct {
	quarters   map[bucketKey]map[models.Quarter]models.ReconciledQuarter
	stash      map[bucketKey]stashEntry
	superseded []models.ReconciledQuarter
	logger     arbor.ILogger
}

// stashEntry is the nine-month figure carried by a Q3 bulletin's third column.
type stashEntry struct {
	pnl  float64
	eps  float64
	from models.ReconciledQuarter
}

// NewReconciler creates an empty reconciler.
func NewReconciler(logger arbor.ILogger) *Reconciler {
	if logger == nil {
		logger = arbor.NewNoOpLogger()
	}
	return &Reconciler{
		quarters: make(map[bucketKey]map[models.Quarter]models.ReconciledQuarter),
		stash:    make(map[bucketKey]stashEntry),
		logger:   logger,
	}
}

// Add records one parsed bulletin. Records without years are ignored. When
// two records share (symbol, year, quarter) the later publication wins.
func (r *Reconciler) Add(record *models.QuarterRecord) {
	if record == nil || len(record.Years) == 0 {
		return
	}

	key := bucketKey{symbol: record.Symbol, year: record.FiscalYear()}
	q := models.QuarterFromLabel(record.QuarterLabel)

	entry := models.ReconciledQuarter{
		URL:      record.SourceURL,
		Symbol:   record.Symbol,
		Year:     key.year,
		Quarter:  q,
		PnL:      at(record.PnL, 0),
		EPS:      at(record.EPS, 0),
		Datetime: record.Datetime,
	}

	bucket, ok := r.quarters[key]
	if !ok {
		bucket = make(map[models.Quarter]models.ReconciledQuarter)
		r.quarters[key] = bucket
	}

	if existing, ok := bucket[q]; ok {
		if !supersedes(entry, existing) {
			r.drop(entry, existing)
			return
		}
		r.drop(existing, entry)
	}
	bucket[q] = entry

	if q == models.Q3 {
		r.stash[key] = stashEntry{pnl: at(record.PnL, 2), eps: at(record.EPS, 2), from: entry}
	}
}

// AddCumulative contributes only the nine-month cumulative of an already
// persisted Q3 bulletin. It never replaces a Q3 cumulative from Add.
func (r *Reconciler) AddCumulative(record *models.QuarterRecord) {
	if record == nil || len(record.Years) == 0 || models.QuarterFromLabel(record.QuarterLabel) != models.Q3 {
		return
	}
	key := bucketKey{symbol: record.Symbol, year: record.FiscalYear()}
	if _, ok := r.stash[key]; ok {
		return
	}
	r.stash[key] = stashEntry{
		pnl:  at(record.PnL, 2),
		eps:  at(record.EPS, 2),
		from: models.ReconciledQuarter{URL: record.SourceURL, Datetime: record.Datetime},
	}
}

// Result applies Q4 = annual - Q3 cumulative and rounds EPS. The stash is
// not part of the output and the reconciler is left unchanged.
func (r *Reconciler) Result() Reconciled {
	out := make(Reconciled)

	for key, bucket := range r.quarters {
		quarters := make(map[models.Quarter]models.ReconciledQuarter, len(bucket))
		for q, entry := range bucket {
			quarters[q] = entry
		}

		stash, hasStash := r.stash[key]
		q4, hasQ4 := quarters[models.Q4]

		switch {
		case hasStash && hasQ4:
			q4.PnL -= stash.pnl
			q4.EPS = decimal.NewFromFloat(q4.EPS).Sub(decimal.NewFromFloat(stash.eps)).InexactFloat64()
			quarters[models.Q4] = q4
			r.logger.Debug().
				Str("symbol", key.symbol).
				Int("year", key.year).
				Str("annual_url", q4.URL).
				Str("cumulative_url", stash.from.URL).
				Msg("Derived standalone Q4 from annual figure")
		case hasQ4:
			r.logger.Debug().
				Str("symbol", key.symbol).
				Int("year", key.year).
				Msg("Annual figure without Q3 cumulative, stored unadjusted")
		case hasStash:
			r.logger.Debug().
				Str("symbol", key.symbol).
				Int("year", key.year).
				Msg("Q3 cumulative without annual figure")
		}

		years, ok := out[key.symbol]
		if !ok {
			years = make(map[int]map[models.Quarter]models.ReconciledQuarter)
			out[key.symbol] = years
		}
		for q, entry := range quarters {
			entry.EPS = roundEPS(entry.EPS)
			quarters[q] = entry
		}
		years[key.year] = quarters
	}

	return out
}

// HasQuarter reports whether (symbol, year, q) was added.
func (r *Reconciler) HasQuarter(symbol string, year int, q models.Quarter) bool {
	_, ok := r.quarters[bucketKey{symbol: symbol, year: year}][q]
	return ok
}

// Reconcile runs a reconciler over one batch of records.
func Reconcile(records []*models.QuarterRecord) Reconciled {
	r := NewReconciler(nil)
	for _, record := range records {
		r.Add(record)
	}
	return r.Result()
}

// Superseded returns the records that lost to a later publication of the
// same (symbol, year, quarter), in the order they were dropped.
func (r *Reconciler) Superseded() []models.ReconciledQuarter {
	out := make([]models.ReconciledQuarter, len(r.superseded))
	copy(out, r.superseded)
	return out
}

func (r *Reconciler) drop(dropped, kept models.ReconciledQuarter) {
	r.superseded = append(r.superseded, dropped)
	r.logger.Warn().
		Str("symbol", kept.Symbol).
		Int("year", kept.Year).
		Str("quarter", string(kept.Quarter)).
		Str("kept_url", kept.URL).
		Str("dropped_url", dropped.URL).
		Msg("Duplicate quarter in batch, keeping latest publication")
}

// supersedes orders candidates by publication time, then URL.
func supersedes(candidate, existing models.ReconciledQuarter) bool {
	if !candidate.Datetime.Equal(existing.Datetime) {
		return candidate.Datetime.After(existing.Datetime)
	}
	return candidate.URL > existing.URL
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func roundEPS(v float64) float64 {
	return decimal.NewFromFloat(v).Round(epsPlaces).InexactFloat64()
}
