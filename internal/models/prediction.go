package models

import (
	"fmt"
	"time"
)

// PredictedPriceRecord is a forward price derived from a reconciled quarter and
// the close on its announcement date. Records are inserted once and never replaced.
type PredictedPriceRecord struct {
	Symbol       string    `json:"Symbol" badgerhold:"index"`
	Year         int       `json:"Year"`
	Quarter      Quarter   `json:"Quarter"`
	Datetime     time.Time `json:"Datetime"`
	ClosePrice   float64   `json:"ClosePrice"`
	PredictPrice float64   `json:"PredictPrice"`
	URL          string    `json:"Url"`
	EPS          float64   `json:"EPS"`
	CreatedAt    time.Time `json:"created_at"`
}

// Key returns the (symbol, year, quarter, datetime) identity of the record.
func (p *PredictedPriceRecord) Key() string {
	return PredictionKey(p.Symbol, p.Year, p.Quarter, p.Datetime)
}

// PredictionKey builds the store key for a predicted price.
func PredictionKey(symbol string, year int, quarter Quarter, datetime time.Time) string {
	return fmt.Sprintf("%s|%d|%s|%s", symbol, year, quarter, datetime.UTC().Format(time.RFC3339Nano))
}
