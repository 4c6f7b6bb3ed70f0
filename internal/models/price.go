package models

import "time"

// PriceBar is one daily OHLCV bar from the price feed.
type PriceBar struct {
	Date          time.Time `json:"datetime"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// PriceSeries is the cached historical daily series for one symbol.
// Bars are ascending by date.
type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Bars      []PriceBar `json:"data"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// CloseOn returns the close of the last bar whose calendar date equals the
// calendar date of at.
func (s *PriceSeries) CloseOn(at time.Time) (float64, bool) {
	y, m, d := at.Date()
	found := false
	var close float64
	for _, bar := range s.Bars {
		by, bm, bd := bar.Date.Date()
		if by == y && bm == m && bd == d {
			close = bar.Close
			found = true
		}
	}
	return close, found
}

// Latest returns the last bar of the series.
func (s *PriceSeries) Latest() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// LastPrice is the most recent known close for a symbol.
type LastPrice struct {
	Symbol    string    `json:"Symbol"`
	Price     float64   `json:"LastPrice"`
	Date      time.Time `json:"Date"`
	UpdatedAt time.Time `json:"updated_at"`
}
