package eodhd

import (
	"time"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// ToPriceBar converts the API row to the cached bar shape.
func (d EODData) ToPriceBar() models.PriceBar {
	return models.PriceBar{
		Date:          d.Date,
		Open:          d.Open,
		High:          d.High,
		Low:           d.Low,
		Close:         d.Close,
		AdjustedClose: d.AdjustedClose,
		Volume:        d.Volume,
	}
}
