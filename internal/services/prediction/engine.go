// Package prediction derives a forward price from quarterly EPS and the close
// on the announcement date.
package prediction

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrZeroDenominator is returned when previous and current EPS sum to zero.
var ErrZeroDenominator = errors.New("eps sum is zero")

// Prediction is the result of one forward price calculation.
type Prediction struct {
	ClosePrice   float64
	PredictPrice float64
}

// Predict computes close + current * close / (previous + current), with both
// prices rounded to 2 decimal places.
func Predict(previousEPS, currentEPS, close float64) (Prediction, error) {
	sum := decimal.NewFromFloat(previousEPS).Add(decimal.NewFromFloat(currentEPS))
	if sum.IsZero() {
		return Prediction{}, ErrZeroDenominator
	}

	closePrice := decimal.NewFromFloat(close)
	pricePerSumEPS := closePrice.Div(sum)
	predicted := closePrice.Add(decimal.NewFromFloat(currentEPS).Mul(pricePerSumEPS))

	return Prediction{
		ClosePrice:   closePrice.Round(2).InexactFloat64(),
		PredictPrice: predicted.Round(2).InexactFloat64(),
	}, nil
}
