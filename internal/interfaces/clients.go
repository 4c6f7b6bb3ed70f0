package interfaces

import (
	"context"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// PriceFeed - upstream source of daily bars
type PriceFeed interface {
	// DailyBars returns up to limit of the most recent bars, oldest first.
	DailyBars(ctx context.Context, symbol string, limit int) ([]models.PriceBar, error)
}

// BulletinFetcher - retrieves the HTML body of a bulletin
type BulletinFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
