// Package prices resolves closing prices through a per-symbol cache of the
// daily series held in the document store.
package prices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/interfaces"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/retry"
)

// DefaultBars is the history requested on a cache miss.
const DefaultBars = 5000

// ErrNoPrices is returned when the feed has no bars for a symbol.
var ErrNoPrices = errors.New("no price data")

// Cache serves daily series from the store and fills misses from the feed.
// Concurrent misses for one symbol share a single feed call.
type Cache struct {
	feed   interfaces.PriceFeed
	store  interfaces.PriceCacheStorage
	policy *retry.Policy
	bars   int
	group  singleflight.Group
	logger arbor.ILogger
	now    func() time.Time
}

// NewCache creates a price cache. A nil policy makes a single feed attempt.
func NewCache(feed interfaces.PriceFeed, store interfaces.PriceCacheStorage, policy *retry.Policy, bars int, logger arbor.ILogger) *Cache {
	if policy == nil {
		policy = &retry.Policy{}
	}
	if bars <= 0 {
		bars = DefaultBars
	}
	return &Cache{
		feed:   feed,
		store:  store,
		policy: policy,
		bars:   bars,
		logger: logger,
		now:    time.Now,
	}
}

// ResolvePrice returns the close on the calendar date of at. Lookup and feed
// failures are logged and reported as absent.
func (c *Cache) ResolvePrice(ctx context.Context, symbol string, at time.Time) (float64, bool) {
	series, err := c.Series(ctx, symbol)
	if err != nil {
		c.logger.Warn().
			Str("symbol", symbol).
			Err(err).
			Msg("Price unavailable")
		return 0, false
	}

	close, ok := series.CloseOn(at)
	if !ok {
		c.logger.Debug().
			Str("symbol", symbol).
			Str("date", at.Format("2006-01-02")).
			Msg("No bar on announcement date")
	}
	return close, ok
}

// Latest returns the most recent bar of the symbol's series.
func (c *Cache) Latest(ctx context.Context, symbol string) (models.PriceBar, bool) {
	series, err := c.Series(ctx, symbol)
	if err != nil {
		c.logger.Warn().
			Str("symbol", symbol).
			Err(err).
			Msg("Latest price unavailable")
		return models.PriceBar{}, false
	}
	return series.Latest()
}

// Series returns the cached series, fetching and storing it on a miss.
// Empty feed results are never cached.
func (c *Cache) Series(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	series, err := c.cached(ctx, symbol)
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	v, err, shared := c.group.Do(symbol, func() (interface{}, error) {
		// a flight that finished just before ours may have filled the entry
		if series, err := c.cached(ctx, symbol); err == nil {
			return series, nil
		}
		return c.fetch(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Trace().Str("symbol", symbol).Msg("Shared in-flight price fetch")
	}
	return v.(*models.PriceSeries), nil
}

func (c *Cache) cached(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	series, err := c.store.GetSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("price series %s is empty: %w", symbol, models.ErrNotFound)
	}
	return series, nil
}

func (c *Cache) fetch(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	var bars []models.PriceBar
	err := c.policy.Do(ctx, c.logger, "daily bars "+symbol, func(ctx context.Context) error {
		var err error
		bars, err = c.feed.DailyBars(ctx, symbol, c.bars)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoPrices)
	}

	series := &models.PriceSeries{
		Symbol:    symbol,
		Bars:      bars,
		FetchedAt: c.now(),
	}
	if err := c.store.SaveSeries(ctx, series); err != nil {
		c.logger.Warn().
			Str("symbol", symbol).
			Err(err).
			Msg("Failed to cache price series")
	}

	c.logger.Debug().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Msg("Fetched daily price series")

	return series, nil
}
