package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sutralabs/sutra/models"
)

// CachedProvider memoizes an underlying provider behind an RWMutex. It is
// the explicit, process-scoped replacement for module-level data caches:
// construct one, share it across trials, drop it when the sweep ends.
type CachedProvider struct {
	inner Provider

	mu    sync.RWMutex
	bars  map[string][]models.Bar
	days  map[string][]time.Time
}

func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		bars:  make(map[string][]models.Bar),
		days:  make(map[string][]time.Time),
	}
}

func (c *CachedProvider) GetOHLCV(ctx context.Context, tickers []string, start, end time.Time) ([]models.Bar, error) {
	key := queryKey(tickers, start, end)
	c.mu.RLock()
	cached, ok := c.bars[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}
	bars, err := c.inner.GetOHLCV(ctx, tickers, start, end)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.bars[key] = bars
	c.mu.Unlock()
	return bars, nil
}

func (c *CachedProvider) TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	key := queryKey(nil, start, end)
	c.mu.RLock()
	cached, ok := c.days[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}
	days, err := c.inner.TradingDays(ctx, start, end)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.days[key] = days
	c.mu.Unlock()
	return days, nil
}

func queryKey(tickers []string, start, end time.Time) string {
	return fmt.Sprintf("%v|%d|%d", tickers, models.ToTimestamp(start), models.ToTimestamp(end))
}
