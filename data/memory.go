package data

import (
	"context"
	"sort"
	"time"

	"github.com/sutralabs/sutra/models"
)

// MemoryProvider serves bars from memory. The bar slices are sorted once
// at construction and never mutated afterwards, so concurrent reads need
// no locking.
type MemoryProvider struct {
	bars map[string][]models.Bar
	days []time.Time
}

// NewMemoryProvider indexes the given bars by ticker. The trading
// calendar is the union of all bar dates.
func NewMemoryProvider(bars []models.Bar) *MemoryProvider {
	byTicker := make(map[string][]models.Bar)
	daySet := make(map[time.Time]struct{})
	for _, b := range bars {
		byTicker[b.Ticker] = append(byTicker[b.Ticker], b)
		daySet[models.Day(b.Time())] = struct{}{}
	}
	for ticker := range byTicker {
		rows := byTicker[ticker]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
	}
	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return &MemoryProvider{bars: byTicker, days: days}
}

func (p *MemoryProvider) GetOHLCV(_ context.Context, tickers []string, start, end time.Time) ([]models.Bar, error) {
	lo, hi := models.ToTimestamp(models.Day(start)), models.ToTimestamp(models.Day(end).Add(24*time.Hour))
	var out []models.Bar
	for _, ticker := range tickers {
		for _, b := range p.bars[ticker] {
			if b.Timestamp >= lo && b.Timestamp < hi {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (p *MemoryProvider) TradingDays(_ context.Context, start, end time.Time) ([]time.Time, error) {
	lo, hi := models.Day(start), models.Day(end)
	var out []time.Time
	for _, d := range p.days {
		if !d.Before(lo) && !d.After(hi) {
			out = append(out, d)
		}
	}
	return out, nil
}
