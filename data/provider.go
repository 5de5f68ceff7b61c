// Package data supplies historical OHLCV rows and trading calendars to
// the backtest engine. Providers must be safe for concurrent reads:
// optimization trials share a single provider instance.
package data

import (
	"context"
	"time"

	"github.com/sutralabs/sutra/models"
)

// Provider is the historical data dependency of the engine. The engine
// only ever asks for windows ending at the current simulated date, so a
// correct provider can never leak future data into a strategy decision.
type Provider interface {
	// GetOHLCV returns bars for the tickers inside [start, end],
	// ascending by timestamp.
	GetOHLCV(ctx context.Context, tickers []string, start, end time.Time) ([]models.Bar, error)
	// TradingDays returns the ascending trading calendar inside
	// [start, end].
	TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error)
}
