// Package strategy ships reference strategies for the backtest engine.
// They are deliberately small; real research strategies live with their
// owners and only need to satisfy the engine's callback shape.
package strategy

import (
	"time"

	talib "github.com/markcheno/go-talib"

	"github.com/sutralabs/sutra/models"
)

// SMACross goes long when the fast moving average crosses above the slow
// one and exits on the cross back down. Sizing is a fixed fraction of
// equity per entry.
type SMACross struct {
	Fast     int
	Slow     int
	Fraction float64
}

// NewSMACross builds the strategy from an optimizer parameter set, with
// the conventional 10/30 windows as defaults.
func NewSMACross(params models.ParamSet) *SMACross {
	return &SMACross{
		Fast:     params.Int("fast", 10),
		Slow:     params.Int("slow", 30),
		Fraction: params.Float("fraction", 0.25),
	}
}

func (s *SMACross) OnDate(_ time.Time, snap *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error) {
	var intents []models.OrderIntent
	for _, ticker := range snap.Tickers() {
		closes := snap.Closes(ticker)
		if len(closes) <= s.Slow {
			continue
		}
		fast := talib.Sma(closes, s.Fast)
		slow := talib.Sma(closes, s.Slow)
		n := len(closes) - 1

		crossedUp := fast[n] > slow[n] && fast[n-1] <= slow[n-1]
		crossedDown := fast[n] < slow[n] && fast[n-1] >= slow[n-1]

		switch {
		case crossedUp && !portfolio.HasPosition(ticker):
			intents = append(intents, models.OrderIntent{
				Ticker: ticker, Side: models.Buy, Fraction: s.Fraction,
			})
		case crossedDown && portfolio.HasPosition(ticker):
			intents = append(intents, models.OrderIntent{
				Ticker: ticker, Side: models.Sell, Fraction: 1,
			})
		}
	}
	return intents, nil
}
