package strategy

import (
	"time"

	talib "github.com/markcheno/go-talib"

	"github.com/sutralabs/sutra/models"
)

// RSIReversion buys oversold tickers and exits once the RSI normalizes.
type RSIReversion struct {
	Period        int
	BuyThreshold  float64
	SellThreshold float64
	Fraction      float64
}

func NewRSIReversion(params models.ParamSet) *RSIReversion {
	return &RSIReversion{
		Period:        params.Int("period", 14),
		BuyThreshold:  params.Float("buy_threshold", 30),
		SellThreshold: params.Float("sell_threshold", 55),
		Fraction:      params.Float("fraction", 0.25),
	}
}

func (s *RSIReversion) OnDate(_ time.Time, snap *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error) {
	var intents []models.OrderIntent
	for _, ticker := range snap.Tickers() {
		closes := snap.Closes(ticker)
		if len(closes) <= s.Period+1 {
			continue
		}
		rsi := talib.Rsi(closes, s.Period)
		last := rsi[len(rsi)-1]

		switch {
		case last < s.BuyThreshold && !portfolio.HasPosition(ticker):
			intents = append(intents, models.OrderIntent{
				Ticker: ticker, Side: models.Buy, Fraction: s.Fraction,
			})
		case last > s.SellThreshold && portfolio.HasPosition(ticker):
			intents = append(intents, models.OrderIntent{
				Ticker: ticker, Side: models.Sell, Fraction: 1,
			})
		}
	}
	return intents, nil
}
