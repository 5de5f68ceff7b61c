package sutra

import (
	"time"

	"github.com/sutralabs/sutra/data"
	"github.com/sutralabs/sutra/models"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// syntheticBars builds one bar per day with close = price(i) and a
// constant volume.
func syntheticBars(ticker string, start time.Time, days int, price func(i int) float64) []models.Bar {
	bars := make([]models.Bar, days)
	for i := 0; i < days; i++ {
		p := price(i)
		bars[i] = models.Bar{
			Ticker:    ticker,
			Timestamp: models.ToTimestamp(start.AddDate(0, 0, i)),
			Open:      p,
			High:      p,
			Low:       p,
			Close:     p,
			Volume:    1e6,
		}
	}
	return bars
}

func flatBars(ticker string, start time.Time, days int, price float64) []models.Bar {
	return syntheticBars(ticker, start, days, func(int) float64 { return price })
}

func trendBars(ticker string, start time.Time, days int, base, slope float64) []models.Bar {
	return syntheticBars(ticker, start, days, func(i int) float64 { return base + slope*float64(i) })
}

func rangeOver(start time.Time, days int) models.DateRange {
	return models.DateRange{Start: start, End: start.AddDate(0, 0, days-1)}
}

// investStrategy keeps a single position at the given fraction of equity
// and otherwise does nothing. Deterministic by construction.
type investStrategy struct {
	fraction float64
}

func (s *investStrategy) OnDate(_ time.Time, snap *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error) {
	var intents []models.OrderIntent
	for _, ticker := range snap.Tickers() {
		if !portfolio.HasPosition(ticker) {
			intents = append(intents, models.OrderIntent{
				Ticker: ticker, Side: models.Buy, Fraction: s.fraction,
			})
		}
	}
	return intents, nil
}

// investFactory maps {kelly, threshold} onto the invested fraction, so
// on a rising market a larger kelly*threshold strictly improves the
// total-return objective.
func investFactory(params models.ParamSet) (Strategy, error) {
	kelly := params.Float("kelly", 0.5)
	threshold := params.Float("threshold", 50)
	return &investStrategy{fraction: kelly * threshold / 100}, nil
}

func testOptimizerConfig(provider data.Provider) OptimizerConfig {
	return OptimizerConfig{
		Base: models.BacktestConfig{
			Universe:       []string{"AAA"},
			InitialCapital: 100000,
			CostProfile:    "zero",
		},
		Space: map[string]models.ParameterSpec{
			"kelly":     {Type: models.ParamFloat, Min: 0.5, Max: 1.0, Step: 0.5},
			"threshold": {Type: models.ParamInt, Min: 60, Max: 70, Step: 10},
		},
		Factory:    investFactory,
		Provider:   provider,
		Objective:  ObjectiveTotalReturn,
		Train:      rangeOver(testStart, 60),
		Validation: rangeOver(testStart.AddDate(0, 0, 60), 30),
		NJobs:      2,
		Seed:       7,
	}
}

// trendProvider serves 120 days of rising prices: the train range rises
// and so does validation.
func trendProvider() data.Provider {
	return data.NewMemoryProvider(trendBars("AAA", testStart, 120, 100, 1))
}

// splitTrendProvider rises during train and falls afterwards, so the
// validation objective diverges sharply from train.
func splitTrendProvider() data.Provider {
	bars := trendBars("AAA", testStart, 60, 100, 1)
	bars = append(bars, trendBars("AAA", testStart.AddDate(0, 0, 60), 60, 159, -1)...)
	return data.NewMemoryProvider(bars)
}
