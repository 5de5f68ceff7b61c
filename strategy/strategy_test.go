package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sutralabs/sutra/models"
)

func snapshotWith(closes []float64) *models.Snapshot {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Ticker:    "AAA",
			Timestamp: models.ToTimestamp(start.AddDate(0, 0, i)),
			Close:     c,
			Volume:    1e6,
		}
	}
	return &models.Snapshot{
		Date:    start.AddDate(0, 0, len(closes)-1),
		History: map[string][]models.Bar{"AAA": bars},
	}
}

func holding(ticker string) models.PortfolioState {
	return models.PortfolioState{
		Positions: map[string]models.Position{ticker: {Ticker: ticker, Shares: 10}},
	}
}

func TestSMACrossSignals(t *testing.T) {
	s := &SMACross{Fast: 3, Slow: 5, Fraction: 0.25}

	// Flat then rising: the fast average crosses above the slow one on the
	// first up day.
	closes := []float64{100, 100, 100, 100, 100, 100, 101}
	intents, err := s.OnDate(time.Now(), snapshotWith(closes), models.PortfolioState{})
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, models.Buy, intents[0].Side)
	assert.Equal(t, "AAA", intents[0].Ticker)
	assert.Equal(t, 0.25, intents[0].Fraction)

	// Already long: the same signal does not pyramid.
	intents, err = s.OnDate(time.Now(), snapshotWith(closes), holding("AAA"))
	require.NoError(t, err)
	assert.Empty(t, intents)

	// Flat then a sharp drop: the fast average crosses back below the
	// slow one and exits the position.
	closes = []float64{105, 105, 105, 105, 105, 105, 90}
	intents, err = s.OnDate(time.Now(), snapshotWith(closes), holding("AAA"))
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, models.Sell, intents[0].Side)
	assert.Equal(t, 1.0, intents[0].Fraction, "exits liquidate the whole lot")
}

func TestSMACrossNeedsHistory(t *testing.T) {
	s := NewSMACross(models.ParamSet{"fast": 10, "slow": 30})
	assert.Equal(t, 10, s.Fast)
	assert.Equal(t, 30, s.Slow)

	intents, err := s.OnDate(time.Now(), snapshotWith([]float64{100, 101, 102}), models.PortfolioState{})
	require.NoError(t, err)
	assert.Empty(t, intents, "no signals before the slow window fills")
}

func TestRSIReversionSignals(t *testing.T) {
	s := NewRSIReversion(models.ParamSet{"period": 14})

	// Twenty straight down days pins the RSI near zero.
	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = 200 - float64(i)*2
	}
	intents, err := s.OnDate(time.Now(), snapshotWith(falling), models.PortfolioState{})
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, models.Buy, intents[0].Side)

	// Already long and still oversold: no duplicate entry.
	intents, err = s.OnDate(time.Now(), snapshotWith(falling), holding("AAA"))
	require.NoError(t, err)
	assert.Empty(t, intents)

	// Twenty straight up days pins the RSI near a hundred; only a held
	// position exits.
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100 + float64(i)*2
	}
	intents, err = s.OnDate(time.Now(), snapshotWith(rising), holding("AAA"))
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, models.Sell, intents[0].Side)

	intents, err = s.OnDate(time.Now(), snapshotWith(rising), models.PortfolioState{})
	require.NoError(t, err)
	assert.Empty(t, intents)
}
