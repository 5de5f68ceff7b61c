package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFixture() *Snapshot {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := func(ticker string, days int, base float64) []Bar {
		out := make([]Bar, days)
		for i := range out {
			out[i] = Bar{
				Ticker:    ticker,
				Timestamp: ToTimestamp(start.AddDate(0, 0, i)),
				Close:     base + float64(i),
				Volume:    1000 * float64(i+1),
			}
		}
		return out
	}
	return &Snapshot{
		Date: start.AddDate(0, 0, 2),
		History: map[string][]Bar{
			"ZZZ": bars("ZZZ", 3, 50),
			"AAA": bars("AAA", 3, 100),
			"BBB": bars("BBB", 2, 10), // stale: no bar on the snapshot date
		},
	}
}

func TestSnapshotTickersSorted(t *testing.T) {
	snap := snapshotFixture()
	assert.Equal(t, []string{"AAA", "BBB", "ZZZ"}, snap.Tickers())
}

func TestSnapshotBarAndClose(t *testing.T) {
	snap := snapshotFixture()

	bar, ok := snap.Bar("AAA")
	require.True(t, ok)
	assert.Equal(t, 102.0, bar.Close)

	price, ok := snap.Close("ZZZ")
	require.True(t, ok)
	assert.Equal(t, 52.0, price)

	_, ok = snap.Bar("BBB")
	assert.False(t, ok, "last bar predates the snapshot date")
	_, ok = snap.Close("missing")
	assert.False(t, ok)
}

func TestSnapshotCloses(t *testing.T) {
	snap := snapshotFixture()
	assert.Equal(t, []float64{100, 101, 102}, snap.Closes("AAA"))
	assert.Empty(t, snap.Closes("missing"))
}

func TestSnapshotAvgDailyVolume(t *testing.T) {
	snap := snapshotFixture()

	// Trailing two bars of AAA: (2000 + 3000) / 2.
	assert.Equal(t, 2500.0, snap.AvgDailyVolume("AAA", 2))
	// Lookback longer than history shrinks to what exists.
	assert.Equal(t, 2000.0, snap.AvgDailyVolume("AAA", 10))
	assert.Zero(t, snap.AvgDailyVolume("missing", 5))
	assert.Zero(t, snap.AvgDailyVolume("AAA", 0))
}
