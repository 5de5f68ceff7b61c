package sutra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sutralabs/sutra/data"
	"github.com/sutralabs/sutra/models"
)

// guardProvider fails the test if the engine ever requests a window wider
// than a single day or steps backwards in time. Together with the
// accumulated-history snapshot this pins down the no-look-ahead property.
type guardProvider struct {
	data.Provider
	t    *testing.T
	last time.Time
}

func (g *guardProvider) GetOHLCV(ctx context.Context, tickers []string, start, end time.Time) ([]models.Bar, error) {
	g.t.Helper()
	require.True(g.t, start.Equal(end), "engine must fetch one day at a time")
	require.False(g.t, start.Before(g.last), "engine must replay dates forward")
	g.last = start
	return g.Provider.GetOHLCV(ctx, tickers, start, end)
}

func baseConfig(days int) models.BacktestConfig {
	return models.BacktestConfig{
		Range:          rangeOver(testStart, days),
		Universe:       []string{"AAA"},
		InitialCapital: 10000,
		CostProfile:    "zero",
	}
}

func TestRunNeverLooksAhead(t *testing.T) {
	provider := &guardProvider{Provider: trendProvider(), t: t}

	strat := StrategyFunc(func(date time.Time, snap *models.Snapshot, _ models.PortfolioState) ([]models.OrderIntent, error) {
		bars := snap.History["AAA"]
		require.NotEmpty(t, bars)
		assert.Equal(t, models.Day(date), bars[len(bars)-1].Time(),
			"snapshot must end at the simulated date")
		return nil, nil
	})

	engine, err := NewBacktestEngine(baseConfig(30), provider, strat)
	require.NoError(t, err)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Len(t, result.EquityCurve, 30)
}

func TestRunSellsBeforeBuys(t *testing.T) {
	// Day two rotates the whole book from AAA into BBB. The buy is only
	// fundable if the same-day sell settles first.
	bars := append(flatBars("AAA", testStart, 5, 100), flatBars("BBB", testStart, 5, 100)...)
	provider := data.NewMemoryProvider(bars)

	strat := StrategyFunc(func(date time.Time, _ *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error) {
		if date.Equal(testStart) {
			return []models.OrderIntent{{Ticker: "AAA", Side: models.Buy, Fraction: 1}}, nil
		}
		if portfolio.HasPosition("AAA") {
			// Buy listed first on purpose; execution order must not follow
			// intent order.
			return []models.OrderIntent{
				{Ticker: "BBB", Side: models.Buy, Fraction: 0.9},
				{Ticker: "AAA", Side: models.Sell, Fraction: 1},
			}, nil
		}
		return nil, nil
	})

	cfg := baseConfig(5)
	cfg.Universe = []string{"AAA", "BBB"}
	engine, err := NewBacktestEngine(cfg, provider, strat)
	require.NoError(t, err)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.RejectedOrders, "rotation must be funded by the same-day exit")
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "AAA", result.Trades[0].Ticker)
	assert.Equal(t, models.StatusSuccess, result.Status)
}

func TestRunStrategyErrorKeepsPartialCurve(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	strat := StrategyFunc(func(time.Time, *models.Snapshot, models.PortfolioState) ([]models.OrderIntent, error) {
		calls++
		if calls == 4 {
			return nil, boom
		}
		return nil, nil
	})

	engine, err := NewBacktestEngine(baseConfig(10), trendProvider(), strat)
	require.NoError(t, err)
	result, err := engine.Run(context.Background())

	var stratErr *StrategyError
	require.ErrorAs(t, err, &stratErr)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, models.Day(testStart.AddDate(0, 0, 3)), models.Day(stratErr.Date))

	require.NotNil(t, result, "failed runs still return the partial result")
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Len(t, result.EquityCurve, 3, "curve stops at the last completed date")
}

func TestRunRecoversStrategyPanic(t *testing.T) {
	strat := StrategyFunc(func(time.Time, *models.Snapshot, models.PortfolioState) ([]models.OrderIntent, error) {
		panic("index out of range")
	})

	engine, err := NewBacktestEngine(baseConfig(5), trendProvider(), strat)
	require.NoError(t, err)
	result, err := engine.Run(context.Background())

	var stratErr *StrategyError
	require.ErrorAs(t, err, &stratErr)
	assert.Contains(t, stratErr.Error(), "panic")
	assert.Equal(t, models.StatusFailed, result.Status)
}

func TestRunDataGapPolicies(t *testing.T) {
	// BBB is missing its third bar.
	bars := append(flatBars("AAA", testStart, 5, 100), flatBars("BBB", testStart, 2, 50)...)
	bars = append(bars, flatBars("BBB", testStart.AddDate(0, 0, 3), 2, 50)...)
	provider := data.NewMemoryProvider(bars)

	noop := StrategyFunc(func(time.Time, *models.Snapshot, models.PortfolioState) ([]models.OrderIntent, error) {
		return nil, nil
	})

	cfg := baseConfig(5)
	cfg.Universe = []string{"AAA", "BBB"}

	engine, err := NewBacktestEngine(cfg, provider, noop)
	require.NoError(t, err)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartial, result.Status)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "data_gap", result.Issues[0].Code)
	assert.Len(t, result.EquityCurve, 5, "gap-skip completes the run")

	cfg.OnGap = models.GapFail
	engine, err = NewBacktestEngine(cfg, provider, noop)
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	var gapErr *DataGapError
	require.ErrorAs(t, err, &gapErr)
	assert.Equal(t, "BBB", gapErr.Ticker)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	noop := StrategyFunc(func(time.Time, *models.Snapshot, models.PortfolioState) ([]models.OrderIntent, error) {
		return nil, nil
	})
	engine, err := NewBacktestEngine(baseConfig(30), trendProvider(), noop)
	require.NoError(t, err)

	result, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, models.StatusPartial, result.Status)
	assert.Empty(t, result.EquityCurve)
}

func TestNewBacktestEngineValidation(t *testing.T) {
	noop := StrategyFunc(func(time.Time, *models.Snapshot, models.PortfolioState) ([]models.OrderIntent, error) {
		return nil, nil
	})
	var inputErr *InputError

	cfg := baseConfig(5)
	cfg.Universe = nil
	_, err := NewBacktestEngine(cfg, trendProvider(), noop)
	require.ErrorAs(t, err, &inputErr)

	cfg = baseConfig(5)
	cfg.Range.End = cfg.Range.Start.AddDate(0, 0, -1)
	_, err = NewBacktestEngine(cfg, trendProvider(), noop)
	require.ErrorAs(t, err, &inputErr)

	_, err = NewBacktestEngine(baseConfig(5), nil, noop)
	require.ErrorAs(t, err, &inputErr)

	_, err = NewBacktestEngine(baseConfig(5), trendProvider(), nil)
	require.ErrorAs(t, err, &inputErr)

	cfg = baseConfig(5)
	cfg.CostProfile = "unknown"
	_, err = NewBacktestEngine(cfg, trendProvider(), noop)
	require.ErrorAs(t, err, &inputErr)
}

func TestRunEmptyCalendar(t *testing.T) {
	noop := StrategyFunc(func(time.Time, *models.Snapshot, models.PortfolioState) ([]models.OrderIntent, error) {
		return nil, nil
	})
	cfg := baseConfig(5)
	cfg.Range = rangeOver(testStart.AddDate(1, 0, 0), 5) // no bars there

	engine, err := NewBacktestEngine(cfg, trendProvider(), noop)
	require.NoError(t, err)
	_, err = engine.Run(context.Background())
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
}
