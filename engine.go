package sutra

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sutralabs/sutra/data"
	"github.com/sutralabs/sutra/models"
)

// Strategy produces order intents for one simulated date. It sees only
// the snapshot (history up to that date) and the portfolio state; any
// error or panic aborts the run as a StrategyError.
type Strategy interface {
	OnDate(date time.Time, snap *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(date time.Time, snap *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error)

func (f StrategyFunc) OnDate(date time.Time, snap *models.Snapshot, portfolio models.PortfolioState) ([]models.OrderIntent, error) {
	return f(date, snap, portfolio)
}

// BacktestEngine drives one simulated run. A run is strictly sequential
// over trading dates; sequential replay is what guarantees no look-ahead
// and deterministic trade ordering, so it is never parallelized
// internally.
type BacktestEngine struct {
	cfg      models.BacktestConfig
	provider data.Provider
	strategy Strategy
	costs    *CostModel
}

// NewBacktestEngine validates the config and resolves the cost model.
// Configuration problems surface here, before any simulation.
func NewBacktestEngine(cfg models.BacktestConfig, provider data.Provider, strategy Strategy) (*BacktestEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &InputError{Msg: err.Error()}
	}
	if provider == nil {
		return nil, inputErrorf("backtest needs a data provider")
	}
	if strategy == nil {
		return nil, inputErrorf("backtest needs a strategy")
	}
	var costs *CostModel
	var err error
	if cfg.Costs != nil {
		costs = NewCostModel(*cfg.Costs)
	} else if costs, err = CostModelForProfile(cfg.CostProfile); err != nil {
		return nil, err
	}
	if cfg.FillTime == "" {
		cfg.FillTime = models.AtClose
	}
	if cfg.VolumeLookback <= 0 {
		cfg.VolumeLookback = 20
	}
	if cfg.OnGap == "" {
		cfg.OnGap = models.GapSkip
	}
	return &BacktestEngine{cfg: cfg, provider: provider, strategy: strategy, costs: costs}, nil
}

// Run replays the configured date range. The result is non-nil whenever
// the run got far enough to build one; on a strategy failure it carries
// the partial equity curve, a failed status and the returned error is a
// *StrategyError with the failing date attached.
func (e *BacktestEngine) Run(ctx context.Context) (*models.BacktestResult, error) {
	start := time.Now()
	result := &models.BacktestResult{
		ID:     uuid.New().String(),
		Config: e.cfg,
		Status: models.StatusSuccess,
	}

	days, err := e.provider.TradingDays(ctx, e.cfg.Range.Start, e.cfg.Range.End)
	if err != nil {
		return nil, fmt.Errorf("load trading calendar: %w", err)
	}
	if len(days) == 0 {
		return nil, inputErrorf("no trading days between %s and %s",
			e.cfg.Range.Start.Format("2006-01-02"), e.cfg.Range.End.Format("2006-01-02"))
	}

	sim, err := NewPortfolioSimulator(e.cfg.InitialCapital, e.costs)
	if err != nil {
		return nil, err
	}

	history := make(map[string][]models.Bar, len(e.cfg.Universe))
	var runErr error

loop:
	for _, day := range days {
		select {
		case <-ctx.Done():
			result.Status = models.StatusPartial
			result.Issues = append(result.Issues, models.Issue{
				Code: "cancelled", Message: ctx.Err().Error(), Date: day,
			})
			runErr = ctx.Err()
			break loop
		default:
		}

		// Fetch only the current day; history accumulates so the
		// provider is never asked for anything past the simulated date.
		bars, err := e.provider.GetOHLCV(ctx, e.cfg.Universe, day, day)
		if err != nil {
			return nil, fmt.Errorf("fetch bars for %s: %w", day.Format("2006-01-02"), err)
		}
		seen := make(map[string]bool, len(bars))
		for _, b := range bars {
			history[b.Ticker] = append(history[b.Ticker], b)
			seen[b.Ticker] = true
		}
		for _, ticker := range e.cfg.Universe {
			if seen[ticker] {
				continue
			}
			gap := &DataGapError{Ticker: ticker, Date: day}
			if e.cfg.OnGap == models.GapFail {
				return nil, gap
			}
			log.Warn().Str("ticker", ticker).Time("date", day).Msg("data gap, skipping ticker for date")
			result.Issues = append(result.Issues, models.Issue{
				Code: "data_gap", Message: gap.Error(), Date: day,
			})
		}

		snap := &models.Snapshot{Date: day, History: history}
		intents, err := e.invokeStrategy(day, snap, sim.State())
		if err != nil {
			result.Status = models.StatusFailed
			result.Issues = append(result.Issues, models.Issue{
				Code: "strategy_error", Message: err.Error(), Date: day,
			})
			runErr = err
			break loop
		}

		e.execute(sim, snap, day, intents)

		sim.MarkToMarket(day, func(ticker string) (float64, bool) {
			return lastClose(history, ticker)
		})
	}

	result.Trades = sim.Trades()
	result.EquityCurve = sim.EquityCurve()
	result.RejectedOrders = sim.RejectedOrders()
	result.Metrics = ComputeMetrics(result.EquityCurve, result.Trades, e.cfg.PeriodsPerYear)
	if result.Status == models.StatusSuccess && len(result.Issues) > 0 {
		result.Status = models.StatusPartial
	}
	result.ExecutionTime = time.Since(start)

	log.Debug().Str("id", result.ID).Int("days", len(days)).
		Int("trades", len(result.Trades)).Str("status", string(result.Status)).
		Dur("elapsed", result.ExecutionTime).Msg("backtest finished")
	return result, runErr
}

// invokeStrategy shields the run from panics inside the callback; both a
// panic and a returned error become a StrategyError for that date.
func (e *BacktestEngine) invokeStrategy(day time.Time, snap *models.Snapshot, state models.PortfolioState) (intents []models.OrderIntent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StrategyError{Date: day, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	intents, serr := e.strategy.OnDate(day, snap, state)
	if serr != nil {
		return nil, &StrategyError{Date: day, Err: serr}
	}
	return intents, nil
}

// execute fills intents at the date's close. Sells run before buys so
// that rotations can fund purchases from the same day's exits.
func (e *BacktestEngine) execute(sim *PortfolioSimulator, snap *models.Snapshot, day time.Time, intents []models.OrderIntent) {
	for _, pass := range []models.Side{models.Sell, models.Buy} {
		for _, intent := range intents {
			if intent.Side != pass {
				continue
			}
			price, ok := snap.Close(intent.Ticker)
			if !ok {
				continue // no bar for this ticker today
			}
			shares := e.resolveShares(sim, intent, price)
			if shares <= 0 {
				continue
			}
			adv := snap.AvgDailyVolume(intent.Ticker, e.cfg.VolumeLookback)
			var err error
			if intent.Side == models.Buy {
				_, err = sim.Buy(intent.Ticker, price, shares, day, e.cfg.FillTime, adv)
			} else {
				_, err = sim.Sell(intent.Ticker, price, shares, day, e.cfg.FillTime, adv)
			}
			if err != nil {
				// Malformed sizing from the strategy; the order is
				// skipped and logged rather than aborting the run.
				log.Warn().Err(err).Str("ticker", intent.Ticker).Msg("dropping malformed order")
			}
		}
	}
}

// resolveShares turns a fraction-of-equity intent into whole shares.
func (e *BacktestEngine) resolveShares(sim *PortfolioSimulator, intent models.OrderIntent, price float64) float64 {
	if intent.Shares > 0 {
		return intent.Shares
	}
	if intent.Fraction <= 0 {
		return 0
	}
	if intent.Side == models.Sell {
		pos, ok := sim.Position(intent.Ticker)
		if !ok {
			return 0
		}
		return math.Floor(pos.Shares * math.Min(intent.Fraction, 1))
	}
	equity := sim.State().Equity
	return math.Floor(equity * intent.Fraction / price)
}

func lastClose(history map[string][]models.Bar, ticker string) (float64, bool) {
	bars := history[ticker]
	if len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}
