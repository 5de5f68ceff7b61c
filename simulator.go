package sutra

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sutralabs/sutra/models"
)

// shareEpsilon absorbs float drift when comparing share counts.
const shareEpsilon = 1e-9

// PortfolioSimulator is the cash and position ledger for one backtest
// run. It owns its positions exclusively, never allows negative cash
// (no margin) or short positions, and counts infeasible orders instead
// of raising. Instances are cheap; every optimization trial gets a
// fresh one.
type PortfolioSimulator struct {
	cash      float64
	initial   float64
	positions map[string]*models.Position
	trades    []models.Trade
	equity    models.EquityCurve
	rejected  int
	costs     *CostModel
}

// NewPortfolioSimulator builds a simulator with the given starting cash.
func NewPortfolioSimulator(initialCapital float64, costs *CostModel) (*PortfolioSimulator, error) {
	if initialCapital <= 0 {
		return nil, inputErrorf("initial capital %v must be positive", initialCapital)
	}
	if costs == nil {
		costs, _ = CostModelForProfile("zero")
	}
	return &PortfolioSimulator{
		cash:      initialCapital,
		initial:   initialCapital,
		positions: make(map[string]*models.Position),
		costs:     costs,
	}, nil
}

// Buy executes a purchase. The full cost of the order (notional plus
// transaction costs) is debited from cash and capitalized into the
// position's average cost. A nil, nil return means the order was
// infeasible: it was counted and nothing was mutated. The returned trade
// is an open-lot record (zero ExitDate) and is not part of the
// closed-trade ledger.
func (p *PortfolioSimulator) Buy(ticker string, price, shares float64, date time.Time, tod models.TimeOfDay, avgDailyVolume float64) (*models.Trade, error) {
	if err := checkOrderInput(ticker, price, shares); err != nil {
		return nil, err
	}
	costs := p.costs.Calculate(price, shares, models.Buy, tod, avgDailyVolume)
	total := price*shares + costs.Total
	if total > p.cash+shareEpsilon {
		p.rejected++
		log.Debug().Str("ticker", ticker).Float64("required", total).
			Float64("cash", p.cash).Msg("buy rejected: insufficient cash")
		return nil, nil
	}
	p.cash -= total

	pos, ok := p.positions[ticker]
	if !ok {
		p.positions[ticker] = &models.Position{
			Ticker:    ticker,
			Shares:    shares,
			AvgCost:   total / shares,
			EntryDate: date,
		}
	} else {
		newShares := pos.Shares + shares
		pos.AvgCost = (pos.Shares*pos.AvgCost + total) / newShares
		pos.Shares = newShares
	}

	return &models.Trade{
		ID:         uuid.New().String(),
		Ticker:     ticker,
		Shares:     shares,
		EntryDate:  date,
		EntryPrice: price,
		Costs:      costs,
	}, nil
}

// Sell closes part or all of a position at the given price. Selling more
// shares than held (including any short) is infeasible: counted, not
// raised. The realized pnl nets out the capitalized entry costs and the
// exit-side costs. Returns the closed trade appended to the ledger.
func (p *PortfolioSimulator) Sell(ticker string, price, shares float64, date time.Time, tod models.TimeOfDay, avgDailyVolume float64) (*models.Trade, error) {
	if err := checkOrderInput(ticker, price, shares); err != nil {
		return nil, err
	}
	pos, ok := p.positions[ticker]
	if !ok || shares > pos.Shares+shareEpsilon {
		p.rejected++
		log.Debug().Str("ticker", ticker).Float64("shares", shares).
			Msg("sell rejected: insufficient holdings")
		return nil, nil
	}
	costs := p.costs.Calculate(price, shares, models.Sell, tod, avgDailyVolume)
	proceeds := price * shares
	basis := pos.AvgCost * shares
	p.cash += proceeds - costs.Total

	trade := models.Trade{
		ID:          uuid.New().String(),
		Ticker:      ticker,
		Shares:      shares,
		EntryDate:   pos.EntryDate,
		ExitDate:    date,
		EntryPrice:  pos.AvgCost,
		ExitPrice:   price,
		Costs:       costs,
		RealizedPnL: proceeds - basis - costs.Total,
	}
	p.trades = append(p.trades, trade)

	pos.Shares -= shares
	if pos.Shares <= shareEpsilon {
		delete(p.positions, ticker)
	}
	return &trade, nil
}

// MarkToMarket values the portfolio at the given prices, appends the
// observation to the equity curve and returns the equity. Positions with
// no quoted price are valued at cost basis. Otherwise read-only.
func (p *PortfolioSimulator) MarkToMarket(date time.Time, priceOf func(ticker string) (float64, bool)) float64 {
	equity := p.cash
	for ticker, pos := range p.positions {
		price, ok := priceOf(ticker)
		if !ok {
			log.Warn().Str("ticker", ticker).Time("date", date).
				Msg("no price for mark-to-market, valuing at cost")
			price = pos.AvgCost
		}
		equity += pos.MarketValue(price)
	}
	p.equity = append(p.equity, models.EquityPoint{Date: date, Equity: equity})
	return equity
}

// Cash returns available cash.
func (p *PortfolioSimulator) Cash() float64 { return p.cash }

// InitialCapital returns the starting cash.
func (p *PortfolioSimulator) InitialCapital() float64 { return p.initial }

// RejectedOrders returns the count of infeasible orders seen so far.
func (p *PortfolioSimulator) RejectedOrders() int { return p.rejected }

// Position returns a copy of the open position for a ticker.
func (p *PortfolioSimulator) Position(ticker string) (models.Position, bool) {
	pos, ok := p.positions[ticker]
	if !ok {
		return models.Position{}, false
	}
	return *pos, true
}

// Positions returns a copy of all open positions.
func (p *PortfolioSimulator) Positions() map[string]models.Position {
	out := make(map[string]models.Position, len(p.positions))
	for ticker, pos := range p.positions {
		out[ticker] = *pos
	}
	return out
}

// Trades returns the closed-trade ledger.
func (p *PortfolioSimulator) Trades() []models.Trade { return p.trades }

// EquityCurve returns the mark-to-market history.
func (p *PortfolioSimulator) EquityCurve() models.EquityCurve { return p.equity }

// State snapshots the portfolio for a strategy callback.
func (p *PortfolioSimulator) State() models.PortfolioState {
	equity := p.cash
	positions := make(map[string]models.Position, len(p.positions))
	for ticker, pos := range p.positions {
		positions[ticker] = *pos
		equity += pos.Shares * pos.AvgCost
	}
	if n := len(p.equity); n > 0 {
		equity = p.equity[n-1].Equity
	}
	return models.PortfolioState{Cash: p.cash, Equity: equity, Positions: positions}
}

func checkOrderInput(ticker string, price, shares float64) error {
	if ticker == "" {
		return inputErrorf("order has no ticker")
	}
	if price <= 0 {
		return inputErrorf("order price %v must be positive", price)
	}
	if shares <= 0 {
		return inputErrorf("order shares %v must be positive", shares)
	}
	return nil
}
