package models

import "time"

// Status classifies how cleanly a run or sweep finished.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Issue is one structured problem observed during a run, kept on the
// result so a surrounding UI can render partial output.
type Issue struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Date    time.Time `json:"date,omitempty"`
}

// Metrics is the performance summary computed from an equity curve and
// the closed-trade ledger.
type Metrics struct {
	TotalReturn         float64 `json:"total_return"`
	AnnualizedReturn    float64 `json:"annualized_return"`
	Volatility          float64 `json:"volatility"`
	Sharpe              float64 `json:"sharpe"`
	Sortino             float64 `json:"sortino"`
	ProbabilisticSharpe float64 `json:"probabilistic_sharpe"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`
	Calmar              float64 `json:"calmar"`
	WinRate             float64 `json:"win_rate"`
	ProfitFactor        float64 `json:"profit_factor"`
	TradeCount          int     `json:"trade_count"`
}

// BacktestResult is the storage-agnostic record of one simulated run.
type BacktestResult struct {
	ID             string         `json:"id"`
	Config         BacktestConfig `json:"config"`
	Trades         []Trade        `json:"trades"`
	EquityCurve    EquityCurve    `json:"equity_curve"`
	Metrics        Metrics        `json:"metrics"`
	RejectedOrders int            `json:"rejected_orders"`
	Status         Status         `json:"status"`
	Issues         []Issue        `json:"issues,omitempty"`
	ExecutionTime  time.Duration  `json:"execution_time"`
}
