package sutra

import (
	"math"

	gaussian "github.com/chobie/go-gaussian"
	"gonum.org/v1/gonum/stat"

	"github.com/sutralabs/sutra/models"
)

// DefaultPeriodsPerYear annualizes daily equity observations.
const DefaultPeriodsPerYear = 252

// Metric edge cases return defined sentinels instead of raising: a curve
// with zero volatility has Sharpe/Sortino 0, a run with zero drawdown has
// Calmar 0, and a ledger with no losing trades has ProfitFactor +Inf
// (callers that need a finite objective clamp it).

// ComputeMetrics derives the performance summary from an equity curve and
// the closed-trade ledger. periodsPerYear <= 0 falls back to the default.
func ComputeMetrics(curve models.EquityCurve, trades []models.Trade, periodsPerYear float64) models.Metrics {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}
	m := models.Metrics{TradeCount: len(trades)}
	if len(curve) < 2 {
		return m
	}

	returns := curve.Returns()
	m.TotalReturn = curve.Final()/curve[0].Equity - 1
	periods := float64(len(curve) - 1)
	m.AnnualizedReturn = math.Pow(1+m.TotalReturn, periodsPerYear/periods) - 1

	mean, std := stat.MeanStdDev(returns, nil)
	m.Volatility = std * math.Sqrt(periodsPerYear)
	if std > 0 {
		m.Sharpe = mean / std * math.Sqrt(periodsPerYear)
		m.ProbabilisticSharpe = probabilisticSharpe(mean/std, len(returns))
	}

	if downStd := downsideDeviation(returns); downStd > 0 {
		m.Sortino = mean / downStd * math.Sqrt(periodsPerYear)
	}

	m.MaxDrawdown, m.MaxDrawdownDuration = maxDrawdown(curve)
	if m.MaxDrawdown < 0 {
		m.Calmar = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	m.WinRate, m.ProfitFactor = tradeStats(trades)
	return m
}

// probabilisticSharpe is the probability that the true (non-annualized)
// Sharpe ratio exceeds zero given the observed one, under a normal
// approximation of returns.
func probabilisticSharpe(sharpe float64, n int) float64 {
	if n < 2 {
		return 0
	}
	norm := gaussian.NewGaussian(0, 1)
	return norm.Cdf(sharpe * math.Sqrt(float64(n-1)))
}

// downsideDeviation is the standard deviation over negative returns only,
// with the full sample size in the denominator.
func downsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	return math.Sqrt(sum / float64(len(returns)))
}

// maxDrawdown scans the curve for the deepest peak-to-trough loss and the
// longest stretch of periods spent below a previous peak.
func maxDrawdown(curve models.EquityCurve) (float64, int) {
	var drawdown float64
	var duration, current int
	peak := curve[0].Equity
	for _, pt := range curve {
		if pt.Equity >= peak {
			peak = pt.Equity
			current = 0
			continue
		}
		current++
		if current > duration {
			duration = current
		}
		if peak > 0 {
			if dd := (pt.Equity - peak) / peak; dd < drawdown {
				drawdown = dd
			}
		}
	}
	return drawdown, duration
}

func tradeStats(trades []models.Trade) (winRate, profitFactor float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	var wins int
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.RealizedPnL > 0 {
			wins++
			grossProfit += t.RealizedPnL
		} else {
			grossLoss += -t.RealizedPnL
		}
	}
	winRate = float64(wins) / float64(len(trades))
	switch {
	case grossLoss > 0:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		profitFactor = math.Inf(1)
	}
	return winRate, profitFactor
}
