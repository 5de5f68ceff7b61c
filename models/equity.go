package models

import "time"

// EquityPoint is one (date, equity) observation.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// EquityCurve is the append-only ordered sequence of equity observations
// produced by mark-to-market.
type EquityCurve []EquityPoint

// Returns computes the simple per-period percent returns of the curve.
// The first period's return is zero by convention.
func (c EquityCurve) Returns() []float64 {
	if len(c) == 0 {
		return nil
	}
	out := make([]float64, len(c))
	for i := 1; i < len(c); i++ {
		if c[i-1].Equity != 0 {
			out[i] = (c[i].Equity - c[i-1].Equity) / c[i-1].Equity
		}
	}
	return out
}

// Final returns the last equity value, or 0 for an empty curve.
func (c EquityCurve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Equity
}
