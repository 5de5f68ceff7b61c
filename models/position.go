package models

import "time"

// Position is an open lot owned exclusively by the portfolio simulator.
// Shares is always > 0 while the position exists; the position is removed
// when the last share is sold. AvgCost is the per-share cost basis and
// includes capitalized entry costs.
type Position struct {
	Ticker    string    `json:"ticker"`
	Shares    float64   `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	EntryDate time.Time `json:"entry_date"`
}

// MarketValue returns the position value at the given price.
func (p Position) MarketValue(price float64) float64 {
	return p.Shares * price
}

// PortfolioState is the read-only view of the simulator handed to a
// strategy callback.
type PortfolioState struct {
	Cash      float64             `json:"cash"`
	Equity    float64             `json:"equity"`
	Positions map[string]Position `json:"positions"`
}

// HasPosition reports whether the portfolio holds any shares of ticker.
func (s PortfolioState) HasPosition(ticker string) bool {
	_, ok := s.Positions[ticker]
	return ok
}
