package models

import "time"

// Trade records a closed (or partially closed) position lot and is
// immutable once written. EntryPrice is the average per-share cost basis,
// which includes capitalized entry costs; Costs carries the exit-side
// costs only, so
//
//	RealizedPnL = ExitPrice*Shares - EntryPrice*Shares - Costs.Total
type Trade struct {
	ID          string           `json:"id"`
	Ticker      string           `json:"ticker"`
	Shares      float64          `json:"shares"`
	EntryDate   time.Time        `json:"entry_date"`
	ExitDate    time.Time        `json:"exit_date"`
	EntryPrice  float64          `json:"entry_price"`
	ExitPrice   float64          `json:"exit_price"`
	Costs       TransactionCosts `json:"costs"`
	RealizedPnL float64          `json:"realized_pnl"`
}

// Closed reports whether the trade represents a closed lot. Buy fills are
// returned to callers as open-lot trades with a zero ExitDate and are not
// part of the closed-trade ledger.
func (t Trade) Closed() bool {
	return !t.ExitDate.IsZero()
}
