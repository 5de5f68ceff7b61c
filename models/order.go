package models

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// TimeOfDay tags an execution with its session, which scales slippage.
type TimeOfDay string

const (
	AtOpen  TimeOfDay = "open"
	Regular TimeOfDay = "regular"
	AtClose TimeOfDay = "close"
)

// OrderIntent is what a strategy asks for on a simulated date. Exactly one
// of Shares or Fraction should be set; Fraction sizes the order as a share
// of current equity and is resolved to whole shares by the engine.
type OrderIntent struct {
	Ticker   string  `json:"ticker"`
	Side     Side    `json:"side"`
	Shares   float64 `json:"shares,omitempty"`
	Fraction float64 `json:"fraction,omitempty"`
}
