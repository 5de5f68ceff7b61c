package models

// TransactionCosts is the immutable per-order cost breakdown.
type TransactionCosts struct {
	Commission   float64 `json:"commission"`
	Slippage     float64 `json:"slippage"`
	MarketImpact float64 `json:"market_impact"`
	Total        float64 `json:"total"`
}

// CostConfig parameterizes the transaction cost model. SessionMultipliers
// scales slippage by execution session; a missing session means 1.0.
type CostConfig struct {
	CommissionRate     float64               `json:"commission_rate"`
	SlippageBPS        float64               `json:"slippage_bps"`
	ImpactCoefficient  float64               `json:"impact_coefficient"`
	SessionMultipliers map[TimeOfDay]float64 `json:"session_multipliers,omitempty"`
}
