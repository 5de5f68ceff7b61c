package sutra

import (
	"math"

	"github.com/sutralabs/sutra/models"
)

// CostModel prices the transaction costs of a single order. It is
// stateless; the same model instance can serve concurrent simulations.
type CostModel struct {
	cfg models.CostConfig
}

// costProfiles are the built-in named market profiles. A profile swap
// changes cost behavior without touching any caller.
var costProfiles = map[string]models.CostConfig{
	"default": {
		CommissionRate:    0.001,
		SlippageBPS:       5,
		ImpactCoefficient: 0.1,
		SessionMultipliers: map[models.TimeOfDay]float64{
			models.AtOpen:  1.5,
			models.AtClose: 1.3,
		},
	},
	"us_equity": {
		CommissionRate:    0.0005,
		SlippageBPS:       2,
		ImpactCoefficient: 0.1,
		SessionMultipliers: map[models.TimeOfDay]float64{
			models.AtOpen:  2.0,
			models.AtClose: 1.5,
		},
	},
	"crypto": {
		CommissionRate:    0.00075,
		SlippageBPS:       8,
		ImpactCoefficient: 0.15,
	},
	"zero": {},
}

// NewCostModel builds a model from an explicit config.
func NewCostModel(cfg models.CostConfig) *CostModel {
	return &CostModel{cfg: cfg}
}

// CostModelForProfile resolves a named market profile. The empty name
// means "default".
func CostModelForProfile(name string) (*CostModel, error) {
	if name == "" {
		name = "default"
	}
	cfg, ok := costProfiles[name]
	if !ok {
		return nil, inputErrorf("unknown cost profile %q", name)
	}
	return &CostModel{cfg: cfg}, nil
}

// Calculate prices one order. Costs are symmetric in side today; the side
// argument keeps call sites explicit and leaves room for maker/taker
// asymmetry per profile. Market impact scales with the order's share of
// average daily volume and is explicitly 0 when the volume is unknown
// (avgDailyVolume <= 0); that is a documented behavior, not a failure.
func (m *CostModel) Calculate(price, shares float64, _ models.Side, tod models.TimeOfDay, avgDailyVolume float64) models.TransactionCosts {
	notional := price * shares
	c := models.TransactionCosts{
		Commission: notional * m.cfg.CommissionRate,
		Slippage:   notional * (m.cfg.SlippageBPS / 10000) * m.sessionMultiplier(tod),
	}
	if avgDailyVolume > 0 {
		c.MarketImpact = m.cfg.ImpactCoefficient * notional * math.Sqrt(shares/avgDailyVolume)
	}
	c.Total = c.Commission + c.Slippage + c.MarketImpact
	return c
}

func (m *CostModel) sessionMultiplier(tod models.TimeOfDay) float64 {
	if mult, ok := m.cfg.SessionMultipliers[tod]; ok {
		return mult
	}
	return 1.0
}
