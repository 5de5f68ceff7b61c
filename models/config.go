package models

import (
	"fmt"
	"time"
)

// DateRange is a half-open-free inclusive [Start, End] range of calendar
// days, compared at day granularity.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range needs both start and end")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("date range end %s before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(r.Start)) && !d.After(Day(r.End))
}

// Overlaps reports whether two ranges share any day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !Day(r.End).Before(Day(o.Start)) && !Day(o.End).Before(Day(r.Start))
}

// GapPolicy controls how the engine reacts to a missing ticker/date row.
type GapPolicy string

const (
	// GapSkip records a warning issue and moves on. Default.
	GapSkip GapPolicy = "skip"
	// GapFail aborts the run on the first gap.
	GapFail GapPolicy = "fail"
)

// BacktestConfig is the immutable description of one simulated run.
// Optimizers clone it per trial and only rewrite Range and Params.
type BacktestConfig struct {
	Range          DateRange          `json:"range"`
	Universe       []string           `json:"universe"`
	InitialCapital float64            `json:"initial_capital"`
	CostProfile    string             `json:"cost_profile,omitempty"`
	Costs          *CostConfig        `json:"costs,omitempty"`
	Params         ParamSet           `json:"params,omitempty"`
	PeriodsPerYear float64            `json:"periods_per_year,omitempty"`
	FillTime       TimeOfDay          `json:"fill_time,omitempty"`
	VolumeLookback int                `json:"volume_lookback,omitempty"`
	OnGap          GapPolicy          `json:"on_gap,omitempty"`
}

// Validate fails fast on malformed configuration, before any simulation.
func (c BacktestConfig) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return err
	}
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe is empty")
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital %v must be positive", c.InitialCapital)
	}
	return nil
}
