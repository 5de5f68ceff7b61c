package models

import (
	"fmt"
	"math"
)

type ParamType string

const (
	ParamInt         ParamType = "int"
	ParamFloat       ParamType = "float"
	ParamCategorical ParamType = "categorical"
)

// ParameterSpec describes one searchable dimension of a parameter space:
// a bounded numeric range with a grid step, or an explicit list of
// categorical choices. LogScale asks samplers to interpolate the numeric
// range geometrically; grid enumeration ignores it.
type ParameterSpec struct {
	Type     ParamType `json:"type"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	Step     float64   `json:"step,omitempty"`
	Choices  []string  `json:"choices,omitempty"`
	LogScale bool      `json:"log_scale,omitempty"`
}

// Validate checks the spec before any search starts.
func (s ParameterSpec) Validate(name string) error {
	switch s.Type {
	case ParamCategorical:
		if len(s.Choices) == 0 {
			return fmt.Errorf("parameter %q: categorical spec needs at least one choice", name)
		}
	case ParamInt, ParamFloat:
		if s.Max < s.Min {
			return fmt.Errorf("parameter %q: max %v below min %v", name, s.Max, s.Min)
		}
		if s.Step < 0 {
			return fmt.Errorf("parameter %q: negative step %v", name, s.Step)
		}
		if s.LogScale && s.Min <= 0 {
			return fmt.Errorf("parameter %q: log scale needs min > 0", name)
		}
	default:
		return fmt.Errorf("parameter %q: unknown type %q", name, s.Type)
	}
	return nil
}

// GridValues enumerates the spec for grid search. A numeric spec with
// min == max yields exactly one point; a zero step on a non-degenerate
// range defaults to 1.
func (s ParameterSpec) GridValues() []interface{} {
	if s.Type == ParamCategorical {
		out := make([]interface{}, len(s.Choices))
		for i, c := range s.Choices {
			out[i] = c
		}
		return out
	}
	if s.Max <= s.Min {
		return []interface{}{s.value(s.Min)}
	}
	step := s.Step
	if step <= 0 {
		step = 1
	}
	var out []interface{}
	// Tolerate float accumulation drift at the top of the range.
	for v := s.Min; v <= s.Max+step*1e-9; v += step {
		out = append(out, s.value(math.Min(v, s.Max)))
	}
	return out
}

// Clamp bounds a sampled value to the spec range and rounds int specs.
func (s ParameterSpec) Clamp(v float64) interface{} {
	return s.value(math.Max(s.Min, math.Min(v, s.Max)))
}

func (s ParameterSpec) value(v float64) interface{} {
	if s.Type == ParamInt {
		return int(math.Round(v))
	}
	return v
}
