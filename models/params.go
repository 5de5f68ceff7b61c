package models

import (
	"fmt"
	"sort"
	"strings"
)

// ParamSet holds the concrete strategy parameters for one backtest run.
// Values are int, float64 or string depending on the parameter spec.
type ParamSet map[string]interface{}

// Clone returns an independent copy of the set.
func (p ParamSet) Clone() ParamSet {
	out := make(ParamSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Float reads a numeric parameter, accepting int or float64 values, and
// falls back to def when the parameter is absent.
func (p ParamSet) Float(name string, def float64) float64 {
	switch v := p[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Int reads an integer parameter, truncating float values.
func (p ParamSet) Int(name string, def int) int {
	switch v := p[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// String reads a categorical parameter.
func (p ParamSet) String(name string, def string) string {
	if v, ok := p[name].(string); ok {
		return v
	}
	return def
}

// Key renders the set as a stable "a=1 b=2" string, sorted by name. Used
// for logging and for grouping trials during importance analysis.
func (p ParamSet) Key() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, p[name]))
	}
	return strings.Join(parts, " ")
}
