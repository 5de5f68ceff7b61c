// Package utils holds small numeric and formatting helpers shared across
// the engine and sinks.
package utils

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/fatih/structs"
)

// SumArr sums a float slice.
func SumArr(arr []float64) float64 {
	var sum float64
	for _, v := range arr {
		sum += v
	}
	return sum
}

// CalculateDifference returns the percent difference of x against y.
func CalculateDifference(x float64, y float64) float64 {
	if y == 0 {
		y = 1
	}
	return (x - y) / y
}

// ToFixed rounds to a decimal precision.
func ToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return math.Round(num*output) / output
}

// Arange enumerates min..max by step, inclusive of max within float
// tolerance.
func Arange(min float64, max float64, step float64) []float64 {
	var out []float64
	for v := min; v <= max+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

// CreateKeyValuePairs renders a map as "key: value" lines in sorted key
// order so the output is stable across runs.
func CreateKeyValuePairs(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := new(bytes.Buffer)
	for _, k := range keys {
		fmt.Fprintf(b, "%s: %v\n", k, m[k])
	}
	return b.String()
}

// FieldMap flattens a struct's exported fields into a map, for sinks
// that want schemaless field sets.
func FieldMap(v interface{}) map[string]interface{} {
	return structs.Map(v)
}
