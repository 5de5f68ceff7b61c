// Package sink persists backtest and optimization results. The core only
// needs a serializable record per result type; everything beyond that
// (retention, schemas, dashboards) belongs to the consumer.
package sink

import (
	"github.com/sutralabs/sutra/models"
)

// ResultSink receives finished results. Implementations must tolerate
// partial results: a failed run still carries its equity curve and
// issue list.
type ResultSink interface {
	WriteBacktest(result *models.BacktestResult) error
	WriteOptimization(result *models.OptimizationResult) error
}
