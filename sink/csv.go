package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/sutralabs/sutra/models"
)

// CSVSink dumps results as CSV files under a directory: one equity-curve
// file per backtest and one trial-history file per optimization.
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink dir: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

type equityRow struct {
	Timestamp string  `csv:"timestamp"`
	Equity    float64 `csv:"equity"`
}

type trialRow struct {
	Number    int     `csv:"number"`
	Split     string  `csv:"split"`
	Params    string  `csv:"params"`
	Objective float64 `csv:"objective"`
	Status    string  `csv:"status"`
}

func (s *CSVSink) WriteBacktest(result *models.BacktestResult) error {
	rows := make([]equityRow, len(result.EquityCurve))
	for i, point := range result.EquityCurve {
		rows[i] = equityRow{
			Timestamp: point.Date.Format("2006-01-02"),
			Equity:    point.Equity,
		}
	}
	return s.writeFile(fmt.Sprintf("backtest-%s.csv", result.ID), &rows)
}

func (s *CSVSink) WriteOptimization(result *models.OptimizationResult) error {
	rows := make([]trialRow, len(result.Trials))
	for i, trial := range result.Trials {
		rows[i] = trialRow{
			Number:    trial.Number,
			Split:     string(trial.Split),
			Params:    trial.Params.Key(),
			Objective: trial.Objective,
			Status:    string(trial.Status),
		}
	}
	return s.writeFile(fmt.Sprintf("optimization-%s.csv", result.ID), &rows)
}

func (s *CSVSink) writeFile(name string, rows interface{}) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}
