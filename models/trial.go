package models

import "time"

// Split names the chronologically disjoint date range a trial ran on.
type Split string

const (
	SplitTrain      Split = "train"
	SplitValidation Split = "validation"
	SplitTest       Split = "test"
)

// OptimizationTrial is one evaluated parameter vector, immutable once
// committed to the history. Objective is tagged to exactly one split.
// Result is nil for trials that timed out or failed before producing one.
type OptimizationTrial struct {
	Number    int             `json:"number"`
	Params    ParamSet        `json:"params"`
	Split     Split           `json:"split"`
	Objective float64         `json:"objective"`
	Status    Status          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    *BacktestResult `json:"-"`
}

// OptimizationResult summarizes a full parameter sweep.
// ValidationObjective is always populated: re-running the winning
// parameters on the validation range is part of the optimizer contract.
type OptimizationResult struct {
	ID                  string             `json:"id"`
	BestParams          ParamSet           `json:"best_parameters"`
	TrainObjective      float64            `json:"train_objective"`
	ValidationObjective float64            `json:"validation_objective"`
	TestObjective       *float64           `json:"test_objective,omitempty"`
	Trials              []OptimizationTrial `json:"trials"`
	TrialCount          int                `json:"trial_count"`
	ParameterImportance map[string]float64 `json:"parameter_importance"`
	ExecutionTime       time.Duration      `json:"execution_time"`
	Status              Status             `json:"status"`
	Issues              []Issue            `json:"issues,omitempty"`
}
