package sutra

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/sutralabs/sutra/data"
	"github.com/sutralabs/sutra/models"
)

// Objective names the scalar metric a sweep optimizes.
type Objective string

const (
	ObjectiveSharpe       Objective = "sharpe"
	ObjectiveSortino      Objective = "sortino"
	ObjectiveCalmar       Objective = "calmar"
	ObjectiveTotalReturn  Objective = "total_return"
	ObjectiveProfitFactor Objective = "profit_factor"
)

type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// State is the shared optimizer lifecycle. Validating sits between
// Searching and Done and is never skipped: the winning parameters are
// always re-run out-of-sample before a result is produced.
type State string

const (
	StateInitialized State = "initialized"
	StateSearching   State = "searching"
	StateValidating  State = "validating"
	StateDone        State = "done"
)

// worstObjective is the sentinel recorded for failed or timed-out trials.
// It is finite so the trials stay visible to importance analysis.
const worstObjective = 1e9

// DefaultMinValidationDays is the smallest validation window considered
// statistically meaningful; shorter windows still validate but flag the
// result with a short_validation_window issue.
const DefaultMinValidationDays = 20

// StrategyFactory builds a strategy instance for one parameter vector.
type StrategyFactory func(params models.ParamSet) (Strategy, error)

// OptimizerConfig drives any of the search strategies. Base acts as a
// template: each trial clones it and rewrites only the date range and
// parameters, so trials never share simulator state.
type OptimizerConfig struct {
	Base       models.BacktestConfig
	Space      map[string]models.ParameterSpec
	Factory    StrategyFactory
	Provider   data.Provider
	Objective  Objective
	Direction  Direction
	Train      models.DateRange
	Validation models.DateRange
	Test       *models.DateRange

	// NJobs bounds the worker pool for optimizers that parallelize
	// independent trials. Defaults to 1.
	NJobs int
	// Seed fixes candidate generation; identical config and seed means
	// identical trial order and best parameters.
	Seed int64
	// MaxTrials budgets sequential optimizers (ignored by grid search).
	MaxTrials int
	// Patience ends the search early after this many consecutive trials
	// without a new best train objective. 0 disables early stopping.
	Patience int
	// TrialTimeout bounds a single trial; an overrun is recorded with
	// the worst-case sentinel objective, never dropped. 0 disables.
	TrialTimeout time.Duration
	// MinValidationDays overrides DefaultMinValidationDays.
	MinValidationDays int
}

func (c *OptimizerConfig) validate() error {
	if len(c.Space) == 0 {
		return inputErrorf("parameter space is empty")
	}
	for name, spec := range c.Space {
		if err := spec.Validate(name); err != nil {
			return &InputError{Msg: err.Error()}
		}
	}
	if c.Factory == nil {
		return inputErrorf("optimizer needs a strategy factory")
	}
	if c.Provider == nil {
		return inputErrorf("optimizer needs a data provider")
	}
	for _, r := range []models.DateRange{c.Train, c.Validation} {
		if err := r.Validate(); err != nil {
			return &InputError{Msg: err.Error()}
		}
	}
	if c.Train.Overlaps(c.Validation) {
		return inputErrorf("train and validation ranges overlap")
	}
	if c.Validation.Start.Before(c.Train.End) {
		return inputErrorf("validation range must follow the train range")
	}
	if c.Test != nil {
		if err := c.Test.Validate(); err != nil {
			return &InputError{Msg: err.Error()}
		}
		if c.Test.Overlaps(c.Train) || c.Test.Overlaps(c.Validation) {
			return inputErrorf("test range overlaps an earlier split")
		}
		if c.Test.Start.Before(c.Validation.End) {
			return inputErrorf("test range must follow the validation range")
		}
	}
	switch c.Objective {
	case ObjectiveSharpe, ObjectiveSortino, ObjectiveCalmar, ObjectiveTotalReturn, ObjectiveProfitFactor:
	case "":
		c.Objective = ObjectiveSharpe
	default:
		return inputErrorf("unknown objective %q", c.Objective)
	}
	if c.Direction == "" {
		c.Direction = Maximize
	}
	if c.NJobs <= 0 {
		c.NJobs = 1
	}
	if c.MaxTrials <= 0 {
		c.MaxTrials = 50
	}
	if c.MinValidationDays <= 0 {
		c.MinValidationDays = DefaultMinValidationDays
	}
	return nil
}

// ParameterOptimizer is the contract shared by every search strategy:
// generate candidates, evaluate them on the train split, then re-run the
// single best candidate out-of-sample and report it all.
type ParameterOptimizer interface {
	Optimize(ctx context.Context) (*models.OptimizationResult, error)
	State() State
}

// search is the core embedded by the concrete optimizers. It owns the
// committed trial history, best-so-far tracking, the lifecycle state and
// the always-run validation pass.
type search struct {
	cfg OptimizerConfig

	mu           sync.Mutex
	state        State
	trials       []models.OptimizationTrial
	best         *models.OptimizationTrial
	sinceImprove int
	issues       []models.Issue
	started      time.Time
}

func newSearch(cfg OptimizerConfig) (*search, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &search{cfg: cfg, state: StateInitialized}, nil
}

func (s *search) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *search) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *search) beginSearch() {
	s.mu.Lock()
	s.state = StateSearching
	s.started = time.Now()
	s.mu.Unlock()
}

// worst returns the sentinel objective for the configured direction.
func (s *search) worst() float64 {
	if s.cfg.Direction == Minimize {
		return worstObjective
	}
	return -worstObjective
}

// better reports whether a beats b under the configured direction.
func (s *search) better(a, b float64) bool {
	if s.cfg.Direction == Minimize {
		return a < b
	}
	return a > b
}

// objectiveFrom extracts and clamps the configured metric. Infinities
// (e.g. profit factor with zero losing trades) are clamped to the
// sentinel magnitude so downstream variance math stays finite.
func (s *search) objectiveFrom(m models.Metrics) float64 {
	var v float64
	switch s.cfg.Objective {
	case ObjectiveSortino:
		v = m.Sortino
	case ObjectiveCalmar:
		v = m.Calmar
	case ObjectiveTotalReturn:
		v = m.TotalReturn
	case ObjectiveProfitFactor:
		v = m.ProfitFactor
	default:
		v = m.Sharpe
	}
	if math.IsNaN(v) {
		return s.worst()
	}
	return math.Max(-worstObjective, math.Min(v, worstObjective))
}

// trialConfig clones the base config template for one trial.
func (s *search) trialConfig(params models.ParamSet, split models.DateRange) (models.BacktestConfig, error) {
	var cfg models.BacktestConfig
	if err := copier.CopyWithOption(&cfg, &s.cfg.Base, copier.Option{DeepCopy: true}); err != nil {
		return cfg, fmt.Errorf("clone config template: %w", err)
	}
	cfg.Range = split
	cfg.Params = params.Clone()
	return cfg, nil
}

// evaluate runs one parameter vector on one split with a fresh simulator
// and returns the (uncommitted) trial. Per-trial failures are isolated:
// a strategy error or timeout produces a failed trial with the sentinel
// objective, never an error out of the sweep.
func (s *search) evaluate(ctx context.Context, number int, params models.ParamSet, split models.Split, r models.DateRange) models.OptimizationTrial {
	trial := models.OptimizationTrial{
		Number: number,
		Params: params.Clone(),
		Split:  split,
		Status: models.StatusFailed,
	}

	cfg, err := s.trialConfig(params, r)
	if err != nil {
		trial.Objective = s.worst()
		trial.Error = err.Error()
		return trial
	}
	strategy, err := s.cfg.Factory(params)
	if err != nil {
		trial.Objective = s.worst()
		trial.Error = fmt.Sprintf("build strategy: %v", err)
		return trial
	}
	engine, err := NewBacktestEngine(cfg, s.cfg.Provider, strategy)
	if err != nil {
		trial.Objective = s.worst()
		trial.Error = err.Error()
		return trial
	}

	result, err := s.runWithTimeout(ctx, engine)
	if err != nil {
		trial.Objective = s.worst()
		trial.Error = err.Error()
		if errors.Is(err, ErrTrialTimeout) {
			log.Warn().Int("trial", number).Str("params", params.Key()).
				Dur("timeout", s.cfg.TrialTimeout).Msg("trial timed out")
		} else {
			log.Warn().Int("trial", number).Str("params", params.Key()).
				Err(err).Msg("trial failed")
		}
		return trial
	}
	trial.Result = result
	trial.Objective = s.objectiveFrom(result.Metrics)
	trial.Status = result.Status
	return trial
}

// runWithTimeout executes one engine run under the per-trial budget. A
// timed-out run is abandoned: the engine observes the cancelled context
// and exits, but its state is trial-local so nothing shared is corrupted.
func (s *search) runWithTimeout(ctx context.Context, engine *BacktestEngine) (*models.BacktestResult, error) {
	if s.cfg.TrialTimeout <= 0 {
		return engine.Run(ctx)
	}
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.TrialTimeout)
	defer cancel()

	type outcome struct {
		result *models.BacktestResult
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		result, err := engine.Run(runCtx)
		ch <- outcome{result, err}
	}()
	select {
	case out := <-ch:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return nil, ErrTrialTimeout
		}
		return out.result, out.err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTrialTimeout
		}
		return nil, runCtx.Err()
	}
}

// commit appends a finished trial to the history and updates the running
// best. Trials are committed only on completion; an abandoned in-flight
// trial never touches the history.
func (s *search) commit(trial models.OptimizationTrial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trials = append(s.trials, trial)
	if trial.Split != models.SplitTrain {
		return
	}
	if s.best == nil || s.better(trial.Objective, s.best.Objective) {
		t := trial
		s.best = &t
		s.sinceImprove = 0
		log.Info().Int("trial", trial.Number).Float64("objective", trial.Objective).
			Str("params", trial.Params.Key()).Msg("new best")
	} else {
		s.sinceImprove++
	}
}

// exhausted reports whether early stopping should end the search.
func (s *search) exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Patience > 0 && s.best != nil && s.sinceImprove >= s.cfg.Patience
}

func (s *search) addIssue(code, msg string) {
	s.mu.Lock()
	s.issues = append(s.issues, models.Issue{Code: code, Message: msg})
	s.mu.Unlock()
}

// finish runs the mandatory validation pass on the best candidate (plus
// the optional test split) and assembles the result. It is the only exit
// path from Searching, so Validating can never be skipped.
func (s *search) finish(ctx context.Context) (*models.OptimizationResult, error) {
	s.setState(StateValidating)
	defer s.setState(StateDone)

	s.mu.Lock()
	best := s.best
	trialCount := len(s.trials)
	started := s.started
	s.mu.Unlock()

	if best == nil {
		return nil, inputErrorf("no trials completed; nothing to validate")
	}

	s.checkValidationWindow(ctx)

	valTrial := s.evaluate(ctx, trialCount, best.Params, models.SplitValidation, s.cfg.Validation)
	s.commit(valTrial)
	if valTrial.Status == models.StatusFailed {
		s.addIssue("validation_failed", valTrial.Error)
	}

	var testObjective *float64
	if s.cfg.Test != nil {
		testTrial := s.evaluate(ctx, trialCount+1, best.Params, models.SplitTest, *s.cfg.Test)
		s.commit(testTrial)
		v := testTrial.Objective
		testObjective = &v
	}

	s.mu.Lock()
	trials := s.trials
	issues := s.issues
	s.mu.Unlock()

	status := models.StatusSuccess
	for _, trial := range trials {
		if trial.Status == models.StatusFailed {
			status = models.StatusPartial
			break
		}
	}

	result := &models.OptimizationResult{
		ID:                  uuid.New().String(),
		BestParams:          best.Params,
		TrainObjective:      best.Objective,
		ValidationObjective: valTrial.Objective,
		TestObjective:       testObjective,
		Trials:              trials,
		TrialCount:          len(trials),
		ParameterImportance: ParameterImportance(trials, s.cfg.Space),
		ExecutionTime:       time.Since(started),
		Status:              status,
		Issues:              issues,
	}
	log.Info().Str("params", best.Params.Key()).
		Float64("train", result.TrainObjective).
		Float64("validation", result.ValidationObjective).
		Int("trials", result.TrialCount).
		Dur("elapsed", result.ExecutionTime).Msg("optimization finished")
	return result, nil
}

// checkValidationWindow flags validation ranges too short for metrics
// like Sharpe to mean much. The validation still runs.
func (s *search) checkValidationWindow(ctx context.Context) {
	days, err := s.cfg.Provider.TradingDays(ctx, s.cfg.Validation.Start, s.cfg.Validation.End)
	if err != nil {
		return
	}
	if len(days) < s.cfg.MinValidationDays {
		s.addIssue("short_validation_window", fmt.Sprintf(
			"validation range has %d trading days, below the %d-day minimum",
			len(days), s.cfg.MinValidationDays))
	}
}

// ParameterImportance estimates how much each parameter explains the
// spread of train objectives via between-group variance decomposition:
// trials are grouped by the parameter's value and the weighted variance
// of group means is normalized across parameters to sum to 1. This is an
// approximation that ignores interaction effects.
func ParameterImportance(trials []models.OptimizationTrial, space map[string]models.ParameterSpec) map[string]float64 {
	var objectives []float64
	var train []models.OptimizationTrial
	for _, t := range trials {
		if t.Split == models.SplitTrain {
			train = append(train, t)
			objectives = append(objectives, t.Objective)
		}
	}
	importance := make(map[string]float64, len(space))
	if len(train) < 2 {
		for name := range space {
			importance[name] = 0
		}
		return importance
	}
	grand := stat.Mean(objectives, nil)

	var total float64
	for name := range space {
		groups := make(map[string][]float64)
		for _, t := range train {
			key := fmt.Sprintf("%v", t.Params[name])
			groups[key] = append(groups[key], t.Objective)
		}
		var between float64
		for _, vals := range groups {
			mean := stat.Mean(vals, nil)
			weight := float64(len(vals)) / float64(len(train))
			between += weight * (mean - grand) * (mean - grand)
		}
		importance[name] = between
		total += between
	}
	if total > 0 {
		for name := range importance {
			importance[name] /= total
		}
	}
	return importance
}

// sortedNames returns the parameter names in deterministic order; every
// optimizer iterates the space this way so runs are reproducible.
func sortedNames(space map[string]models.ParameterSpec) []string {
	names := make([]string, 0, len(space))
	for name := range space {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
