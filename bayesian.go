package sutra

import (
	"context"
	"errors"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/rs/zerolog/log"

	"github.com/sutralabs/sutra/models"
)

// errStopSearch unwinds goptuna's optimize loop on cancellation or early
// stopping without poisoning the committed history.
var errStopSearch = errors.New("search stopped")

// BayesianOptimizer proposes each next parameter vector from a
// tree-structured Parzen estimator fit on the (parameters, objective)
// history, instead of exhausting a grid. It is inherently sequential:
// one coordinating loop drives trials one at a time, so a fixed seed and
// trial order make runs deterministic. Any other "propose next point
// given history" optimizer can stand in behind the same contract (see
// EvolutionaryOptimizer).
type BayesianOptimizer struct {
	*search
}

func NewBayesianOptimizer(cfg OptimizerConfig) (*BayesianOptimizer, error) {
	s, err := newSearch(cfg)
	if err != nil {
		return nil, err
	}
	return &BayesianOptimizer{search: s}, nil
}

func (b *BayesianOptimizer) Optimize(ctx context.Context) (*models.OptimizationResult, error) {
	b.beginSearch()

	direction := goptuna.StudyDirectionMaximize
	if b.cfg.Direction == Minimize {
		direction = goptuna.StudyDirectionMinimize
	}
	study, err := goptuna.CreateStudy(
		"sutra-tpe",
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(b.cfg.Seed))),
		goptuna.StudyOptionDirection(direction),
	)
	if err != nil {
		return nil, err
	}

	names := sortedNames(b.cfg.Space)
	number := 0
	objective := func(trial goptuna.Trial) (float64, error) {
		select {
		case <-ctx.Done():
			b.addIssue("cancelled", ctx.Err().Error())
			return 0, errStopSearch
		default:
		}
		if b.exhausted() {
			log.Info().Int("patience", b.cfg.Patience).Msg("early stopping TPE search")
			return 0, errStopSearch
		}

		params, err := suggestParams(trial, names, b.cfg.Space)
		if err != nil {
			return 0, err
		}
		t := b.evaluate(ctx, number, params, models.SplitTrain, b.cfg.Train)
		number++
		b.commit(t)
		return t.Objective, nil
	}

	log.Info().Int("max_trials", b.cfg.MaxTrials).Int64("seed", b.cfg.Seed).
		Msg("starting TPE search")
	if err := study.Optimize(objective, b.cfg.MaxTrials); err != nil && !errors.Is(err, errStopSearch) {
		// A broken surrogate step is isolated like any per-trial error;
		// the sweep still validates whatever it found.
		b.addIssue("sampler_error", err.Error())
	}

	return b.finish(ctx)
}

// suggestParams draws one parameter vector from the surrogate, in
// name-sorted order so the suggestion sequence is deterministic.
func suggestParams(trial goptuna.Trial, names []string, space map[string]models.ParameterSpec) (models.ParamSet, error) {
	params := make(models.ParamSet, len(names))
	for _, name := range names {
		spec := space[name]
		switch spec.Type {
		case models.ParamCategorical:
			v, err := trial.SuggestCategorical(name, spec.Choices)
			if err != nil {
				return nil, err
			}
			params[name] = v
		case models.ParamInt:
			v, err := trial.SuggestInt(name, int(spec.Min), int(spec.Max))
			if err != nil {
				return nil, err
			}
			params[name] = v
		default:
			var v float64
			var err error
			if spec.LogScale {
				v, err = trial.SuggestLogFloat(name, spec.Min, spec.Max)
			} else {
				v, err = trial.SuggestFloat(name, spec.Min, spec.Max)
			}
			if err != nil {
				return nil, err
			}
			params[name] = v
		}
	}
	return params, nil
}
