package sutra

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/MaxHalford/eaopt"
	"github.com/rs/zerolog/log"

	"github.com/sutralabs/sutra/models"
)

// EvolutionaryOptimizer searches the space with differential evolution
// over the unit hypercube, decoding each genome into a parameter vector.
// It satisfies the same contract as the other optimizers — propose next
// point given history, then validate the winner — and is handy when the
// objective surface is too rugged for a smooth surrogate. Seeded, hence
// reproducible; evaluation is kept sequential.
type EvolutionaryOptimizer struct {
	*search
}

func NewEvolutionaryOptimizer(cfg OptimizerConfig) (*EvolutionaryOptimizer, error) {
	s, err := newSearch(cfg)
	if err != nil {
		return nil, err
	}
	return &EvolutionaryOptimizer{search: s}, nil
}

func (e *EvolutionaryOptimizer) Optimize(ctx context.Context) (*models.OptimizationResult, error) {
	e.beginSearch()
	names := sortedNames(e.cfg.Space)

	pop := uint(10)
	if e.cfg.MaxTrials < 10 {
		pop = uint(e.cfg.MaxTrials)
	}
	steps := uint(e.cfg.MaxTrials) / pop
	if steps == 0 {
		steps = 1
	}

	var number int64
	var stopped atomic.Bool
	evaluate := func(x []float64) float64 {
		if stopped.Load() {
			return math.MaxFloat64
		}
		select {
		case <-ctx.Done():
			if stopped.CompareAndSwap(false, true) {
				e.addIssue("cancelled", ctx.Err().Error())
			}
			return math.MaxFloat64
		default:
		}
		if e.exhausted() {
			if stopped.CompareAndSwap(false, true) {
				log.Info().Int("patience", e.cfg.Patience).Msg("early stopping evolutionary search")
			}
			return math.MaxFloat64
		}

		params := decodeVector(x, names, e.cfg.Space)
		n := int(atomic.AddInt64(&number, 1)) - 1
		trial := e.evaluate(ctx, n, params, models.SplitTrain, e.cfg.Train)
		e.commit(trial)
		// eaopt minimizes; flip the sign when we are maximizing.
		if e.cfg.Direction == Minimize {
			return trial.Objective
		}
		return -trial.Objective
	}

	rng := rand.New(rand.NewSource(e.cfg.Seed))
	de, err := eaopt.NewDiffEvo(pop, steps, 0, 1, 0.5, 0.2, false, rng)
	if err != nil {
		return nil, err
	}
	log.Info().Uint("population", pop).Uint("generations", steps).
		Int64("seed", e.cfg.Seed).Msg("starting evolutionary search")
	if _, _, err := de.Minimize(evaluate, uint(len(names))); err != nil && !stopped.Load() {
		e.addIssue("sampler_error", err.Error())
	}

	return e.finish(ctx)
}

// decodeVector maps a genome in [0,1]^d onto the parameter space, with
// geometric interpolation for log-scale floats and index selection for
// categoricals.
func decodeVector(x []float64, names []string, space map[string]models.ParameterSpec) models.ParamSet {
	params := make(models.ParamSet, len(names))
	for i, name := range names {
		v := math.Max(0, math.Min(x[i], 1))
		spec := space[name]
		switch spec.Type {
		case models.ParamCategorical:
			idx := int(v * float64(len(spec.Choices)))
			if idx >= len(spec.Choices) {
				idx = len(spec.Choices) - 1
			}
			params[name] = spec.Choices[idx]
		default:
			var val float64
			if spec.LogScale {
				val = math.Exp(math.Log(spec.Min) + v*(math.Log(spec.Max)-math.Log(spec.Min)))
			} else {
				val = spec.Min + v*(spec.Max-spec.Min)
			}
			params[name] = spec.Clamp(val)
		}
	}
	return params
}
