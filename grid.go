package sutra

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sutralabs/sutra/models"
)

// GridSearchOptimizer enumerates the full Cartesian product of the
// parameter space and evaluates every combination on the train split.
// Trials are independent, so batches of NJobs run concurrently on a
// bounded worker pool; trials are still committed in enumeration order,
// which keeps the history byte-for-byte reproducible. The product grows
// combinatorially — grid search is the right tool up to a few hundred
// combinations, after that prefer the Bayesian optimizer.
type GridSearchOptimizer struct {
	*search
}

func NewGridSearchOptimizer(cfg OptimizerConfig) (*GridSearchOptimizer, error) {
	s, err := newSearch(cfg)
	if err != nil {
		return nil, err
	}
	return &GridSearchOptimizer{search: s}, nil
}

func (g *GridSearchOptimizer) Optimize(ctx context.Context) (*models.OptimizationResult, error) {
	g.beginSearch()
	combos := expandGrid(g.cfg.Space)
	log.Info().Int("combinations", len(combos)).Int("n_jobs", g.cfg.NJobs).
		Msg("starting grid search")

	// Batches of NJobs: inside a batch trials run concurrently and are
	// committed in index order afterwards; between batches we check for
	// cancellation and early stopping.
batches:
	for offset := 0; offset < len(combos); offset += g.cfg.NJobs {
		select {
		case <-ctx.Done():
			g.addIssue("cancelled", ctx.Err().Error())
			break batches
		default:
		}
		if g.exhausted() {
			log.Info().Int("patience", g.cfg.Patience).Msg("early stopping grid search")
			break batches
		}

		end := offset + g.cfg.NJobs
		if end > len(combos) {
			end = len(combos)
		}
		batch := combos[offset:end]
		results := make([]models.OptimizationTrial, len(batch))

		var eg errgroup.Group
		eg.SetLimit(g.cfg.NJobs)
		for i := range batch {
			i := i
			number := offset + i
			eg.Go(func() error {
				results[i] = g.evaluate(ctx, number, batch[i], models.SplitTrain, g.cfg.Train)
				return nil
			})
		}
		_ = eg.Wait() // workers never return errors; failures live on the trial

		for _, trial := range results {
			g.commit(trial)
		}
	}

	return g.finish(ctx)
}

// expandGrid enumerates the Cartesian product in name-sorted,
// first-name-slowest order. A numeric spec with min == max contributes
// exactly one point.
func expandGrid(space map[string]models.ParameterSpec) []models.ParamSet {
	names := sortedNames(space)
	combos := []models.ParamSet{{}}
	for _, name := range names {
		values := space[name].GridValues()
		next := make([]models.ParamSet, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				c := combo.Clone()
				c[name] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}
