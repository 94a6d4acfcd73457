// Package selection runs hyperparameter grid search and ranking-based model
// selection for knowledge graph embedding models.
package selection

import (
	"fmt"
	"iter"
	"maps"

	"go.uber.org/zap"

	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Grid lists the candidate values of every hyperparameter. Nil fields are
// absent keys.
type Grid struct {
	BatchesCount []int  `yaml:"batches_count"`
	Seed         *int64 `yaml:"seed"`
	Epochs       []int  `yaml:"epochs"`
	K            []int  `yaml:"k"`
	Eta          []int  `yaml:"eta"`
	Verbose      bool   `yaml:"verbose"`

	Loss       []hyperparams.LossKind `yaml:"loss"`
	LossParams map[string][]float64   `yaml:"loss_params"`

	EmbeddingModelParams map[string][]float64 `yaml:"embedding_model_params"`

	Regularizer       []hyperparams.RegularizerKind `yaml:"regularizer"`
	RegularizerParams map[string][]float64          `yaml:"regularizer_params"`

	Optimizer       []hyperparams.OptimizerKind `yaml:"optimizer"`
	OptimizerParams map[string][]float64        `yaml:"optimizer_params"`
}

// ModelSpec declares an embedding model and the parameter names it accepts.
type ModelSpec interface {
	Name() string
	Params() []string
}

// Validate fails with ErrInvalidArgument when a list key is missing or
// empty, or when no learning rate is given.
func (g Grid) Validate() error {
	lists := []struct {
		key string
		n   int
	}{
		{"batches_count", len(g.BatchesCount)},
		{"epochs", len(g.Epochs)},
		{"k", len(g.K)},
		{"eta", len(g.Eta)},
		{"loss", len(g.Loss)},
		{"regularizer", len(g.Regularizer)},
		{"optimizer", len(g.Optimizer)},
	}
	for _, l := range lists {
		if l.n == 0 {
			return fmt.Errorf("please pass values for key %s: %w", l.key, knowledge.ErrInvalidArgument)
		}
	}
	if len(g.OptimizerParams["lr"]) == 0 {
		return fmt.Errorf("please pass values for optimizer parameter lr: %w", knowledge.ErrInvalidArgument)
	}
	return nil
}

// withEmptyParams returns a copy of g whose absent parameter maps are empty.
func (g Grid) withEmptyParams() Grid {
	if g.LossParams == nil {
		g.LossParams = map[string][]float64{}
	}
	if g.EmbeddingModelParams == nil {
		g.EmbeddingModelParams = map[string][]float64{}
	}
	if g.RegularizerParams == nil {
		g.RegularizerParams = map[string][]float64{}
	}
	if g.OptimizerParams == nil {
		g.OptimizerParams = map[string][]float64{}
	}
	return g
}

// missingKey names the first required key absent from g.
func (g Grid) missingKey() string {
	switch {
	case g.BatchesCount == nil:
		return "batches_count"
	case g.Epochs == nil:
		return "epochs"
	case g.K == nil:
		return "k"
	case g.Eta == nil:
		return "eta"
	case g.Regularizer == nil:
		return "regularizer"
	case g.RegularizerParams == nil:
		return "regularizer_params"
	case g.Optimizer == nil:
		return "optimizer"
	case g.OptimizerParams == nil:
		return "optimizer_params"
	case g.OptimizerParams["lr"] == nil:
		return "optimizer_params.lr"
	case g.Loss == nil:
		return "loss"
	case g.LossParams == nil:
		return "loss_params"
	case g.EmbeddingModelParams == nil:
		return "embedding_model_params"
	}
	return ""
}

// choice is one kind of a component together with concrete parameters.
type choice[K any] struct {
	kind   K
	params map[string]float64
}

// permutations expands every kind against the values given in grid for the
// parameter names it declares. Declared names absent from grid are left to
// the component's defaults.
func permutations[K ~string](kinds []K, declared func(K) ([]string, error), grid map[string][]float64) ([]choice[K], error) {
	out := make([]choice[K], 0)
	for _, kind := range kinds {
		names, err := declared(kind)
		if err != nil {
			return nil, err
		}
		present := make([]string, 0, len(names))
		values := make([][]float64, 0, len(names))
		for _, name := range names {
			if v, ok := grid[name]; ok {
				present = append(present, name)
				values = append(values, v)
			}
		}
		for _, combo := range product(values) {
			params := make(map[string]float64, len(present))
			for i, name := range present {
				params[name] = combo[i]
			}
			out = append(out, choice[K]{kind: kind, params: params})
		}
	}
	return out, nil
}

// product returns the Cartesian product of values; the product of no lists
// is a single empty combination.
func product(values [][]float64) [][]float64 {
	combos := [][]float64{{}}
	for _, vs := range values {
		next := make([][]float64, 0, len(combos)*len(vs))
		for _, c := range combos {
			for _, v := range vs {
				nc := make([]float64, len(c), len(c)+1)
				copy(nc, c)
				next = append(next, append(nc, v))
			}
		}
		combos = next
	}
	return combos
}

type modelKind string

// GridSearchNextHyperparam lazily enumerates every configuration of grid
// for model. The sequence can be ranged over any number of times.
//
// A grid missing a required key, or naming an unknown component, yields
// nothing; the problem is logged instead of returned, so callers should
// check for an empty sequence.
func GridSearchNextHyperparam(logger *zap.Logger, model ModelSpec, grid Grid) iter.Seq[hyperparams.Hyperparams] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(yield func(hyperparams.Hyperparams) bool) {
		logger.Debug("starting gridsearch over hyperparameters", zap.String("model", model.Name()))

		if key := grid.missingKey(); key != "" {
			logger.Error("hyperparameters are missing from the grid", zap.String("key", key))
			return
		}

		regs, err := permutations(grid.Regularizer, hyperparams.RegularizerKind.Params, grid.RegularizerParams)
		if err != nil {
			logger.Error("invalid regularizer in grid", zap.Error(err))
			return
		}
		losses, err := permutations(grid.Loss, hyperparams.LossKind.Params, grid.LossParams)
		if err != nil {
			logger.Error("invalid loss in grid", zap.Error(err))
			return
		}
		models, _ := permutations([]modelKind{modelKind(model.Name())},
			func(modelKind) ([]string, error) { return model.Params(), nil },
			grid.EmbeddingModelParams)

		for _, batches := range grid.BatchesCount {
			for _, epochs := range grid.Epochs {
				for _, k := range grid.K {
					for _, eta := range grid.Eta {
						for _, reg := range regs {
							for _, opt := range grid.Optimizer {
								for _, lr := range grid.OptimizerParams["lr"] {
									for _, loss := range losses {
										for _, m := range models {
											h := hyperparams.Hyperparams{
												BatchesCount:         batches,
												Epochs:               epochs,
												K:                    k,
												Eta:                  eta,
												Verbose:              grid.Verbose,
												Loss:                 loss.kind,
												LossParams:           maps.Clone(loss.params),
												EmbeddingModelParams: maps.Clone(m.params),
												Regularizer:          reg.kind,
												RegularizerParams:    maps.Clone(reg.params),
												Optimizer:            opt,
												OptimizerParams:      hyperparams.OptimizerParams{LR: lr},
											}
											if grid.Seed != nil && *grid.Seed >= 0 {
												seed := *grid.Seed
												h.Seed = &seed
											}
											if !yield(h) {
												return
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}
