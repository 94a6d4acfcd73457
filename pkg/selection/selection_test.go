package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

type fakeSpec struct{}

func (fakeSpec) Name() string     { return "fake" }
func (fakeSpec) Params() []string { return []string{"norm"} }

// fakeModel ranks every triple at position K of its configuration.
type fakeModel struct {
	id       int
	params   hyperparams.Hyperparams
	mappings knowledge.Mappings
	fits     [][]knowledge.RawTriple
	es       []*evaluation.EarlyStopping
	sides    []corrupt.Side
}

func (m *fakeModel) Mappings() knowledge.Mappings { return m.mappings }

func (m *fakeModel) Predict(_ context.Context, _ knowledge.Triple, p evaluation.Protocol) (float64, int, error) {
	m.sides = append(m.sides, p.CorruptSide)
	return 0, m.params.K, nil
}

func (m *fakeModel) Fit(_ context.Context, train []knowledge.RawTriple, es *evaluation.EarlyStopping) error {
	m.fits = append(m.fits, train)
	m.es = append(m.es, es)
	m.mappings = knowledge.CreateMappings(train)
	return nil
}

type fakeFactory struct {
	fakeSpec
	built []*fakeModel
}

func (f *fakeFactory) New(h hyperparams.Hyperparams, _ *zap.Logger) (Trainable, error) {
	m := &fakeModel{id: len(f.built), params: h}
	f.built = append(f.built, m)
	return m, nil
}

func fullGrid() Grid {
	seed := int64(0)
	return Grid{
		BatchesCount:         []int{10, 20},
		Seed:                 &seed,
		Epochs:               []int{5},
		K:                    []int{50, 100},
		Eta:                  []int{2},
		Loss:                 []hyperparams.LossKind{hyperparams.LossPairwise, hyperparams.LossNLL},
		LossParams:           map[string][]float64{"margin": {1, 2}},
		EmbeddingModelParams: map[string][]float64{"norm": {1, 2}, "unused": {7}},
		Regularizer:          []hyperparams.RegularizerKind{hyperparams.RegularizerNone, hyperparams.RegularizerLP},
		RegularizerParams:    map[string][]float64{"lambda": {1e-4, 1e-5}},
		Optimizer:            []hyperparams.OptimizerKind{hyperparams.OptimizerAdagrad, hyperparams.OptimizerSGD},
		OptimizerParams:      map[string][]float64{"lr": {0.1, 0.01}},
	}
}

func collect(grid Grid, logger *zap.Logger) []hyperparams.Hyperparams {
	var out []hyperparams.Hyperparams
	for h := range GridSearchNextHyperparam(logger, fakeSpec{}, grid) {
		out = append(out, h)
	}
	return out
}

func TestGridSearchExpansion(t *testing.T) {
	configs := collect(fullGrid(), nil)

	// batches 2 * epochs 1 * k 2 * eta 1 * regularizers (None + LP x2 lambda) 3
	// * optimizers 2 * lr 2 * losses (pairwise x2 margin + nll) 3 * norm 2
	require.Len(t, configs, 2*1*2*1*3*2*2*3*2)

	first := configs[0]
	assert.Equal(t, 10, first.BatchesCount)
	assert.Equal(t, hyperparams.RegularizerNone, first.Regularizer)
	assert.Empty(t, first.RegularizerParams)
	assert.Equal(t, hyperparams.LossPairwise, first.Loss)
	assert.Equal(t, map[string]float64{"margin": 1}, first.LossParams)
	assert.Equal(t, map[string]float64{"norm": 1}, first.EmbeddingModelParams)
	require.NotNil(t, first.Seed)
	assert.Equal(t, int64(0), *first.Seed)

	seen := map[string]bool{}
	for _, c := range configs {
		key := c.String()
		assert.False(t, seen[key], "duplicate configuration %s", key)
		seen[key] = true
		if c.Regularizer == hyperparams.RegularizerLP {
			assert.Contains(t, c.RegularizerParams, "lambda")
			assert.NotContains(t, c.RegularizerParams, "p")
		}
		if c.Loss == hyperparams.LossNLL {
			assert.Empty(t, c.LossParams)
		}
	}
}

func TestGridSearchRestartableAndLazy(t *testing.T) {
	seq := GridSearchNextHyperparam(nil, fakeSpec{}, fullGrid())

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, count(), count())

	taken := 0
	for range seq {
		taken++
		if taken == 3 {
			break
		}
	}
	assert.Equal(t, 3, taken)
}

func TestGridSearchMissingKey(t *testing.T) {
	grid := fullGrid()
	grid.Eta = nil

	core, logs := observer.New(zapcore.DebugLevel)
	assert.Empty(t, collect(grid, zap.New(core)))

	entries := logs.FilterMessage("hyperparameters are missing from the grid").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "eta", entries[0].ContextMap()["key"])

	grid = fullGrid()
	grid.LossParams = nil
	assert.Empty(t, collect(grid, nil))

	grid = fullGrid()
	grid.Loss = []hyperparams.LossKind{"hinge"}
	assert.Empty(t, collect(grid, nil))
}

func TestGridSearchNegativeSeedOmitted(t *testing.T) {
	grid := fullGrid()
	seed := int64(-1)
	grid.Seed = &seed
	for _, c := range collect(grid, nil) {
		assert.Nil(t, c.Seed)
	}
}

func TestGridValidate(t *testing.T) {
	require.NoError(t, fullGrid().Validate())

	grid := fullGrid()
	grid.K = []int{}
	assert.ErrorIs(t, grid.Validate(), knowledge.ErrInvalidArgument)

	grid = fullGrid()
	grid.OptimizerParams = map[string][]float64{}
	assert.ErrorIs(t, grid.Validate(), knowledge.ErrInvalidArgument)
}

func dataset() Dataset {
	return Dataset{
		Train: []knowledge.RawTriple{{"a", "r", "b"}, {"b", "r", "c"}, {"c", "r", "a"}},
		Valid: []knowledge.RawTriple{{"a", "r", "c"}},
		Test:  []knowledge.RawTriple{{"b", "r", "a"}, {"c", "r", "b"}},
	}
}

func selectionGrid(ks ...int) Grid {
	return Grid{
		BatchesCount:    []int{1},
		Epochs:          []int{1},
		K:               ks,
		Eta:             []int{1},
		Loss:            []hyperparams.LossKind{hyperparams.LossNLL},
		Regularizer:     []hyperparams.RegularizerKind{hyperparams.RegularizerNone},
		Optimizer:       []hyperparams.OptimizerKind{hyperparams.OptimizerSGD},
		OptimizerParams: map[string][]float64{"lr": {0.1}},
	}
}

func TestSelectBestModelRanking(t *testing.T) {
	factory := &fakeFactory{}
	data := dataset()

	res, err := SelectBestModelRanking(context.Background(), factory, data, selectionGrid(4, 1, 2, 1), Options{
		UseTestForSelection: true,
	})
	require.NoError(t, err)
	require.Len(t, factory.built, 4)

	best := res.BestModel.(*fakeModel)
	assert.Equal(t, 1, best.id, "ties keep the earlier configuration")
	assert.Equal(t, 1, res.BestParams.K)
	assert.InDelta(t, 1.0, res.BestMRRTrain, 1e-12)

	require.Len(t, best.fits, 2)
	assert.Equal(t, data.Train, best.fits[0])
	assert.Equal(t, knowledge.Concat(data.Train, data.Valid), best.fits[1])
	assert.Nil(t, best.es[1])

	assert.Equal(t, []int{1, 1}, res.RanksTest)
	assert.InDelta(t, 1.0, res.MRRTest, 1e-12)

	for _, m := range factory.built {
		assert.Equal(t, corrupt.SubjectObject, m.sides[0])
	}
}

func TestSelectBestModelRankingDefaultProtocol(t *testing.T) {
	factory := &fakeFactory{}
	data := dataset()

	res, err := SelectBestModelRanking(context.Background(), factory, data, selectionGrid(3), Options{
		UseDefaultProtocol: true,
		UseFilter:          true,
		EarlyStopping:      true,
	})
	require.NoError(t, err)

	best := res.BestModel.(*fakeModel)
	assert.Equal(t, []int{3, 3, 3, 3}, res.RanksTest)
	assert.InDelta(t, 1.0/3, res.MRRTest, 1e-12)

	// validation selection ranks 1 triple per side, then the test set.
	assert.Equal(t, []corrupt.Side{corrupt.Subject, corrupt.Object, corrupt.Subject, corrupt.Subject, corrupt.Object, corrupt.Object}, best.sides)

	require.NotNil(t, best.es[0])
	assert.Equal(t, data.Valid, best.es[0].Valid)
}

func TestSelectBestModelRankingErrors(t *testing.T) {
	grid := selectionGrid(1)
	grid.Loss = nil
	_, err := SelectBestModelRanking(context.Background(), &fakeFactory{}, dataset(), grid, Options{})
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)

	_, err = SelectBestModelRanking(context.Background(), &fakeFactory{}, dataset(), selectionGrid(1), Options{CorruptSide: "x"})
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)

	grid = selectionGrid(1)
	grid.Loss = []hyperparams.LossKind{"hinge"}
	_, err = SelectBestModelRanking(context.Background(), &fakeFactory{}, dataset(), grid, Options{})
	assert.ErrorIs(t, err, ErrNoModelSelected)
}
