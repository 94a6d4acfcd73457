package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

const runFile = `
model: ComplEx
data:
  train: data/train.txt
  valid: data/valid.txt
  test: data/test.txt
params:
  k: 200
  eta: 10
  seed: 0
  loss: pairwise
  loss_params:
    margin: 2
grid:
  batches_count: [50]
  seed: 0
  epochs: [4000]
  k: [100, 200]
  eta: [5, 10]
  loss: [pairwise, nll]
  loss_params:
    margin: [2]
  embedding_model_params: {}
  regularizer: [LP, None]
  regularizer_params:
    p: [1, 3]
    lambda: [0.0001, 0.001]
  optimizer: [adagrad, sgd]
  optimizer_params:
    lr: [0.1, 0.01]
evaluation:
  filter: false
  corrupt_side: o
  early_stopping:
    criteria: hits10
    burn_in: 50
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(runFile))
	require.NoError(t, err)

	assert.Equal(t, "ComplEx", cfg.Model)
	assert.Equal(t, "data/valid.txt", cfg.Data.Valid)

	assert.Equal(t, 200, cfg.Params.K)
	assert.Equal(t, 10, cfg.Params.Eta)
	assert.Equal(t, hyperparams.LossPairwise, cfg.Params.Loss)
	assert.Equal(t, 2.0, cfg.Params.LossParams["margin"])
	require.NotNil(t, cfg.Params.Seed)
	assert.Zero(t, *cfg.Params.Seed)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Params.Epochs)
	assert.Equal(t, hyperparams.OptimizerAdagrad, cfg.Params.Optimizer)

	require.NoError(t, cfg.Grid.Validate())
	assert.Equal(t, []int{100, 200}, cfg.Grid.K)
	assert.Equal(t, []hyperparams.RegularizerKind{hyperparams.RegularizerLP, hyperparams.RegularizerNone}, cfg.Grid.Regularizer)
	assert.Equal(t, []float64{0.1, 0.01}, cfg.Grid.OptimizerParams["lr"])
	assert.NotNil(t, cfg.Grid.EmbeddingModelParams)

	assert.False(t, cfg.Evaluation.Filter)
	assert.Equal(t, corrupt.Object, cfg.Evaluation.CorruptSide)
	require.NotNil(t, cfg.Evaluation.EarlyStopping)
	assert.Equal(t, "hits10", cfg.Evaluation.EarlyStopping.Criteria)
	assert.Equal(t, 50, cfg.Evaluation.EarlyStopping.BurnIn)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("data:\n  train: kg.txt\n"))
	require.NoError(t, err)
	assert.Equal(t, "TransE", cfg.Model)
	assert.True(t, cfg.Evaluation.Filter)
	assert.Equal(t, corrupt.SubjectObject, cfg.Evaluation.CorruptSide)
	assert.Nil(t, cfg.Evaluation.EarlyStopping)
	assert.Equal(t, hyperparams.Default().K, cfg.Params.K)
}

func TestParseInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"side":     "evaluation:\n  corrupt_side: p\n",
		"criteria": "evaluation:\n  early_stopping:\n    criteria: mr\n",
		"loss":     "params:\n  loss: hinge\n",
		"model":    "model: \"\"\n",
	} {
		_, err := Parse([]byte(doc))
		assert.ErrorIs(t, err, knowledge.ErrInvalidArgument, name)
	}

	_, err := Parse([]byte("params: [1, 2"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(runFile), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ComplEx", cfg.Model)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
