package hyperparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Hyperparams)
	}{
		{"batches", func(h *Hyperparams) { h.BatchesCount = 0 }},
		{"k", func(h *Hyperparams) { h.K = 0 }},
		{"eta", func(h *Hyperparams) { h.Eta = 0 }},
		{"lr", func(h *Hyperparams) { h.OptimizerParams.LR = 0 }},
		{"loss", func(h *Hyperparams) { h.Loss = "hinge" }},
		{"regularizer", func(h *Hyperparams) { h.Regularizer = "L3" }},
		{"optimizer", func(h *Hyperparams) { h.Optimizer = "adam" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Default()
			tt.mutate(&h)
			assert.ErrorIs(t, h.Validate(), knowledge.ErrInvalidArgument)
		})
	}
}

func TestComponentParams(t *testing.T) {
	p, err := LossSelfAdversarial.Params()
	require.NoError(t, err)
	assert.Equal(t, []string{"margin", "alpha"}, p)

	p, err = RegularizerLP.Params()
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "lambda"}, p)

	_, err = LossKind("bogus").Params()
	assert.ErrorContains(t, err, "absolute_margin, nll, pairwise, self_adversarial")
}

func TestParam(t *testing.T) {
	params := map[string]float64{"margin": 2}
	assert.Equal(t, 2.0, Param(params, "margin", 1))
	assert.Equal(t, 1.0, Param(params, "alpha", 1))
	assert.Equal(t, 1.0, Param(nil, "alpha", 1))
}
