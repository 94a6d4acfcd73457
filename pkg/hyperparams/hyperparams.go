// Package hyperparams describes a concrete embedding-model configuration and
// the closed set of loss, regularizer and optimizer kinds together with the
// parameter names each of them accepts.
package hyperparams

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// LossKind names a training loss.
type LossKind string

const (
	LossPairwise        LossKind = "pairwise"
	LossNLL             LossKind = "nll"
	LossAbsoluteMargin  LossKind = "absolute_margin"
	LossSelfAdversarial LossKind = "self_adversarial"
)

// RegularizerKind names a regularizer.
type RegularizerKind string

const (
	RegularizerNone RegularizerKind = "None"
	RegularizerLP   RegularizerKind = "LP"
)

// OptimizerKind names an optimizer.
type OptimizerKind string

const (
	OptimizerSGD     OptimizerKind = "sgd"
	OptimizerAdagrad OptimizerKind = "adagrad"
	OptimizerDecay   OptimizerKind = "decay"
)

var lossParams = map[LossKind][]string{
	LossPairwise:        {"margin"},
	LossNLL:             {},
	LossAbsoluteMargin:  {"margin"},
	LossSelfAdversarial: {"margin", "alpha"},
}

var regularizerParams = map[RegularizerKind][]string{
	RegularizerNone: {},
	RegularizerLP:   {"p", "lambda"},
}

var optimizers = map[OptimizerKind]struct{}{
	OptimizerSGD:     {},
	OptimizerAdagrad: {},
	OptimizerDecay:   {},
}

// Params returns the parameter names accepted by the loss.
func (k LossKind) Params() ([]string, error) {
	p, ok := lossParams[k]
	if !ok {
		return nil, fmt.Errorf("loss %q (known: %s): %w", string(k), known(lossParams), knowledge.ErrInvalidArgument)
	}
	return p, nil
}

// Params returns the parameter names accepted by the regularizer.
func (k RegularizerKind) Params() ([]string, error) {
	p, ok := regularizerParams[k]
	if !ok {
		return nil, fmt.Errorf("regularizer %q (known: %s): %w", string(k), known(regularizerParams), knowledge.ErrInvalidArgument)
	}
	return p, nil
}

// Validate fails for unknown optimizers.
func (k OptimizerKind) Validate() error {
	if _, ok := optimizers[k]; !ok {
		return fmt.Errorf("optimizer %q (known: %s): %w", string(k), known(optimizers), knowledge.ErrInvalidArgument)
	}
	return nil
}

func known[K ~string, V any](m map[K]V) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Hyperparams is one concrete configuration of an embedding model.
type Hyperparams struct {
	BatchesCount int      `yaml:"batches_count"`
	Seed         *int64   `yaml:"seed,omitempty"`
	Epochs       int      `yaml:"epochs"`
	K            int      `yaml:"k"`
	Eta          int      `yaml:"eta"`
	Verbose      bool     `yaml:"verbose"`
	Loss         LossKind `yaml:"loss"`

	LossParams           map[string]float64 `yaml:"loss_params"`
	EmbeddingModelParams map[string]float64 `yaml:"embedding_model_params"`

	Regularizer       RegularizerKind    `yaml:"regularizer"`
	RegularizerParams map[string]float64 `yaml:"regularizer_params"`

	Optimizer       OptimizerKind   `yaml:"optimizer"`
	OptimizerParams OptimizerParams `yaml:"optimizer_params"`
}

// OptimizerParams holds the optimizer settings.
type OptimizerParams struct {
	LR float64 `yaml:"lr"`
}

// Default returns the configuration used when nothing is specified.
func Default() Hyperparams {
	return Hyperparams{
		BatchesCount:         100,
		Epochs:               100,
		K:                    100,
		Eta:                  2,
		Loss:                 LossNLL,
		LossParams:           map[string]float64{},
		EmbeddingModelParams: map[string]float64{},
		Regularizer:          RegularizerNone,
		RegularizerParams:    map[string]float64{},
		Optimizer:            OptimizerAdagrad,
		OptimizerParams:      OptimizerParams{LR: 0.1},
	}
}

// Validate checks sizes and component kinds.
func (h Hyperparams) Validate() error {
	switch {
	case h.BatchesCount <= 0:
		return fmt.Errorf("batches_count must be positive: %w", knowledge.ErrInvalidArgument)
	case h.Epochs < 0:
		return fmt.Errorf("epochs must not be negative: %w", knowledge.ErrInvalidArgument)
	case h.K <= 0:
		return fmt.Errorf("k must be positive: %w", knowledge.ErrInvalidArgument)
	case h.Eta <= 0:
		return fmt.Errorf("eta must be positive: %w", knowledge.ErrInvalidArgument)
	case h.OptimizerParams.LR <= 0:
		return fmt.Errorf("optimizer lr must be positive: %w", knowledge.ErrInvalidArgument)
	}
	if _, err := h.Loss.Params(); err != nil {
		return err
	}
	if _, err := h.Regularizer.Params(); err != nil {
		return err
	}
	return h.Optimizer.Validate()
}

// Param returns params[name], or def when absent.
func Param(params map[string]float64, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return def
}

// String renders the configuration on one line for logs.
func (h Hyperparams) String() string {
	return fmt.Sprintf("batches_count=%d epochs=%d k=%d eta=%d loss=%s%v regularizer=%s%v optimizer=%s(lr=%g) model=%v",
		h.BatchesCount, h.Epochs, h.K, h.Eta,
		h.Loss, h.LossParams, h.Regularizer, h.RegularizerParams,
		h.Optimizer, h.OptimizerParams.LR, h.EmbeddingModelParams)
}
