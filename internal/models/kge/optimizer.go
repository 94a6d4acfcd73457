package kge

import (
	"math"

	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// optimizer turns a loss gradient on the score of a triple into an
// embedding update. g is the ascent direction: positive g raises the score.
type optimizer interface {
	step(e Embedder, t knowledge.Triple, g float64)

	// advance reports the fraction of training completed.
	advance(progress float64)
}

func newOptimizer(h hyperparams.Hyperparams, numEntities, numRelations int) (optimizer, error) {
	if err := h.Optimizer.Validate(); err != nil {
		return nil, err
	}
	lr := h.OptimizerParams.LR
	switch h.Optimizer {
	case hyperparams.OptimizerSGD:
		return &sgd{lr: lr}, nil
	case hyperparams.OptimizerDecay:
		return &decay{lr: lr, current: lr}, nil
	default:
		return &adagrad{
			lr:        lr,
			entities:  make([]float64, numEntities),
			relations: make([]float64, numRelations),
		}, nil
	}
}

type sgd struct{ lr float64 }

func (o *sgd) step(e Embedder, t knowledge.Triple, g float64) {
	if g != 0 {
		e.Step(t, o.lr*g)
	}
}

func (o *sgd) advance(float64) {}

// decay lowers the learning rate linearly with training progress down to
// a floor of 1e-4 times the initial rate.
type decay struct{ lr, current float64 }

func (o *decay) step(e Embedder, t knowledge.Triple, g float64) {
	if g != 0 {
		e.Step(t, o.current*g)
	}
}

func (o *decay) advance(progress float64) {
	o.current = o.lr * (1 - progress)
	if floor := o.lr * 0.0001; o.current < floor {
		o.current = floor
	}
}

// adagrad keeps squared gradient sums per entity and relation. A triple
// steps with the mean accumulator of its three members.
type adagrad struct {
	lr        float64
	entities  []float64
	relations []float64
}

func (o *adagrad) step(e Embedder, t knowledge.Triple, g float64) {
	if g == 0 {
		return
	}
	g2 := g * g
	o.entities[t.Subject] += g2
	o.relations[t.Relation] += g2
	if t.Object != t.Subject {
		o.entities[t.Object] += g2
	}
	acc := (o.entities[t.Subject] + o.relations[t.Relation] + o.entities[t.Object]) / 3
	e.Step(t, o.lr*g/math.Sqrt(acc+1e-10))
}

func (o *adagrad) advance(float64) {}

// regularizer penalizes the embeddings touched by a positive triple.
type regularizer interface {
	apply(e Embedder, t knowledge.Triple)
}

func newRegularizer(h hyperparams.Hyperparams) (regularizer, error) {
	if _, err := h.Regularizer.Params(); err != nil {
		return nil, err
	}
	if h.Regularizer == hyperparams.RegularizerNone {
		return noRegularizer{}, nil
	}
	return lp{
		p:    hyperparams.Param(h.RegularizerParams, "p", 2),
		rate: h.OptimizerParams.LR * hyperparams.Param(h.RegularizerParams, "lambda", 1e-5),
	}, nil
}

type noRegularizer struct{}

func (noRegularizer) apply(Embedder, knowledge.Triple) {}

type lp struct{ p, rate float64 }

func (r lp) apply(e Embedder, t knowledge.Triple) {
	e.Regularize(t, r.rate, r.p)
}
