package kge

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// loss scores one positive against its eta corruptions, then pushes the
// gradients through the optimizer. It returns the loss value.
type loss interface {
	update(e Embedder, opt optimizer, pos knowledge.Triple, negs []knowledge.Triple) float64
}

func newLoss(h hyperparams.Hyperparams) (loss, error) {
	if _, err := h.Loss.Params(); err != nil {
		return nil, err
	}
	p := h.LossParams
	switch h.Loss {
	case hyperparams.LossPairwise:
		return pairwise{margin: hyperparams.Param(p, "margin", 1)}, nil
	case hyperparams.LossNLL:
		return nll{}, nil
	case hyperparams.LossAbsoluteMargin:
		return absoluteMargin{margin: hyperparams.Param(p, "margin", 1)}, nil
	default:
		return selfAdversarial{
			margin: hyperparams.Param(p, "margin", 3),
			alpha:  hyperparams.Param(p, "alpha", 0.5),
		}, nil
	}
}

func scores(e Embedder, ts []knowledge.Triple) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = e.Score(t)
	}
	return out
}

// pairwise is max(0, margin - pos + neg) summed over the corruptions.
type pairwise struct{ margin float64 }

func (l pairwise) update(e Embedder, opt optimizer, pos knowledge.Triple, negs []knowledge.Triple) float64 {
	posScore := e.Score(pos)
	negScores := scores(e, negs)

	total, violated := 0.0, 0
	for i, s := range negScores {
		v := l.margin - posScore + s
		if v <= 0 {
			continue
		}
		total += v
		violated++
		opt.step(e, negs[i], -1)
	}
	if violated > 0 {
		opt.step(e, pos, float64(violated))
	}
	return total
}

// nll is the logistic loss with label +1 for the positive and -1 for the
// corruptions.
type nll struct{}

func (nll) update(e Embedder, opt optimizer, pos knowledge.Triple, negs []knowledge.Triple) float64 {
	posScore := e.Score(pos)
	negScores := scores(e, negs)

	total := softplus(-posScore)
	for i, s := range negScores {
		total += softplus(s)
		opt.step(e, negs[i], -sigmoid(s))
	}
	opt.step(e, pos, sigmoid(-posScore))
	return total
}

// absoluteMargin is -pos + max(0, margin + neg) summed over the corruptions.
type absoluteMargin struct{ margin float64 }

func (l absoluteMargin) update(e Embedder, opt optimizer, pos knowledge.Triple, negs []knowledge.Triple) float64 {
	posScore := e.Score(pos)
	negScores := scores(e, negs)

	total := -posScore
	for i, s := range negScores {
		if v := l.margin + s; v > 0 {
			total += v
			opt.step(e, negs[i], -1)
		}
	}
	opt.step(e, pos, 1)
	return total
}

// selfAdversarial weights each corruption by the softmax of its own score
// at temperature alpha. The weights are not differentiated.
type selfAdversarial struct{ margin, alpha float64 }

func (l selfAdversarial) update(e Embedder, opt optimizer, pos knowledge.Triple, negs []knowledge.Triple) float64 {
	posScore := e.Score(pos)
	negScores := scores(e, negs)

	scaled := make([]float64, len(negScores))
	floats.ScaleTo(scaled, l.alpha, negScores)
	lse := floats.LogSumExp(scaled)

	total := softplus(-(l.margin + posScore))
	for i, s := range negScores {
		w := math.Exp(scaled[i] - lse)
		total += w * softplus(s+l.margin)
		opt.step(e, negs[i], -w*sigmoid(s+l.margin))
	}
	opt.step(e, pos, sigmoid(-(l.margin + posScore)))
	return total
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softplus is log(1 + e^x) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
