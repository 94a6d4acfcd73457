// Package kge is the training and scoring runtime shared by the knowledge
// graph embedding models. A model plugs in an Embedder that owns the
// parameters and the scoring function; kge runs the fit loop, the losses,
// regularizers and optimizers, early stopping and the evaluation contract.
package kge

import (
	"math"
	"math/rand"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Embedder holds the embeddings of one model and scores triples with them.
// Higher scores are more plausible.
type Embedder interface {
	// Init allocates fresh embeddings of size k.
	Init(numEntities, numRelations, k int, params map[string]float64, rng *rand.Rand) error

	Score(t knowledge.Triple) float64

	// Step moves every parameter touched by t by coef times the gradient
	// of Score(t) with respect to it.
	Step(t knowledge.Triple, coef float64)

	// Regularize applies one L_p weight decay step of the given rate to
	// the parameters touched by t.
	Regularize(t knowledge.Triple, rate, p float64)

	// Normalize runs the per-epoch constraints of the model.
	Normalize()

	// Dim is the length of the vectors returned by Entity and Relation.
	Dim() int
	Entity(id int64) []float64
	Relation(id int64) []float64
}

// UniformMatrix returns n rows of k values drawn uniformly from
// [-bound, bound).
func UniformMatrix(rng *rand.Rand, n, k int, bound float64) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, k)
		for d := range m[i] {
			m[i][d] = (rng.Float64()*2 - 1) * bound
		}
	}
	return m
}

// XavierBound is the Glorot uniform bound for a k-dimensional embedding.
func XavierBound(k int) float64 {
	return math.Sqrt(6 / float64(2*k))
}

// ShrinkLP applies v -= rate * d/dv(|v|_p^p) in place.
func ShrinkLP(v []float64, rate, p float64) {
	for d, x := range v {
		if x == 0 {
			continue
		}
		v[d] -= rate * p * math.Copysign(math.Pow(math.Abs(x), p-1), x)
	}
}

// ShrinkLPComplex applies ShrinkLP to the real and imaginary parts of v.
func ShrinkLPComplex(v []complex128, rate, p float64) {
	for d, x := range v {
		parts := []float64{real(x), imag(x)}
		ShrinkLP(parts, rate, p)
		v[d] = complex(parts[0], parts[1])
	}
}

// Interleave flattens v as real1 imag1 real2 imag2 ...
func Interleave(v []complex128) []float64 {
	out := make([]float64, 0, 2*len(v))
	for _, x := range v {
		out = append(out, real(x), imag(x))
	}
	return out
}
