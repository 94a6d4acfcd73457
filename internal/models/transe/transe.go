package transe

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Name is the registry name of the model.
const Name = "TransE"

// Params are the embedding model parameters TransE accepts.
var Params = []string{"norm"}

// TransE implements the TransE (Translating Embeddings) algorithm
// TransE models relations as translations in the embedding space: h + r ≈ t
// where h is head entity, r is relation, t is tail entity
type TransE struct {
	dim  int
	norm float64 // L1 or L2 norm (1 or 2, default: 2)

	entityEmbeddings   [][]float64
	relationEmbeddings [][]float64

	diff []float64
}

// New creates a new TransE instance
func New() *TransE {
	return &TransE{norm: 2}
}

// Init initializes entity and relation embeddings. Entities start on the
// unit sphere, relations are not normalized.
func (te *TransE) Init(numEntities, numRelations, dim int, params map[string]float64, rng *rand.Rand) error {
	norm := hyperparams.Param(params, "norm", 2)
	if norm != 1 && norm != 2 {
		return fmt.Errorf("transe norm must be 1 or 2, got %g: %w", norm, knowledge.ErrInvalidArgument)
	}
	te.dim = dim
	te.norm = norm
	te.diff = make([]float64, dim)

	bound := 0.5 / float64(dim)
	te.entityEmbeddings = kge.UniformMatrix(rng, numEntities, dim, bound)
	te.relationEmbeddings = kge.UniformMatrix(rng, numRelations, dim, bound)
	te.Normalize()
	return nil
}

// Normalize projects every entity embedding back to unit length (L2 norm)
func (te *TransE) Normalize() {
	for _, v := range te.entityEmbeddings {
		if n := floats.Norm(v, 2); n > 1e-10 {
			floats.Scale(1/n, v)
		}
	}
}

// translate writes h + r - t into te.diff
func (te *TransE) translate(t knowledge.Triple) []float64 {
	floats.AddTo(te.diff, te.entityEmbeddings[t.Subject], te.relationEmbeddings[t.Relation])
	floats.Sub(te.diff, te.entityEmbeddings[t.Object])
	return te.diff
}

// Score is -||h + r - t||. Higher score = better fit
func (te *TransE) Score(t knowledge.Triple) float64 {
	return -floats.Norm(te.translate(t), te.norm)
}

// Step moves h, r and t along the gradient of the score.
// d score / dh = d score / dr = -u, d score / dt = u
// where u is the gradient of the norm at h + r - t.
func (te *TransE) Step(t knowledge.Triple, coef float64) {
	u := te.translate(t)
	if te.norm == 1 {
		for d, x := range u {
			u[d] = sign(x)
		}
	} else {
		n := floats.Norm(u, 2)
		if n < 1e-10 {
			return
		}
		floats.Scale(1/n, u)
	}

	floats.AddScaled(te.entityEmbeddings[t.Subject], -coef, u)
	floats.AddScaled(te.relationEmbeddings[t.Relation], -coef, u)
	floats.AddScaled(te.entityEmbeddings[t.Object], coef, u)
}

func (te *TransE) Regularize(t knowledge.Triple, rate, p float64) {
	kge.ShrinkLP(te.entityEmbeddings[t.Subject], rate, p)
	kge.ShrinkLP(te.relationEmbeddings[t.Relation], rate, p)
	if t.Object != t.Subject {
		kge.ShrinkLP(te.entityEmbeddings[t.Object], rate, p)
	}
}

func (te *TransE) Dim() int { return te.dim }

func (te *TransE) Entity(id int64) []float64 { return te.entityEmbeddings[id] }

func (te *TransE) Relation(id int64) []float64 { return te.relationEmbeddings[id] }

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
