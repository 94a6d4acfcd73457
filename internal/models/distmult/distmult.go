package distmult

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Name is the registry name of the model.
const Name = "DistMult"

// Params are the embedding model parameters DistMult accepts.
var Params = []string{}

// DistMult scores a triple with the trilinear product <h, r, t>.
// It is the real-valued restriction of ComplEx and can only model
// symmetric relations.
type DistMult struct {
	dim int

	entityEmbeddings   [][]float64
	relationEmbeddings [][]float64

	gh, gr, gt []float64
}

// New creates a new DistMult instance
func New() *DistMult {
	return &DistMult{}
}

func (dm *DistMult) Init(numEntities, numRelations, dim int, _ map[string]float64, rng *rand.Rand) error {
	dm.dim = dim
	bound := kge.XavierBound(dim)
	dm.entityEmbeddings = kge.UniformMatrix(rng, numEntities, dim, bound)
	dm.relationEmbeddings = kge.UniformMatrix(rng, numRelations, dim, bound)
	dm.gh = make([]float64, dim)
	dm.gr = make([]float64, dim)
	dm.gt = make([]float64, dim)
	return nil
}

// Score = Σ h_i * r_i * t_i
func (dm *DistMult) Score(t knowledge.Triple) float64 {
	floats.MulTo(dm.gt, dm.entityEmbeddings[t.Subject], dm.relationEmbeddings[t.Relation])
	return floats.Dot(dm.gt, dm.entityEmbeddings[t.Object])
}

// Step moves h, r and t along the gradient of the score:
// d score / dh = r * t, d score / dr = h * t, d score / dt = h * r
func (dm *DistMult) Step(t knowledge.Triple, coef float64) {
	h := dm.entityEmbeddings[t.Subject]
	r := dm.relationEmbeddings[t.Relation]
	o := dm.entityEmbeddings[t.Object]

	floats.MulTo(dm.gh, r, o)
	floats.MulTo(dm.gr, h, o)
	floats.MulTo(dm.gt, h, r)

	floats.AddScaled(h, coef, dm.gh)
	floats.AddScaled(r, coef, dm.gr)
	floats.AddScaled(o, coef, dm.gt)
}

func (dm *DistMult) Regularize(t knowledge.Triple, rate, p float64) {
	kge.ShrinkLP(dm.entityEmbeddings[t.Subject], rate, p)
	kge.ShrinkLP(dm.relationEmbeddings[t.Relation], rate, p)
	if t.Object != t.Subject {
		kge.ShrinkLP(dm.entityEmbeddings[t.Object], rate, p)
	}
}

// Normalize is a no-op, DistMult is kept in check by regularization.
func (dm *DistMult) Normalize() {}

func (dm *DistMult) Dim() int { return dm.dim }

func (dm *DistMult) Entity(id int64) []float64 { return dm.entityEmbeddings[id] }

func (dm *DistMult) Relation(id int64) []float64 { return dm.relationEmbeddings[id] }
