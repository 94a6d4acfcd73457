package complex_embeddings

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Name is the registry name of the model.
const Name = "ComplEx"

// Params are the embedding model parameters ComplEx accepts.
var Params = []string{}

// ComplEx implements Complex Embeddings for Knowledge Graphs
// Uses complex-valued embeddings to model symmetric and asymmetric relations
type ComplEx struct {
	dim int

	// Complex-valued embeddings
	entityEmbeddings   [][]complex128
	relationEmbeddings [][]complex128
}

// New creates a new ComplEx instance
func New() *ComplEx {
	return &ComplEx{}
}

// Init initializes entity and relation embeddings with small random
// complex values. Entities are normalized.
func (cx *ComplEx) Init(numEntities, numRelations, dim int, _ map[string]float64, rng *rand.Rand) error {
	cx.dim = dim
	cx.entityEmbeddings = randomComplex(rng, numEntities, dim)
	cx.relationEmbeddings = randomComplex(rng, numRelations, dim)
	cx.Normalize()
	return nil
}

func randomComplex(rng *rand.Rand, n, dim int) [][]complex128 {
	bound := kge.XavierBound(dim)
	parts := kge.UniformMatrix(rng, n, 2*dim, bound)
	out := make([][]complex128, n)
	for i, p := range parts {
		out[i] = make([]complex128, dim)
		for d := range out[i] {
			out[i][d] = complex(p[2*d], p[2*d+1])
		}
	}
	return out
}

// Score = Re(<h, r, conj(t)>) = Re(Σ h_i * r_i * conj(t_i))
func (cx *ComplEx) Score(t knowledge.Triple) float64 {
	h := cx.entityEmbeddings[t.Subject]
	r := cx.relationEmbeddings[t.Relation]
	o := cx.entityEmbeddings[t.Object]

	var sum complex128
	for d := 0; d < cx.dim; d++ {
		sum += h[d] * r[d] * cmplx.Conj(o[d])
	}
	return real(sum)
}

// Step moves h, r and t along the gradient of the score. Written as
// complex numbers (d/d re + i d/d im):
// d score / dh = conj(r) * t
// d score / dr = conj(h) * t
// d score / dt = h * r
func (cx *ComplEx) Step(t knowledge.Triple, coef float64) {
	h := cx.entityEmbeddings[t.Subject]
	r := cx.relationEmbeddings[t.Relation]
	o := cx.entityEmbeddings[t.Object]
	c := complex(coef, 0)

	for d := 0; d < cx.dim; d++ {
		hd, rd, od := h[d], r[d], o[d]
		h[d] += c * cmplx.Conj(rd) * od
		r[d] += c * cmplx.Conj(hd) * od
		o[d] += c * hd * rd
	}
}

func (cx *ComplEx) Regularize(t knowledge.Triple, rate, p float64) {
	kge.ShrinkLPComplex(cx.entityEmbeddings[t.Subject], rate, p)
	kge.ShrinkLPComplex(cx.relationEmbeddings[t.Relation], rate, p)
	if t.Object != t.Subject {
		kge.ShrinkLPComplex(cx.entityEmbeddings[t.Object], rate, p)
	}
}

// Normalize scales every entity embedding to unit length
func (cx *ComplEx) Normalize() {
	for _, v := range cx.entityEmbeddings {
		norm := 0.0
		for _, x := range v {
			norm += real(x)*real(x) + imag(x)*imag(x)
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for d := range v {
				v[d] /= complex(norm, 0)
			}
		}
	}
}

// Dim counts real and imaginary parts separately.
func (cx *ComplEx) Dim() int { return 2 * cx.dim }

// Entity returns [real1, imag1, real2, imag2, ...]
func (cx *ComplEx) Entity(id int64) []float64 {
	return kge.Interleave(cx.entityEmbeddings[id])
}

func (cx *ComplEx) Relation(id int64) []float64 {
	return kge.Interleave(cx.relationEmbeddings[id])
}
