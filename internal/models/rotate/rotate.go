package rotate

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Name is the registry name of the model.
const Name = "RotatE"

// Params are the embedding model parameters RotatE accepts.
var Params = []string{}

// RotatE implements the RotatE algorithm using complex-valued embeddings
// RotatE models relations as rotations in complex space: h ∘ r ≈ t
// where ∘ denotes element-wise complex multiplication (Hadamard product)
type RotatE struct {
	dim int // complex dimension, half of the requested size

	entityEmbeddings   [][]complex128
	relationEmbeddings [][]complex128 // unit complex numbers

	diff []complex128
}

// New creates a new RotatE instance
func New() *RotatE {
	return &RotatE{}
}

// Init draws entities with uniform phase and relations as random unit
// rotations. An odd size is rounded up.
func (re *RotatE) Init(numEntities, numRelations, dim int, _ map[string]float64, rng *rand.Rand) error {
	if dim%2 != 0 {
		dim++
	}
	re.dim = dim / 2
	re.diff = make([]complex128, re.dim)

	re.entityEmbeddings = make([][]complex128, numEntities)
	for i := range re.entityEmbeddings {
		re.entityEmbeddings[i] = make([]complex128, re.dim)
		for d := range re.entityEmbeddings[i] {
			phase := rng.Float64() * 2.0 * math.Pi
			magnitude := (rng.Float64()*0.5 + 0.5) / float64(re.dim)
			re.entityEmbeddings[i][d] = cmplx.Rect(magnitude, phase)
		}
	}

	re.relationEmbeddings = make([][]complex128, numRelations)
	for i := range re.relationEmbeddings {
		re.relationEmbeddings[i] = make([]complex128, re.dim)
		for d := range re.relationEmbeddings[i] {
			re.relationEmbeddings[i][d] = cmplx.Rect(1, rng.Float64()*2.0*math.Pi)
		}
	}
	return nil
}

// rotate writes h ∘ r - t into re.diff and returns its L2 norm
func (re *RotatE) rotate(t knowledge.Triple) float64 {
	h := re.entityEmbeddings[t.Subject]
	r := re.relationEmbeddings[t.Relation]
	o := re.entityEmbeddings[t.Object]

	distance := 0.0
	for d := 0; d < re.dim; d++ {
		re.diff[d] = h[d]*r[d] - o[d]
		distance += real(re.diff[d])*real(re.diff[d]) + imag(re.diff[d])*imag(re.diff[d])
	}
	return math.Sqrt(distance)
}

// Score is -||h ∘ r - t||. Higher score = better fit
func (re *RotatE) Score(t knowledge.Triple) float64 {
	return -re.rotate(t)
}

// Step moves h, r and t along the gradient of the score. With
// u = (h ∘ r - t) / ||h ∘ r - t||:
// d score / dh = -u * conj(r)
// d score / dr = -u * conj(h)
// d score / dt = u
func (re *RotatE) Step(t knowledge.Triple, coef float64) {
	norm := re.rotate(t)
	if norm < 1e-10 {
		return
	}
	h := re.entityEmbeddings[t.Subject]
	r := re.relationEmbeddings[t.Relation]
	o := re.entityEmbeddings[t.Object]
	c := complex(coef/norm, 0)

	for d := 0; d < re.dim; d++ {
		u := re.diff[d]
		hd, rd := h[d], r[d]
		h[d] -= c * u * cmplx.Conj(rd)
		r[d] -= c * u * cmplx.Conj(hd)
		o[d] += c * u
	}
}

// Regularize shrinks the entity embeddings. Relations stay rotations.
func (re *RotatE) Regularize(t knowledge.Triple, rate, p float64) {
	kge.ShrinkLPComplex(re.entityEmbeddings[t.Subject], rate, p)
	if t.Object != t.Subject {
		kge.ShrinkLPComplex(re.entityEmbeddings[t.Object], rate, p)
	}
}

// Normalize projects relation embeddings back to unit complex numbers
func (re *RotatE) Normalize() {
	for _, v := range re.relationEmbeddings {
		for d := range v {
			if magnitude := cmplx.Abs(v[d]); magnitude > 1e-10 {
				v[d] /= complex(magnitude, 0)
			}
		}
	}
}

func (re *RotatE) Dim() int { return 2 * re.dim }

// Entity returns [real1, imag1, real2, imag2, ...]
func (re *RotatE) Entity(id int64) []float64 {
	return kge.Interleave(re.entityEmbeddings[id])
}

func (re *RotatE) Relation(id int64) []float64 {
	return kge.Interleave(re.relationEmbeddings[id])
}
