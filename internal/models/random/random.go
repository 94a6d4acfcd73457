// Package random is a baseline that scores every triple uniformly at
// random. Its ranks are the reference a trained model has to beat.
package random

import (
	"math/rand"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Name is the registry name of the model.
const Name = "RandomBaseline"

// Params are the embedding model parameters the baseline accepts.
var Params = []string{}

// Baseline draws scores from the seeded generator handed to Init.
type Baseline struct {
	rng *rand.Rand
}

func New() *Baseline {
	return &Baseline{}
}

func (b *Baseline) Init(_, _, _ int, _ map[string]float64, rng *rand.Rand) error {
	b.rng = rng
	return nil
}

func (b *Baseline) Score(knowledge.Triple) float64 {
	return b.rng.Float64()
}

func (b *Baseline) Step(knowledge.Triple, float64) {}

func (b *Baseline) Regularize(knowledge.Triple, float64, float64) {}

func (b *Baseline) Normalize() {}

// Dim is zero, the baseline has no embeddings.
func (b *Baseline) Dim() int { return 0 }

func (b *Baseline) Entity(int64) []float64 { return nil }

func (b *Baseline) Relation(int64) []float64 { return nil }
