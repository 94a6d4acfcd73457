package corrupt

import (
	"fmt"
	"math/rand"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// ForFit draws eta random corruptions for every triple, replacing either
// the subject or the object (never both) with an entity drawn uniformly from
// entities. For SubjectObject a coin flip per corrupted row picks the side.
//
// Corruptions are tiled by repetition: row i+j*n holds the j-th corruption of
// triples[i], where n = len(triples). Collisions with true triples are not
// checked.
func ForFit(triples []knowledge.Triple, entities []int64, eta int, side Side, rng *rand.Rand) ([]knowledge.Triple, error) {
	if err := side.Validate(); err != nil {
		return nil, err
	}
	if eta < 0 {
		return nil, fmt.Errorf("eta %d: %w", eta, knowledge.ErrInvalidArgument)
	}
	if len(entities) == 0 && len(triples) > 0 && eta > 0 {
		return nil, fmt.Errorf("no entities to draw corruptions from: %w", knowledge.ErrInvalidArgument)
	}

	n := len(triples)
	out := make([]knowledge.Triple, n*eta)
	for j := 0; j < eta; j++ {
		for i, t := range triples {
			replaceSubject := side == Subject
			if side == SubjectObject {
				replaceSubject = rng.Intn(2) == 0
			}
			e := entities[rng.Intn(len(entities))]

			c := t
			if replaceSubject {
				c.Subject = e
			} else {
				c.Object = e
			}
			out[i+j*n] = c
		}
	}
	return out, nil
}
