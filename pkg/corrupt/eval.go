package corrupt

import (
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// ForEval enumerates every corruption of triples against candidates.
//
// Each source triple yields one contiguous block of len(candidates) rows per
// corrupted side, the non-corrupted columns held fixed. For SubjectObject
// the object-side blocks of all source triples come first, followed by the
// subject-side blocks. When tables is non-nil the prime signature of every
// row is returned alongside, in the same order; otherwise sigs is nil.
func ForEval(triples []knowledge.Triple, candidates []int64, side Side, tables *PrimeTables) (out []knowledge.Triple, sigs []uint64, err error) {
	if err := side.Validate(); err != nil {
		return nil, nil, err
	}

	m := len(candidates)
	out = make([]knowledge.Triple, 0, len(triples)*m*side.Blocks())
	if side.corruptsObject() {
		for _, t := range triples {
			for _, e := range candidates {
				out = append(out, knowledge.Triple{Subject: t.Subject, Relation: t.Relation, Object: e})
			}
		}
	}
	if side.corruptsSubject() {
		for _, t := range triples {
			for _, e := range candidates {
				out = append(out, knowledge.Triple{Subject: e, Relation: t.Relation, Object: t.Object})
			}
		}
	}

	if tables == nil {
		return out, nil, nil
	}
	sigs = make([]uint64, len(out))
	for i, c := range out {
		sigs[i] = tables.Signature(c)
	}
	return out, sigs, nil
}
