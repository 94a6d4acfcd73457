package corrupt

import (
	"fmt"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// KnownTriples reports whether a triple is a known true fact. Filtered
// evaluation discards corruptions for which Contains is true.
type KnownTriples interface {
	Contains(t knowledge.Triple) bool
}

// SignatureFilter is a KnownTriples that can also answer membership from a
// prime signature produced with its Tables.
type SignatureFilter interface {
	KnownTriples
	Tables() *PrimeTables
	ContainsSignature(sig uint64) bool
}

// HashFilter is a set of ID-space triples.
type HashFilter struct {
	set map[knowledge.Triple]struct{}
}

// NewHashFilter indexes triples.
func NewHashFilter(triples []knowledge.Triple) *HashFilter {
	f := &HashFilter{set: make(map[knowledge.Triple]struct{}, len(triples))}
	for _, t := range triples {
		f.set[t] = struct{}{}
	}
	return f
}

// Contains implements KnownTriples.
func (f *HashFilter) Contains(t knowledge.Triple) bool {
	_, ok := f.set[t]
	return ok
}

// Len returns the number of distinct triples.
func (f *HashFilter) Len() int {
	return len(f.set)
}

// PrimeFilter indexes known triples by prime signature.
type PrimeFilter struct {
	tables *PrimeTables
	sigs   map[uint64]struct{}
}

// NewPrimeFilter builds prime tables for the given vocabulary sizes and
// indexes the signatures of triples. Triples whose IDs fall outside the
// vocabulary fail with ErrKeyLookup.
func NewPrimeFilter(triples []knowledge.Triple, numEntities, numRelations int) (*PrimeFilter, error) {
	tables, err := NewPrimeTables(numEntities, numRelations)
	if err != nil {
		return nil, err
	}

	f := &PrimeFilter{
		tables: tables,
		sigs:   make(map[uint64]struct{}, len(triples)),
	}
	for _, t := range triples {
		if !tables.Covers(t) {
			return nil, fmt.Errorf("triple %v outside prime tables: %w", t, knowledge.ErrKeyLookup)
		}
		f.sigs[tables.Signature(t)] = struct{}{}
	}
	return f, nil
}

// Tables returns the prime tables used for signatures.
func (f *PrimeFilter) Tables() *PrimeTables {
	return f.tables
}

// ContainsSignature reports whether sig belongs to a known triple.
func (f *PrimeFilter) ContainsSignature(sig uint64) bool {
	_, ok := f.sigs[sig]
	return ok
}

// Contains implements KnownTriples.
func (f *PrimeFilter) Contains(t knowledge.Triple) bool {
	if !f.tables.Covers(t) {
		return false
	}
	return f.ContainsSignature(f.tables.Signature(t))
}
