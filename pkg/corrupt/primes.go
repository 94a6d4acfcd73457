package corrupt

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// PrimeTables maps subject entities, relations and object entities to
// pairwise distinct primes. The signature of a triple is the product of its
// three primes; by unique factorization two triples share a signature iff
// they are equal component-wise.
type PrimeTables struct {
	subjects  []uint64
	relations []uint64
	objects   []uint64
}

// NewPrimeTables assigns primes to numEntities entities on each side and to
// numRelations relations. It fails with ErrInvalidArgument when the largest
// signature would not fit in 64 bits.
func NewPrimeTables(numEntities, numRelations int) (*PrimeTables, error) {
	if numEntities <= 0 || numRelations <= 0 {
		return nil, fmt.Errorf("prime tables need at least one entity and relation: %w", knowledge.ErrInvalidArgument)
	}

	total := 2*numEntities + numRelations
	primes := firstPrimes(total)

	pt := &PrimeTables{
		subjects:  primes[:numEntities],
		relations: primes[numEntities : numEntities+numRelations],
		objects:   primes[numEntities+numRelations:],
	}

	maxS := pt.subjects[len(pt.subjects)-1]
	maxR := pt.relations[len(pt.relations)-1]
	maxO := pt.objects[len(pt.objects)-1]
	if _, ok := mul3(maxS, maxR, maxO); !ok {
		return nil, fmt.Errorf("signatures of %d entities and %d relations overflow uint64: %w",
			numEntities, numRelations, knowledge.ErrInvalidArgument)
	}
	return pt, nil
}

// Subject returns the prime of entity id in subject position.
func (pt *PrimeTables) Subject(id int64) uint64 { return pt.subjects[id] }

// Relation returns the prime of relation id.
func (pt *PrimeTables) Relation(id int64) uint64 { return pt.relations[id] }

// Object returns the prime of entity id in object position.
func (pt *PrimeTables) Object(id int64) uint64 { return pt.objects[id] }

// Covers reports whether every component of t has a prime.
func (pt *PrimeTables) Covers(t knowledge.Triple) bool {
	return t.Subject >= 0 && t.Subject < int64(len(pt.subjects)) &&
		t.Relation >= 0 && t.Relation < int64(len(pt.relations)) &&
		t.Object >= 0 && t.Object < int64(len(pt.objects))
}

// Signature returns the prime product of t.
func (pt *PrimeTables) Signature(t knowledge.Triple) uint64 {
	return pt.subjects[t.Subject] * pt.relations[t.Relation] * pt.objects[t.Object]
}

func mul3(a, b, c uint64) (uint64, bool) {
	hi, ab := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	hi, abc := bits.Mul64(ab, c)
	if hi != 0 {
		return 0, false
	}
	return abc, true
}

// firstPrimes returns the n smallest primes using a sieve sized by the
// prime number theorem bound p_n < n(ln n + ln ln n) for n >= 6.
func firstPrimes(n int) []uint64 {
	limit := 15
	if n >= 6 {
		fn := float64(n)
		limit = int(fn*(math.Log(fn)+math.Log(math.Log(fn)))) + 1
	}

	composite := make([]bool, limit+1)
	primes := make([]uint64, 0, n)
	for i := 2; i <= limit && len(primes) < n; i++ {
		if composite[i] {
			continue
		}
		primes = append(primes, uint64(i))
		for j := i * i; j <= limit; j += i {
			composite[j] = true
		}
	}
	return primes
}
