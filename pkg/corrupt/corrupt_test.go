package corrupt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

func TestParseSide(t *testing.T) {
	for _, s := range []string{"s", "o", "s+o"} {
		side, err := ParseSide(s)
		require.NoError(t, err)
		assert.Equal(t, Side(s), side)
	}
	_, err := ParseSide("p")
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)
}

func TestForEvalObjectSide(t *testing.T) {
	src := knowledge.Triple{Subject: 1, Relation: 0, Object: 2}
	candidates := []int64{0, 1, 2, 3, 4}

	out, sigs, err := ForEval([]knowledge.Triple{src}, candidates, Object, nil)
	require.NoError(t, err)
	assert.Nil(t, sigs)
	require.Len(t, out, len(candidates))
	for i, c := range out {
		assert.Equal(t, src.Subject, c.Subject)
		assert.Equal(t, src.Relation, c.Relation)
		assert.Equal(t, candidates[i], c.Object)
	}
}

func TestForEvalSubjectSide(t *testing.T) {
	src := knowledge.Triple{Subject: 1, Relation: 0, Object: 2}
	out, _, err := ForEval([]knowledge.Triple{src}, []int64{3, 4}, Subject, nil)
	require.NoError(t, err)
	assert.Equal(t, []knowledge.Triple{
		{Subject: 3, Relation: 0, Object: 2},
		{Subject: 4, Relation: 0, Object: 2},
	}, out)
}

func TestForEvalBothSides(t *testing.T) {
	src := knowledge.Triple{Subject: 1, Relation: 0, Object: 2}
	candidates := []int64{0, 1, 2}

	out, _, err := ForEval([]knowledge.Triple{src}, candidates, SubjectObject, nil)
	require.NoError(t, err)
	require.Len(t, out, 2*len(candidates))
	for _, c := range out[:3] {
		assert.Equal(t, src.Subject, c.Subject)
	}
	for _, c := range out[3:] {
		assert.Equal(t, src.Object, c.Object)
	}
}

func TestForEvalBatchedBlocks(t *testing.T) {
	triples := []knowledge.Triple{
		{Subject: 0, Relation: 0, Object: 1},
		{Subject: 2, Relation: 1, Object: 3},
	}
	out, _, err := ForEval(triples, []int64{5, 6}, Object, nil)
	require.NoError(t, err)
	assert.Equal(t, []knowledge.Triple{
		{Subject: 0, Relation: 0, Object: 5},
		{Subject: 0, Relation: 0, Object: 6},
		{Subject: 2, Relation: 1, Object: 5},
		{Subject: 2, Relation: 1, Object: 6},
	}, out)
}

func TestForEvalInvalidSide(t *testing.T) {
	_, _, err := ForEval(nil, []int64{0}, Side("x"), nil)
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)
}

func TestForEvalSignatures(t *testing.T) {
	tables, err := NewPrimeTables(4, 2)
	require.NoError(t, err)

	src := knowledge.Triple{Subject: 1, Relation: 1, Object: 2}
	out, sigs, err := ForEval([]knowledge.Triple{src}, []int64{0, 1, 2, 3}, SubjectObject, tables)
	require.NoError(t, err)
	require.Len(t, sigs, len(out))
	for i, c := range out {
		assert.Equal(t, tables.Signature(c), sigs[i])
	}
}

func TestPrimeSignatureUniqueness(t *testing.T) {
	const entities, relations = 6, 3
	tables, err := NewPrimeTables(entities, relations)
	require.NoError(t, err)

	seen := make(map[uint64]knowledge.Triple)
	for s := int64(0); s < entities; s++ {
		for r := int64(0); r < relations; r++ {
			for o := int64(0); o < entities; o++ {
				tr := knowledge.Triple{Subject: s, Relation: r, Object: o}
				sig := tables.Signature(tr)
				prev, dup := seen[sig]
				require.False(t, dup, "signature collision between %v and %v", prev, tr)
				seen[sig] = tr
				assert.Equal(t, sig, tables.Signature(tr))
			}
		}
	}
	assert.Len(t, seen, entities*entities*relations)
}

func TestPrimeTablesOverflow(t *testing.T) {
	_, err := NewPrimeTables(200_000, 10)
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)

	_, err = NewPrimeTables(0, 1)
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)
}

func TestFirstPrimes(t *testing.T) {
	assert.Equal(t, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, firstPrimes(10))
	assert.Len(t, firstPrimes(3), 3)
}

func TestForFitTiling(t *testing.T) {
	triples := []knowledge.Triple{
		{Subject: 0, Relation: 0, Object: 1},
		{Subject: 2, Relation: 1, Object: 3},
		{Subject: 4, Relation: 0, Object: 5},
	}
	entities := []int64{0, 1, 2, 3, 4, 5}
	const eta = 4

	out, err := ForFit(triples, entities, eta, SubjectObject, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, out, len(triples)*eta)

	n := len(triples)
	for i, src := range triples {
		for j := 0; j < eta; j++ {
			c := out[i+j*n]
			assert.Equal(t, src.Relation, c.Relation)
			keepsSubject := c.Subject == src.Subject
			keepsObject := c.Object == src.Object
			assert.True(t, keepsSubject || keepsObject, "row %d replaced both sides", i+j*n)
		}
	}
}

func TestForFitSides(t *testing.T) {
	triples := []knowledge.Triple{{Subject: 0, Relation: 0, Object: 1}}
	entities := []int64{10, 11, 12}

	out, err := ForFit(triples, entities, 5, Object, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	for _, c := range out {
		assert.Equal(t, int64(0), c.Subject)
		assert.Contains(t, entities, c.Object)
	}

	out, err = ForFit(triples, entities, 5, Subject, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	for _, c := range out {
		assert.Equal(t, int64(1), c.Object)
		assert.Contains(t, entities, c.Subject)
	}
}

func TestForFitDeterministic(t *testing.T) {
	triples := []knowledge.Triple{{Subject: 0, Relation: 0, Object: 1}, {Subject: 1, Relation: 0, Object: 2}}
	entities := []int64{0, 1, 2, 3}

	a, err := ForFit(triples, entities, 3, SubjectObject, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := ForFit(triples, entities, 3, SubjectObject, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForFitInvalid(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	_, err := ForFit(nil, []int64{0}, 1, Side("so"), rng)
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)

	_, err = ForFit([]knowledge.Triple{{}}, nil, 1, Object, rng)
	assert.ErrorIs(t, err, knowledge.ErrInvalidArgument)
}

func TestFilters(t *testing.T) {
	known := []knowledge.Triple{
		{Subject: 0, Relation: 0, Object: 1},
		{Subject: 1, Relation: 1, Object: 2},
	}
	hash := NewHashFilter(known)
	prime, err := NewPrimeFilter(known, 3, 2)
	require.NoError(t, err)

	for _, f := range []KnownTriples{hash, prime} {
		assert.True(t, f.Contains(known[0]))
		assert.True(t, f.Contains(known[1]))
		assert.False(t, f.Contains(knowledge.Triple{Subject: 1, Relation: 0, Object: 0}))
		assert.False(t, f.Contains(knowledge.Triple{Subject: 0, Relation: 1, Object: 1}))
	}
	assert.Equal(t, 2, hash.Len())
	assert.True(t, prime.ContainsSignature(prime.Tables().Signature(known[1])))
	assert.False(t, prime.Contains(knowledge.Triple{Subject: 9, Relation: 0, Object: 0}))

	_, err = NewPrimeFilter([]knowledge.Triple{{Subject: 5}}, 3, 2)
	assert.ErrorIs(t, err, knowledge.ErrKeyLookup)
}
