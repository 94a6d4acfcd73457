package knowledge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTriples() []RawTriple {
	return []RawTriple{
		{"b", "likes", "c"},
		{"a", "knows", "b"},
		{"c", "likes", "a"},
		{"d", "knows", "a"},
	}
}

func TestCreateMappingsSortedContiguous(t *testing.T) {
	m := CreateMappings(sampleTriples())

	assert.Equal(t, []string{"a", "b", "c", "d"}, m.Entities.Keys())
	assert.Equal(t, []string{"knows", "likes"}, m.Relations.Keys())

	for i, name := range m.Entities.Keys() {
		id, ok := m.Entities.ID(name)
		require.True(t, ok)
		assert.Equal(t, int64(i), id)
	}
}

func TestCreateMappingsDeterministic(t *testing.T) {
	first := CreateMappings(sampleTriples())
	second := CreateMappings(sampleTriples())
	assert.Equal(t, first.Entities.Keys(), second.Entities.Keys())
	assert.Equal(t, first.Relations.Keys(), second.Relations.Keys())
}

func TestToIdxRoundTrip(t *testing.T) {
	triples := sampleTriples()
	m := CreateMappings(triples)

	ids, err := ToIdx(triples, m.Entities, m.Relations)
	require.NoError(t, err)
	require.Len(t, ids, len(triples))
	assert.Equal(t, Triple{Subject: 1, Relation: 1, Object: 2}, ids[0])

	back, err := FromIdx(ids, m.Entities, m.Relations)
	require.NoError(t, err)
	assert.Equal(t, triples, back)
}

func TestToIdxUnknownIdentifier(t *testing.T) {
	m := CreateMappings(sampleTriples())

	_, err := ToIdx([]RawTriple{{"a", "knows", "zzz"}}, m.Entities, m.Relations)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyLookup))

	_, err = TripleToIdx(RawTriple{"a", "hates", "b"}, m.Entities, m.Relations)
	assert.ErrorIs(t, err, ErrKeyLookup)
}

func TestTripleToIdx(t *testing.T) {
	m := CreateMappings(sampleTriples())
	id, err := TripleToIdx(RawTriple{"d", "knows", "a"}, m.Entities, m.Relations)
	require.NoError(t, err)
	assert.Equal(t, Triple{Subject: 3, Relation: 0, Object: 0}, id)
}

func TestCreateMappingsEntityWithSchema(t *testing.T) {
	schema := []RawTriple{
		{"e", "type", "Person"},
		{"a", "type", "Person"},
	}
	m := CreateMappingsEntityWithSchema(sampleTriples(), schema)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Entities.Keys())
	assert.Equal(t, []string{"knows", "likes"}, m.Relations.Keys())
}

func TestSchemaMappingsAndToIdxSchema(t *testing.T) {
	schema := []RawTriple{
		{"a", "type", "Person"},
		{"c", "subclass", "Animal"},
	}
	sm := CreateMappingsSchema(schema)
	assert.Equal(t, []string{"Animal", "Person"}, sm.Classes.Keys())
	assert.Equal(t, []string{"subclass", "type"}, sm.Relations.Keys())

	m := CreateMappings(sampleTriples())
	ids, err := ToIdxSchema(schema, m.Entities, sm.Classes, sm.Relations)
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		{Subject: 0, Relation: 1, Object: 1},
		{Subject: 2, Relation: 0, Object: 0},
	}, ids)

	_, err = ToIdxSchema([]RawTriple{{"a", "knows", "Person"}}, m.Entities, sm.Classes, sm.Relations)
	assert.ErrorIs(t, err, ErrKeyLookup)
}

func TestVocabularyName(t *testing.T) {
	v := NewVocabulary([]string{"y", "x", "y"})
	assert.Equal(t, 2, v.Len())
	name, ok := v.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "y", name)
	_, ok = v.Name(5)
	assert.False(t, ok)
	assert.Equal(t, []int64{0, 1}, v.IDs())
}
