package knowledge

import (
	"fmt"
	"sort"
)

// Vocabulary is a bijection between raw identifiers and the dense ID range
// [0, Len()). IDs follow the sorted order of the unique identifiers.
type Vocabulary struct {
	hash map[string]int64
	keys []string
}

// NewVocabulary builds a vocabulary from the unique values of names.
func NewVocabulary(names ...[]string) *Vocabulary {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, column := range names {
		for _, name := range column {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)

	v := &Vocabulary{
		hash: make(map[string]int64, len(keys)),
		keys: keys,
	}
	for i, k := range keys {
		v.hash[k] = int64(i)
	}
	return v
}

// Len returns the number of identifiers.
func (v *Vocabulary) Len() int {
	return len(v.keys)
}

// ID returns the ID of name.
func (v *Vocabulary) ID(name string) (int64, bool) {
	id, ok := v.hash[name]
	return id, ok
}

// Name returns the identifier with the given ID.
func (v *Vocabulary) Name(id int64) (string, bool) {
	if id < 0 || id >= int64(len(v.keys)) {
		return "", false
	}
	return v.keys[id], true
}

// Contains reports whether name has an ID.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.hash[name]
	return ok
}

// Keys returns the identifiers in ID order. The slice must not be modified.
func (v *Vocabulary) Keys() []string {
	return v.keys
}

// IDs returns every ID of the vocabulary in ascending order.
func (v *Vocabulary) IDs() []int64 {
	ids := make([]int64, len(v.keys))
	for i := range ids {
		ids[i] = int64(i)
	}
	return ids
}

// lookup resolves name or fails with ErrKeyLookup.
func (v *Vocabulary) lookup(kind, name string) (int64, error) {
	id, ok := v.hash[name]
	if !ok {
		return 0, fmt.Errorf("%s %q: %w", kind, name, ErrKeyLookup)
	}
	return id, nil
}

func (v *Vocabulary) reverse(kind string, id int64) (string, error) {
	name, ok := v.Name(id)
	if !ok {
		return "", fmt.Errorf("%s id %d: %w", kind, id, ErrKeyLookup)
	}
	return name, nil
}
