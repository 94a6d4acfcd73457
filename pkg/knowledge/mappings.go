package knowledge

// Mappings holds the entity and relation vocabularies of a knowledge graph.
// Subjects and objects share the entity vocabulary.
type Mappings struct {
	Entities  *Vocabulary
	Relations *Vocabulary
}

// SchemaMappings holds the class and relation vocabularies of a schema.
type SchemaMappings struct {
	Classes   *Vocabulary
	Relations *Vocabulary
}

// CreateMappings assigns contiguous IDs to the entities (subjects and
// objects) and relations of triples.
func CreateMappings(triples []RawTriple) Mappings {
	subjects, relations, objects := columns(triples)
	return Mappings{
		Entities:  NewVocabulary(subjects, objects),
		Relations: NewVocabulary(relations),
	}
}

// CreateMappingsEntityWithSchema works like CreateMappings, but entities
// that only occur as subjects of schema statements receive IDs as well.
func CreateMappingsEntityWithSchema(triples, schema []RawTriple) Mappings {
	subjects, relations, objects := columns(triples)
	schemaSubjects, _, _ := columns(schema)
	return Mappings{
		Entities:  NewVocabulary(subjects, objects, schemaSubjects),
		Relations: NewVocabulary(relations),
	}
}

// CreateMappingsSchema assigns IDs to the classes (object column) and the
// relations of schema statements.
func CreateMappingsSchema(schema []RawTriple) SchemaMappings {
	_, relations, classes := columns(schema)
	return SchemaMappings{
		Classes:   NewVocabulary(classes),
		Relations: NewVocabulary(relations),
	}
}

// ToIdx converts triples into ID-space. Any identifier missing from its
// vocabulary fails the whole conversion with ErrKeyLookup.
func ToIdx(triples []RawTriple, entities, relations *Vocabulary) ([]Triple, error) {
	return convert(triples, entities, relations, entities)
}

// TripleToIdx converts a single triple into ID-space.
func TripleToIdx(t RawTriple, entities, relations *Vocabulary) (Triple, error) {
	out, err := convert([]RawTriple{t}, entities, relations, entities)
	if err != nil {
		return Triple{}, err
	}
	return out[0], nil
}

// ToIdxSchema converts schema statements into ID-space: subjects through the
// entity vocabulary, relations through the schema relation vocabulary and
// objects through the class vocabulary.
func ToIdxSchema(schema []RawTriple, entities, classes, relations *Vocabulary) ([]Triple, error) {
	return convert(schema, entities, relations, classes)
}

// FromIdx maps ID-space triples back to raw identifiers.
func FromIdx(triples []Triple, entities, relations *Vocabulary) ([]RawTriple, error) {
	out := make([]RawTriple, len(triples))
	for i, t := range triples {
		s, err := entities.reverse("entity", t.Subject)
		if err != nil {
			return nil, err
		}
		r, err := relations.reverse("relation", t.Relation)
		if err != nil {
			return nil, err
		}
		o, err := entities.reverse("entity", t.Object)
		if err != nil {
			return nil, err
		}
		out[i] = RawTriple{Subject: s, Relation: r, Object: o}
	}
	return out, nil
}

func convert(triples []RawTriple, subjects, relations, objects *Vocabulary) ([]Triple, error) {
	out := make([]Triple, len(triples))
	for i, t := range triples {
		s, err := subjects.lookup("subject", t.Subject)
		if err != nil {
			return nil, err
		}
		r, err := relations.lookup("relation", t.Relation)
		if err != nil {
			return nil, err
		}
		o, err := objects.lookup("object", t.Object)
		if err != nil {
			return nil, err
		}
		out[i] = Triple{Subject: s, Relation: r, Object: o}
	}
	return out, nil
}

func columns(triples []RawTriple) (subjects, relations, objects []string) {
	subjects = make([]string, len(triples))
	relations = make([]string, len(triples))
	objects = make([]string, len(triples))
	for i, t := range triples {
		subjects[i] = t.Subject
		relations[i] = t.Relation
		objects[i] = t.Object
	}
	return subjects, relations, objects
}
