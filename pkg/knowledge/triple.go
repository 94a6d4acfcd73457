package knowledge

// RawTriple is a (subject, relation, object) statement over raw identifiers.
type RawTriple struct {
	Subject  string
	Relation string
	Object   string
}

// Triple is a statement in ID-space.
type Triple struct {
	Subject  int64
	Relation int64
	Object   int64
}

// NewRawTriple builds a RawTriple from its three parts.
func NewRawTriple(subject, relation, object string) RawTriple {
	return RawTriple{Subject: subject, Relation: relation, Object: object}
}

// Entities returns the subject and object of the triple.
func (t RawTriple) Entities() (string, string) {
	return t.Subject, t.Object
}

// Concat returns a new slice holding every triple of every input, in order.
func Concat(sets ...[]RawTriple) []RawTriple {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]RawTriple, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
