// Package corrupt generates corrupted (negative) triples for training and
// for evaluation under the local closed world assumption, and filters
// corruptions that are known to be true.
package corrupt

import (
	"fmt"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Side selects which entity of a triple gets replaced.
type Side string

const (
	Subject       Side = "s"
	Object        Side = "o"
	SubjectObject Side = "s+o"
)

// ParseSide validates s as a corruption side.
func ParseSide(s string) (Side, error) {
	side := Side(s)
	if err := side.Validate(); err != nil {
		return "", err
	}
	return side, nil
}

// Validate fails with ErrInvalidArgument for anything but s, o and s+o.
func (s Side) Validate() error {
	switch s {
	case Subject, Object, SubjectObject:
		return nil
	}
	return fmt.Errorf("corruption side %q: %w", string(s), knowledge.ErrInvalidArgument)
}

func (s Side) corruptsSubject() bool {
	return s == Subject || s == SubjectObject
}

func (s Side) corruptsObject() bool {
	return s == Object || s == SubjectObject
}

// Blocks returns how many corruption blocks a triple yields on this side.
func (s Side) Blocks() int {
	if s == SubjectObject {
		return 2
	}
	return 1
}
