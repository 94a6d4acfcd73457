package knowledge

import "errors"

var (
	// ErrInvalidArgument is returned for malformed arguments such as an
	// unknown corruption side or a hyperparameter grid missing a required key.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnseenEntity is returned when strict evaluation meets entities the
	// model never saw during training.
	ErrUnseenEntity = errors.New("unseen entity")

	// ErrKeyLookup is returned when an identifier is missing from a vocabulary.
	ErrKeyLookup = errors.New("key lookup failed")
)
