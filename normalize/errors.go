package normalize

import "errors"

var (
	// ErrInvalidTable is returned when a vocabulary table cannot be parsed or compiled.
	ErrInvalidTable = errors.New("invalid vocabulary table")

	// ErrConflictingTerm is returned when one term maps to two canonical values.
	ErrConflictingTerm = errors.New("conflicting vocabulary term")
)
