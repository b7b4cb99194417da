package eval

import "errors"

var (
	// ErrSearcherRequired is returned when a Runner has no searcher.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrInvalidCutoff is returned for a non-positive k.
	ErrInvalidCutoff = errors.New("cutoff must be positive")

	// ErrInvalidQuerySet is returned for a query set without a usable query.
	ErrInvalidQuerySet = errors.New("invalid query set")
)
