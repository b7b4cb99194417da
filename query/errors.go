package query

import "errors"

var (
	// ErrInvalidDistance is returned for a negative maximum edit distance.
	ErrInvalidDistance = errors.New("max distance must not be negative")

	// ErrInvalidDictionary is returned when a word list cannot be parsed.
	ErrInvalidDictionary = errors.New("invalid dictionary")
)
