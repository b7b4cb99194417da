package filter

import "errors"

var (
	// ErrInvalidLimit is returned for a non-positive result limit.
	ErrInvalidLimit = errors.New("filter limit must be positive")

	// ErrUnknownBackend is returned for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown filter backend")

	// ErrUnavailable wraps failures to reach the underlying index.
	ErrUnavailable = errors.New("filter index unavailable")
)
