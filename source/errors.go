package source

import "errors"

var (
	// ErrMalformedDocument is returned for a metadata file that cannot be
	// turned into a document.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrMissingID is returned when a metadata file carries no usable id.
	ErrMissingID = errors.New("document has no id")
)
