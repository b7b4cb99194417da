package snapshot

import (
	"fmt"

	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/filter/bleve"
	"github.com/poiesic/patternsearch/filter/sqlite"
)

// CreateFilter creates an empty filter index of backend at path.
func CreateFilter(backend, path string) (filter.Store, error) {
	switch backend {
	case filter.BackendBleve:
		return bleve.Create(path)
	case filter.BackendSQLite:
		return sqlite.Open(path, false)
	default:
		return nil, fmt.Errorf("%w: %q", filter.ErrUnknownBackend, backend)
	}
}

// OpenFilter opens an existing filter index of backend at path.
func OpenFilter(backend, path string, readOnly bool) (filter.Store, error) {
	switch backend {
	case filter.BackendBleve:
		return bleve.Open(path, readOnly)
	case filter.BackendSQLite:
		return sqlite.Open(path, readOnly)
	default:
		return nil, fmt.Errorf("%w: %q", filter.ErrUnknownBackend, backend)
	}
}
