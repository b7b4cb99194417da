package filter

import (
	"context"

	"github.com/poiesic/patternsearch/core"
)

// Backend names accepted in configuration.
const (
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
)

// sizeEpsilon absorbs float rounding at the edges of a tolerance window.
const sizeEpsilon = 1e-9

// Index answers structured predicates over pattern attributes.
// Implementations are safe for concurrent readers.
type Index interface {
	// Filter returns the ids of patterns satisfying every constraint in
	// pred, at most limit of them, in ascending id order. An empty
	// predicate matches all patterns.
	Filter(ctx context.Context, pred core.Predicate, limit int) ([]core.PatternID, error)

	// Count returns the number of indexed patterns.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the index.
	Close() error
}

// Writer loads pattern attributes during a build.
type Writer interface {
	// Put indexes the attributes of docs, replacing earlier entries with
	// the same id.
	Put(ctx context.Context, docs []core.Document) error
}

// Store is an index that can be both built and queried.
type Store interface {
	Index
	Writer
}

// SizeRange returns the inclusive millimetre window around target.
func SizeRange(target, tolerance float64) (lo, hi float64) {
	return target - tolerance - sizeEpsilon, target + tolerance + sizeEpsilon
}

// PrepareQuery validates pred and limit and returns the canonical predicate.
func PrepareQuery(pred core.Predicate, limit int) (core.Predicate, error) {
	if limit <= 0 {
		return pred, ErrInvalidLimit
	}
	return core.ValidatePredicate(pred)
}
