package storage

import (
	"context"

	"github.com/poiesic/patternsearch/core"
)

// AddressIndex resolves between embedding matrix rows and the chunks
// stored in them. Implementations are read-only after construction and
// safe for concurrent use.
type AddressIndex interface {
	// ResolveRowsForDocuments returns the union of rows belonging to ids,
	// without duplicates, in ascending row order. Unknown ids contribute
	// nothing.
	ResolveRowsForDocuments(ctx context.Context, ids []core.PatternID) ([]core.RowID, error)

	// DescribeRow returns the chunk stored at row. The boolean is false
	// when the row is unknown or cannot be read; it never fails loudly.
	DescribeRow(ctx context.Context, row core.RowID) (core.ChunkKey, bool)

	// DescribeRows looks up many rows at once. Unknown rows are absent
	// from the returned map.
	DescribeRows(ctx context.Context, rows []core.RowID) (map[core.RowID]core.ChunkKey, error)

	// RowCount returns the number of rows in the index.
	RowCount(ctx context.Context) (int, error)

	// Close releases resources held by the index.
	Close() error
}

// AddressWriter populates an address index during a build.
type AddressWriter interface {
	// WriteRows stores every row and the reverse pattern-to-rows mapping.
	// Rows must be dense and 0-based; WriteRows replaces any previous
	// contents.
	WriteRows(ctx context.Context, rows []core.RowMeta) error
}

// AddressStore is an index that can be both built and queried.
type AddressStore interface {
	AddressIndex
	AddressWriter
}
