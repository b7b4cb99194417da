package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/storage"
)

// AddressIndex implements storage.AddressStore for BadgerDB.
type AddressIndex struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.AddressStore = (*AddressIndex)(nil)

// NewAddressIndex creates an AddressIndex over an existing backend.
// The caller keeps ownership of the backend.
func NewAddressIndex(backend *Backend) (*AddressIndex, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &AddressIndex{
		backend: backend,
		logger:  slog.Default().With("component", "address-index"),
	}, nil
}

// OpenAddressIndex opens the address index stored at path. A read-only
// index is used for serving; a writable one for builds.
//
// Returns storage.AddressStore interface to enforce abstraction.
func OpenAddressIndex(path string, readOnly bool) (storage.AddressStore, error) {
	var (
		backend *Backend
		err     error
	)
	if readOnly {
		backend, err = OpenReadOnlyBackend(path)
	} else {
		backend, err = OpenBackend(path, false)
	}
	if err != nil {
		return nil, err
	}
	idx, err := NewAddressIndex(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	idx.ownsBackend = true
	return idx, nil
}

// Close releases the backend if the index opened it.
func (a *AddressIndex) Close() error {
	if a.ownsBackend {
		return a.backend.Close()
	}
	return nil
}

// WriteRows replaces the index contents with rows.
func (a *AddressIndex) WriteRows(ctx context.Context, rows []core.RowMeta) error {
	for i, r := range rows {
		if r.Row != core.RowID(i) {
			return fmt.Errorf("%w: position %d holds row %d", storage.ErrInvalidRows, i, r.Row)
		}
	}
	existing, err := a.RowCount(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		if err := a.backend.DropPrefixes(rowPrefix, patternPrefix, rowCountKey); err != nil {
			return err
		}
	}

	byPattern := make(map[core.PatternID][]core.RowID)
	err = a.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeRowKey(r.Row), storage.MarshalChunkKey(r.Key)); err != nil {
				return err
			}
			byPattern[r.Key.PatternID] = append(byPattern[r.Key.PatternID], r.Row)
		}
		for id, ids := range byPattern {
			if err := wb.Set(makePatternKey(id), storage.MarshalRowIDs(ids)); err != nil {
				return err
			}
		}
		return wb.Set([]byte(rowCountKey), binary.AppendUvarint(nil, uint64(len(rows))))
	})
	if err != nil {
		return err
	}

	a.logger.Debug("wrote address index", "rows", len(rows), "patterns", len(byPattern))
	return nil
}

// ResolveRowsForDocuments returns the sorted union of rows for ids.
func (a *AddressIndex) ResolveRowsForDocuments(ctx context.Context, ids []core.PatternID) ([]core.RowID, error) {
	var rows []core.RowID
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makePatternKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				patternRows, err := storage.UnmarshalRowIDs(val)
				if err != nil {
					return err
				}
				rows = append(rows, patternRows...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.Sort(rows)
	return slices.Compact(rows), nil
}

// DescribeRow returns the chunk key for row.
func (a *AddressIndex) DescribeRow(ctx context.Context, row core.RowID) (core.ChunkKey, bool) {
	found, err := a.DescribeRows(ctx, []core.RowID{row})
	if err != nil {
		a.logger.Warn("error describing row", "row", row, "err", err)
		return core.ChunkKey{}, false
	}
	key, ok := found[row]
	return key, ok
}

// DescribeRows returns chunk keys for every known row in rows.
func (a *AddressIndex) DescribeRows(ctx context.Context, rows []core.RowID) (map[core.RowID]core.ChunkKey, error) {
	found := make(map[core.RowID]core.ChunkKey, len(rows))
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if row < 0 {
				continue
			}
			item, err := tx.Get(makeRowKey(row))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				key, err := storage.UnmarshalChunkKey(val)
				if err != nil {
					return err
				}
				found[row] = key
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// RowCount returns the number of rows written by the last WriteRows.
func (a *AddressIndex) RowCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count uint64
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(rowCountKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var n int
			count, n = binary.Uvarint(val)
			if n <= 0 {
				return storage.ErrTruncatedData
			}
			return nil
		})
	}, false)
	return int(count), err
}
