package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/storage"
	"github.com/poiesic/patternsearch/storage/badger"
	"github.com/poiesic/patternsearch/vectors"
)

// Snapshot is an opened, read-only snapshot.
type Snapshot struct {
	Manifest  *Manifest
	Addresses storage.AddressIndex
	Filter    filter.Index
	Matrix    vectors.Matrix
}

// Open opens the live snapshot under root.
func Open(ctx context.Context, root string) (*Snapshot, error) {
	l := Layout{Root: root}
	version, err := l.Current()
	if err != nil {
		return nil, err
	}
	return OpenVersion(ctx, root, version)
}

// OpenVersion opens snapshot version under root and checks that its
// stores agree with the manifest.
func OpenVersion(ctx context.Context, root, version string) (_ *Snapshot, err error) {
	if err := validVersion(version); err != nil {
		return nil, err
	}
	l := Layout{Root: root}
	m, err := ReadManifest(l.ManifestPath(version))
	if err != nil {
		return nil, err
	}

	s := &Snapshot{Manifest: m}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	matrix, err := vectors.Open(l.VectorsPath(version))
	if err != nil {
		return nil, err
	}
	s.Matrix = matrix
	if s.Addresses, err = badger.OpenAddressIndex(l.AddressPath(version), true); err != nil {
		return nil, err
	}
	filterPath, err := l.FilterPath(version, m.FilterBackend)
	if err != nil {
		return nil, err
	}
	if s.Filter, err = OpenFilter(m.FilterBackend, filterPath, true); err != nil {
		return nil, err
	}

	rows, err := s.Addresses.RowCount(ctx)
	if err != nil {
		return nil, err
	}
	if rows != m.Rows || s.Matrix.Rows() != m.Rows {
		return nil, fmt.Errorf("%w: manifest has %d rows, address index %d, matrix %d",
			ErrCorruptSnapshot, m.Rows, rows, s.Matrix.Rows())
	}
	if m.Rows > 0 && s.Matrix.Dim() != m.Dim {
		return nil, fmt.Errorf("%w: manifest dim %d, matrix dim %d", ErrCorruptSnapshot, m.Dim, s.Matrix.Dim())
	}
	return s, nil
}

// Close releases every store.
func (s *Snapshot) Close() error {
	var errs []error
	if s.Filter != nil {
		errs = append(errs, s.Filter.Close())
	}
	if s.Addresses != nil {
		errs = append(errs, s.Addresses.Close())
	}
	if s.Matrix != nil {
		errs = append(errs, s.Matrix.Close())
	}
	return errors.Join(errs...)
}
