package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/renameio"
	"github.com/poiesic/patternsearch/filter"
)

// File and directory names inside a root and a snapshot.
const (
	currentFile  = "CURRENT"
	lockFile     = ".build.lock"
	snapshotsDir = "snapshots"
	manifestFile = "manifest.json"
	addressDir   = "address"
	vectorsFile  = "vectors.f32"
)

// Layout resolves paths under a snapshot root.
type Layout struct {
	Root string
}

// Dir returns the directory of snapshot version.
func (l Layout) Dir(version string) string {
	return filepath.Join(l.Root, snapshotsDir, version)
}

// ManifestPath returns the manifest path of version.
func (l Layout) ManifestPath(version string) string {
	return filepath.Join(l.Dir(version), manifestFile)
}

// AddressPath returns the address index directory of version.
func (l Layout) AddressPath(version string) string {
	return filepath.Join(l.Dir(version), addressDir)
}

// VectorsPath returns the embedding matrix path of version.
func (l Layout) VectorsPath(version string) string {
	return filepath.Join(l.Dir(version), vectorsFile)
}

// FilterPath returns the filter index path of version for backend.
func (l Layout) FilterPath(version, backend string) (string, error) {
	switch backend {
	case filter.BackendBleve:
		return filepath.Join(l.Dir(version), "filter.bleve"), nil
	case filter.BackendSQLite:
		return filepath.Join(l.Dir(version), "filter.db"), nil
	default:
		return "", fmt.Errorf("%w: %q", filter.ErrUnknownBackend, backend)
	}
}

// Current returns the live snapshot version.
func (l Layout) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(l.Root, currentFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoSnapshot
		}
		return "", err
	}
	version := strings.TrimSpace(string(data))
	if err := validVersion(version); err != nil {
		return "", err
	}
	return version, nil
}

// SetCurrent atomically points CURRENT at version.
func (l Layout) SetCurrent(version string) error {
	if err := validVersion(version); err != nil {
		return err
	}
	if _, err := os.Stat(l.ManifestPath(version)); err != nil {
		return fmt.Errorf("%w: %s has no manifest", ErrNoSnapshot, version)
	}
	return renameio.WriteFile(filepath.Join(l.Root, currentFile), []byte(version+"\n"), 0o644)
}

// List returns the committed snapshot versions, oldest first. Directories
// without a manifest are unfinished builds and are not listed.
func (l Layout) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, snapshotsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(l.ManifestPath(e.Name())); err == nil {
			versions = append(versions, e.Name())
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// Prune removes all but the newest keep committed snapshots, never
// removing the live one. It returns the removed versions.
func (l Layout) Prune(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	versions, err := l.List()
	if err != nil {
		return nil, err
	}
	current, err := l.Current()
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return nil, err
	}
	if len(versions) <= keep {
		return nil, nil
	}

	var removed []string
	for _, v := range versions[:len(versions)-keep] {
		if v == current {
			continue
		}
		if err := os.RemoveAll(l.Dir(v)); err != nil {
			return removed, err
		}
		removed = append(removed, v)
	}
	return removed, nil
}

func validVersion(v string) error {
	if v == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return nil
}
