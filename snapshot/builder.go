package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Builder owns a snapshot directory while it is being written. Only one
// Builder per root may exist at a time, across processes.
type Builder struct {
	layout  Layout
	version string
	lock    *flock.Flock
	done    bool
	logger  *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithVersion names the new snapshot. The default is a UTC timestamp, so
// versions sort chronologically.
func WithVersion(version string) BuilderOption {
	return func(b *Builder) error {
		if err := validVersion(version); err != nil {
			return err
		}
		b.version = version
		return nil
	}
}

// NewBuilder takes the build lock of root and creates a fresh snapshot
// directory. It returns ErrBuildInProgress if another builder holds the lock.
func NewBuilder(root string, opts ...BuilderOption) (*Builder, error) {
	if err := os.MkdirAll(filepath.Join(root, snapshotsDir), 0o755); err != nil {
		return nil, err
	}

	b := &Builder{
		layout:  Layout{Root: root},
		version: time.Now().UTC().Format("20060102T150405.000000000Z"),
		logger:  slog.Default().With("component", "snapshot-builder"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	lock := flock.New(filepath.Join(root, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !locked {
		return nil, ErrBuildInProgress
	}
	b.lock = lock

	dir := b.layout.Dir(b.version)
	if _, err := os.Stat(dir); err == nil {
		b.lock.Unlock()
		return nil, fmt.Errorf("%w: %s already exists", ErrInvalidVersion, b.version)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.lock.Unlock()
		return nil, err
	}

	b.logger.Info("started snapshot build", "version", b.version, "dir", dir)
	return b, nil
}

// Version returns the name of the snapshot being built.
func (b *Builder) Version() string {
	return b.version
}

// Layout returns the layout of the root being built into.
func (b *Builder) Layout() Layout {
	return b.layout
}

// Commit writes the manifest and makes the snapshot live. The manifest's
// Version and FormatVersion are filled in.
func (b *Builder) Commit(m *Manifest) error {
	if b.done {
		return fmt.Errorf("snapshot %s already finished", b.version)
	}
	m.Version = b.version
	m.FormatVersion = FormatVersion
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := WriteManifest(b.layout.ManifestPath(b.version), m); err != nil {
		return err
	}
	if err := b.layout.SetCurrent(b.version); err != nil {
		return err
	}
	b.done = true
	b.logger.Info("committed snapshot", "version", b.version, "rows", m.Rows, "patterns", m.Patterns)
	return b.lock.Unlock()
}

// Abort removes an uncommitted snapshot directory and releases the lock.
// It is a no-op after Commit.
func (b *Builder) Abort() error {
	if b.done {
		return nil
	}
	b.done = true
	err := os.RemoveAll(b.layout.Dir(b.version))
	if unlockErr := b.lock.Unlock(); err == nil {
		err = unlockErr
	}
	b.logger.Warn("aborted snapshot build", "version", b.version)
	return err
}
