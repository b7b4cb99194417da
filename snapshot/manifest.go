package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/renameio"
)

// FormatVersion is the on-disk format written by this package.
const FormatVersion = "1.0.0"

// formatConstraint accepts every format this package can read.
const formatConstraint = "^1.0.0"

// Manifest describes a snapshot and the parameters it was built with.
// Searches must embed queries with the same model and normalize them with
// the same table version.
type Manifest struct {
	FormatVersion  string    `json:"format_version"`
	Version        string    `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	EmbeddingModel string    `json:"embedding_model"`
	Dim            int       `json:"dim"`
	Rows           int       `json:"rows"`
	Patterns       int       `json:"patterns"`
	WindowSize     int       `json:"window_size"`
	Stride         int       `json:"stride"`
	TableVersion   string    `json:"table_version"`
	FilterBackend  string    `json:"filter_backend"`
	Fingerprint    string    `json:"fingerprint"`
}

// CheckFormat verifies that m was written in a readable format.
func (m *Manifest) CheckFormat() error {
	v, err := semver.NewVersion(m.FormatVersion)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrIncompatibleFormat, m.FormatVersion, err)
	}
	c, err := semver.NewConstraint(formatConstraint)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleFormat, v, formatConstraint)
	}
	return nil
}

// ReadManifest loads the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorruptSnapshot, err)
	}
	if err := m.CheckFormat(); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteManifest atomically writes m to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, append(data, '\n'), 0o644)
}
