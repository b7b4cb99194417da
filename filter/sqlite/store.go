// Package sqlite implements filter.Store on SQLite tables using the pure
// Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const schema = `
CREATE TABLE IF NOT EXISTS patterns (
	id        INTEGER PRIMARY KEY,
	category  TEXT,
	weight    TEXT,
	has_pdf   INTEGER NOT NULL DEFAULT 0,
	published TEXT
);
CREATE INDEX IF NOT EXISTS idx_patterns_category ON patterns(category);
CREATE INDEX IF NOT EXISTS idx_patterns_weight ON patterns(weight);
CREATE INDEX IF NOT EXISTS idx_patterns_published ON patterns(published);

CREATE TABLE IF NOT EXISTS pattern_tags (
	pattern_id INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	tag        TEXT NOT NULL,
	PRIMARY KEY (pattern_id, kind, tag)
);
CREATE INDEX IF NOT EXISTS idx_tags_lookup ON pattern_tags(kind, tag);

CREATE TABLE IF NOT EXISTS pattern_sizes (
	pattern_id INTEGER NOT NULL,
	tool       TEXT NOT NULL,
	mm         REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sizes_lookup ON pattern_sizes(tool, mm);
`

// Tag kinds and tool families stored in the side tables.
const (
	kindMaterial  = "material"
	kindTechnique = "technique"
	kindStitch    = "stitch"
	toolHook      = "hook"
	toolNeedle    = "needle"
)

// dateLayout stores publication days as text that sorts chronologically.
const dateLayout = time.DateOnly

// Store implements filter.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ filter.Store = (*Store)(nil)

// Open opens or creates the database at path. Use ":memory:" for tests.
// A read-only store never writes the schema.
//
// Returns filter.Store interface to enforce abstraction.
func Open(path string, readOnly bool) (filter.Store, error) {
	dsn := path
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if !readOnly {
		pragmas := []string{
			"PRAGMA journal_mode = DELETE",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
			}
		}
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", filter.ErrUnavailable, err)
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite-filter"),
	}, nil
}

// Put replaces the rows for each document in a single transaction.
func (s *Store) Put(ctx context.Context, docs []core.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO patterns (id, category, weight, has_pdf, published) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer upsert.Close()
	insertTag, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO pattern_tags (pattern_id, kind, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertTag.Close()
	insertSize, err := tx.PrepareContext(ctx,
		`INSERT INTO pattern_sizes (pattern_id, tool, mm) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertSize.Close()

	for _, d := range docs {
		a := core.NormalizeAttributes(d.Attributes)
		id := int64(d.ID)

		if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_tags WHERE pattern_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_sizes WHERE pattern_id = ?`, id); err != nil {
			return err
		}
		published := sql.NullString{}
		if !a.Published.IsZero() {
			published = sql.NullString{String: a.Published.Format(dateLayout), Valid: true}
		}
		if _, err := upsert.ExecContext(ctx, id, nullable(a.Category), nullable(a.WeightClass), a.HasPDF, published); err != nil {
			return err
		}

		tags := map[string][]string{
			kindMaterial:  a.Materials,
			kindTechnique: a.Techniques,
			kindStitch:    a.Stitches,
		}
		for kind, values := range tags {
			for _, v := range values {
				if _, err := insertTag.ExecContext(ctx, id, kind, v); err != nil {
					return err
				}
			}
		}

		sizes := map[string][]float64{
			toolHook:   a.HookSizesMM,
			toolNeedle: a.NeedleSizesMM,
		}
		for tool, values := range sizes {
			for _, mm := range values {
				if _, err := insertSize.ExecContext(ctx, id, tool, mm); err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("indexed pattern attributes", "patterns", len(docs))
	return nil
}

// Filter runs pred as a single SELECT.
func (s *Store) Filter(ctx context.Context, pred core.Predicate, limit int) ([]core.PatternID, error) {
	pred, err := filter.PrepareQuery(pred, limit)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stmt, args := buildQuery(pred, limit)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", filter.ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []core.PatternID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.PatternID(id))
	}
	return ids, rows.Err()
}

// Count returns the number of indexed patterns.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patterns`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
