package source

import (
	"context"

	"github.com/poiesic/patternsearch/core"
)

// Entry is the display information of a pattern.
type Entry struct {
	Name string
	Link string
}

// Catalog reads every document and returns its display information by id.
// Malformed files are logged and skipped.
func (r *Reader) Catalog(ctx context.Context) (map[core.PatternID]Entry, error) {
	entries := make(map[core.PatternID]Entry)
	for doc, err := range r.Documents(ctx) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("skipping catalogue entry", "err", err)
			continue
		}
		entries[doc.ID] = Entry{Name: doc.Name, Link: doc.Link}
	}
	return entries, nil
}
