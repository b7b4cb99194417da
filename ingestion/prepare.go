package ingestion

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/poiesic/patternsearch/core"
)

// prepared is the chunked corpus of a run, in row order.
type prepared struct {
	docs   []core.Document
	chunks []core.Chunk
}

// prepare validates, normalizes and chunks docs. Malformed and empty
// documents are counted in report and left out.
func (p *Pipeline) prepare(ctx context.Context, docs iter.Seq2[*core.Document, error], report *Report) (*prepared, error) {
	out := &prepared{}
	seen := make(map[core.PatternID]struct{})

	for doc, err := range docs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		report.Seen++
		if err == nil {
			err = core.ValidateDocument(doc)
		}
		if err == nil {
			if _, dup := seen[doc.ID]; dup {
				err = fmt.Errorf("%w: %d", ErrDuplicateDocument, doc.ID)
			}
		}
		if err != nil {
			report.SkippedMalformed++
			p.logger.Warn("skipping malformed document", "err", err)
			continue
		}
		seen[doc.ID] = struct{}{}

		// Several blocks of one kind continue a single order sequence.
		var chunks []core.Chunk
		next := make(map[core.SourceKind]int)
		for _, block := range doc.Blocks {
			normalized := p.normalizer.Normalize(block.Text)
			for _, ch := range p.chunker.Chunk(doc.ID, block.Kind, normalized) {
				next[ch.Source]++
				ch.Order = next[ch.Source]
				chunks = append(chunks, ch)
			}
		}
		if len(chunks) == 0 {
			report.SkippedEmpty++
			p.logger.Debug("skipping document without text", "id", doc.ID)
			continue
		}

		out.docs = append(out.docs, *doc)
		out.chunks = append(out.chunks, chunks...)
	}

	slices.SortFunc(out.chunks, func(a, b core.Chunk) int {
		return a.ChunkKey.Compare(b.ChunkKey)
	})
	slices.SortFunc(out.docs, func(a, b core.Document) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// rows returns the address records of chunks; chunk i is row i.
func (c *prepared) rows() []core.RowMeta {
	rows := make([]core.RowMeta, len(c.chunks))
	for i, ch := range c.chunks {
		rows[i] = core.RowMeta{Row: core.RowID(i), Key: ch.ChunkKey}
	}
	return rows
}

// fingerprint identifies the corpus together with the build parameters.
func (c *prepared) fingerprint(params ...string) string {
	f := core.NewFingerprint()
	f.Add(params...)
	for _, ch := range c.chunks {
		f.Add(string(ch.Source), strconv.FormatInt(int64(ch.PatternID), 10), strconv.Itoa(ch.Order), ch.Text)
	}
	return f.Sum()
}
