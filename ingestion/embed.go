package ingestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/core"
)

// embed returns one unit vector per chunk, in chunk order. Batches run
// concurrently on the worker pool; the first failed batch cancels the rest.
func (p *Pipeline) embed(ctx context.Context, chunks []core.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	out := make([][]float32, len(chunks))
	progress := NewProgressTracker(p.progress, "embedding", len(chunks), p.batchSize*4)

	var wg sync.WaitGroup
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.embedBatch(ctx, chunks[start:end], out[start:end]); err != nil {
				cancel(fmt.Errorf("batch %d-%d: %w", start, end, err))
				return
			}
			progress.Add(end - start)
		})
		if submitErr != nil {
			wg.Done()
			cancel(submitErr)
			break
		}
	}
	wg.Wait()

	if p.progress != nil {
		progress.Finish()
	}
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrEmbeddingMismatch, i, len(v), dim)
		}
	}
	p.logger.Debug("embedded chunks", "chunks", len(chunks), "dim", dim, "elapsed", progress.Elapsed())
	return out, nil
}

// embedBatch fills dst with the normalized embeddings of batch.
func (p *Pipeline) embedBatch(ctx context.Context, batch []core.Chunk, dst [][]float32) error {
	texts := make([]string, len(batch))
	for i, ch := range batch {
		texts[i] = ch.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, p.retry, p.logger, func(ctx context.Context) error {
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return err
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbeddingMismatch, len(batch), len(embeddings))
	}

	for i, v := range embeddings {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector for pattern %d", ErrEmbeddingMismatch, batch[i].PatternID)
		}
		dst[i] = ai.NormalizeVector(v)
	}
	return nil
}
