package ai

import (
	"context"
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder memoizes single-text embeddings in an LRU.
type CachedEmbedder struct {
	inner  Embedder
	cache  *lru.Cache[string, []float32]
	logger *slog.Logger
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU of the given size. A size of
// zero or less returns inner unchanged.
func NewCachedEmbedder(inner Embedder, size int) (Embedder, error) {
	if size <= 0 {
		return inner, nil
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{
		inner:  inner,
		cache:  cache,
		logger: slog.Default().With("component", "embedding-cache"),
	}, nil
}

// EmbedText returns the cached vector for text, computing it on a miss.
// Failures are not cached.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		c.logger.Debug("embedding cache hit", "length", len(text))
		return slices.Clone(v), nil
	}
	v, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, slices.Clone(v))
	return v, nil
}

// EmbedTexts is not cached; batches come from ingestion and are unique.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.EmbedTexts(ctx, texts)
}

// Len returns the number of cached entries.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
