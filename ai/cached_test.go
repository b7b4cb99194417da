package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()

	embedder, err := ai.NewCachedEmbedder(inner, 2)
	require.NoError(t, err)

	first, err := embedder.EmbedText(ctx, "cabled hat")
	require.NoError(t, err)
	second, err := embedder.EmbedText(ctx, "cabled hat")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.CallCount(), "second call should be served from cache")

	// mutating a returned vector must not poison the cache
	second[0] = 42
	third, err := embedder.EmbedText(ctx, "cabled hat")
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	embedder, err := ai.NewCachedEmbedder(inner, 1)
	require.NoError(t, err)

	_, _ = embedder.EmbedText(ctx, "a")
	_, _ = embedder.EmbedText(ctx, "b")
	_, _ = embedder.EmbedText(ctx, "a")
	assert.Equal(t, 3, inner.CallCount())
	assert.Equal(t, 1, embedder.(*ai.CachedEmbedder).Len())
}

func TestCachedEmbedder_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model offline")
	}
	embedder, err := ai.NewCachedEmbedder(inner, 8)
	require.NoError(t, err)

	_, err = embedder.EmbedText(ctx, "q")
	assert.Error(t, err)
	_, err = embedder.EmbedText(ctx, "q")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.CallCount())
}

func TestCachedEmbedder_Disabled(t *testing.T) {
	inner := mock.NewMockEmbedder()
	embedder, err := ai.NewCachedEmbedder(inner, 0)
	require.NoError(t, err)
	assert.Same(t, inner, embedder)
}
