package patternsearch

import (
	"context"
	"iter"
	"testing"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/ai/mock"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/ingestion"
	"github.com/poiesic/patternsearch/search"
	"github.com/poiesic/patternsearch/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documents(docs ...core.Document) iter.Seq2[*core.Document, error] {
	return func(yield func(*core.Document, error) bool) {
		for i := range docs {
			if !yield(&docs[i], nil) {
				return
			}
		}
	}
}

var testCorpus = []core.Document{
	{
		ID:         1,
		Blocks:     []core.TextBlock{{Kind: core.SourceNotes, Text: "A warm wool hat with deep ribbing."}},
		Attributes: core.Attributes{Category: "Knitting"},
	},
	{
		ID:         2,
		Blocks:     []core.TextBlock{{Kind: core.SourceNotes, Text: "Granny square blanket in cotton."}},
		Attributes: core.Attributes{Category: "Crochet"},
	},
	{
		ID:         3,
		Blocks:     []core.TextBlock{{Kind: core.SourcePattern, Text: "Lace shawl finished with picot edging."}},
		Attributes: core.Attributes{Category: "Crochet"},
	},
}

func openTestIndex(t *testing.T, root string) *Index {
	t.Helper()
	idx, err := Open(context.Background(), root,
		WithEmbedder(mock.NewTokenEmbedder(64)),
		WithSpellDistance(0),
	)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func ingest(t *testing.T, idx *Index, version string, docs ...core.Document) *ingestion.Report {
	t.Helper()
	p, err := idx.NewIngestionPipeline(ingestion.WithSnapshotVersion(version), ingestion.WithPoolSize(1))
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Run(context.Background(), documents(docs...))
	require.NoError(t, err)
	require.NoError(t, idx.Reload(context.Background()))
	return report
}

func TestOpen_EmptyRoot(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, t.TempDir())

	_, err := idx.Search(ctx, search.Request{Query: "hat"})
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)

	_, err = idx.Manifest()
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)

	_, ok := idx.DescribeRow(ctx, 0)
	assert.False(t, ok)

	assert.ErrorIs(t, idx.Reload(ctx), snapshot.ErrNoSnapshot)
}

func TestOpen_InvalidAIConfig(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), WithAIConfig(&ai.Config{}))
	assert.Error(t, err)
}

func TestIndex_IngestAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, t.TempDir())

	report := ingest(t, idx, "v1", testCorpus...)
	assert.Equal(t, 3, report.Indexed)

	m, err := idx.Manifest()
	require.NoError(t, err)
	assert.Equal(t, "v1", m.Version)
	assert.Equal(t, 3, m.Rows)

	resp, err := idx.Search(ctx, search.Request{Query: "wool hat ribbing"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, core.PatternID(1), resp.Results[0].PatternID)
	assert.False(t, resp.Degraded)

	resp, err = idx.Search(ctx, search.Request{Query: "wool hat ribbing", Filter: core.Predicate{Category: "crochet"}})
	require.NoError(t, err)
	for _, r := range resp.Results {
		assert.Contains(t, []core.PatternID{2, 3}, r.PatternID)
	}

	key, ok := idx.DescribeRow(ctx, 0)
	require.True(t, ok)
	assert.Equal(t, core.ChunkKey{PatternID: 1, Source: core.SourceNotes, Order: 1}, key)
}

func TestIndex_ReloadSwapsSnapshot(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, t.TempDir())

	ingest(t, idx, "v1", testCorpus[0])
	resp, err := idx.Search(ctx, search.Request{Query: "lace shawl"})
	require.NoError(t, err)
	for _, r := range resp.Results {
		assert.Equal(t, core.PatternID(1), r.PatternID)
	}

	ingest(t, idx, "v2", testCorpus...)
	m, err := idx.Manifest()
	require.NoError(t, err)
	assert.Equal(t, "v2", m.Version)

	resp, err = idx.Search(ctx, search.Request{Query: "lace shawl picot"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, core.PatternID(3), resp.Results[0].PatternID)
}

func TestIndex_Close(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, t.TempDir())
	ingest(t, idx, "v1", testCorpus...)

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	_, err := idx.Search(ctx, search.Request{Query: "hat"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, idx.Reload(ctx), ErrClosed)
}
