package ingestion

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/poiesic/patternsearch/ai/mock"
	"github.com/poiesic/patternsearch/chunk"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourced struct {
	doc *core.Document
	err error
}

func docSeq(items ...sourced) iter.Seq2[*core.Document, error] {
	return func(yield func(*core.Document, error) bool) {
		for _, it := range items {
			if !yield(it.doc, it.err) {
				return
			}
		}
	}
}

// corpus yields two indexable documents, one empty one and two malformed ones.
func corpus() iter.Seq2[*core.Document, error] {
	return docSeq(
		sourced{doc: &core.Document{
			ID:   4,
			Name: "Delta Cowl",
			Blocks: []core.TextBlock{
				{Kind: core.SourceNotes, Text: "gamma delta"},
			},
			Attributes: core.Attributes{Category: "Crochet", HookSizesMM: []float64{5}},
		}},
		sourced{doc: &core.Document{
			ID:   1,
			Name: "Alpha Hat",
			Blocks: []core.TextBlock{
				{Kind: core.SourceNotes, Text: "alpha beta gamma delta epsilon"},
				{Kind: core.SourcePattern, Text: "zeta eta"},
			},
			Attributes: core.Attributes{Category: "Knitting", NeedleSizesMM: []float64{4}},
		}},
		sourced{doc: &core.Document{ID: 2, Blocks: []core.TextBlock{{Kind: core.SourceNotes, Text: "  "}}}},
		sourced{doc: &core.Document{ID: 0, Blocks: []core.TextBlock{{Kind: core.SourceNotes, Text: "theta"}}}},
		sourced{err: errors.New("unreadable metadata")},
	)
}

func newTestPipeline(t *testing.T, root string, embedder *mock.MockEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	chunker, err := chunk.New(chunk.WithWindowSize(4), chunk.WithStride(3))
	require.NoError(t, err)

	base := []Option{
		WithChunker(chunker),
		WithEmbeddingModel("test-model"),
		WithBatchSize(2),
		WithPoolSize(2),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}),
	}
	p, err := NewPipeline(root, embedder, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline("", mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRootRequired)

	_, err = NewPipeline(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(t.TempDir(), mock.NewMockEmbedder(), WithFilterBackend("postgres"))
	assert.ErrorIs(t, err, filter.ErrUnknownBackend)

	_, err = NewPipeline(t.TempDir(), mock.NewMockEmbedder(), WithRetryPolicy(RetryPolicy{}))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := newTestPipeline(t, root, mock.NewTokenEmbedder(16), WithSnapshotVersion("v1"))

	report, err := p.Run(ctx, corpus())
	require.NoError(t, err)

	assert.Equal(t, "v1", report.Version)
	assert.Equal(t, 5, report.Seen)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 2, report.SkippedMalformed)
	assert.Equal(t, 1, report.SkippedEmpty)
	assert.Equal(t, 3, report.Skipped())
	assert.Equal(t, 4, report.Chunks)
	assert.Equal(t, 16, report.Dim)
	assert.NotEmpty(t, report.Fingerprint)

	snap, err := snapshot.Open(ctx, root)
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, "v1", snap.Manifest.Version)
	assert.Equal(t, "test-model", snap.Manifest.EmbeddingModel)
	assert.Equal(t, 4, snap.Manifest.Rows)
	assert.Equal(t, 2, snap.Manifest.Patterns)
	assert.Equal(t, 4, snap.Manifest.WindowSize)
	assert.Equal(t, 3, snap.Manifest.Stride)
	assert.Equal(t, filter.BackendBleve, snap.Manifest.FilterBackend)
	assert.Equal(t, 4, snap.Matrix.Rows())

	// Rows run notes before pattern text, then by pattern id and order.
	want := []core.ChunkKey{
		{PatternID: 1, Source: core.SourceNotes, Order: 1},
		{PatternID: 1, Source: core.SourceNotes, Order: 2},
		{PatternID: 4, Source: core.SourceNotes, Order: 1},
		{PatternID: 1, Source: core.SourcePattern, Order: 1},
	}
	for row, key := range want {
		got, ok := snap.Addresses.DescribeRow(ctx, core.RowID(row))
		require.True(t, ok, "row %d", row)
		assert.Equal(t, key, got, "row %d", row)
	}

	rows, err := snap.Addresses.ResolveRowsForDocuments(ctx, []core.PatternID{1})
	require.NoError(t, err)
	assert.Equal(t, []core.RowID{0, 1, 3}, rows)

	count, err := snap.Filter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ids, err := snap.Filter.Filter(ctx, core.Predicate{Category: "knitting"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.PatternID{1}, ids)

	vec, ok := snap.Matrix.Row(0)
	require.True(t, ok)
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestPipeline_RunSQLite(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := newTestPipeline(t, root, mock.NewTokenEmbedder(8), WithFilterBackend(filter.BackendSQLite))

	_, err := p.Run(ctx, corpus())
	require.NoError(t, err)

	snap, err := snapshot.Open(ctx, root)
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, filter.BackendSQLite, snap.Manifest.FilterBackend)
	hook := 5.0
	ids, err := snap.Filter.Filter(ctx, core.Predicate{HookMM: &hook}, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.PatternID{4}, ids)
}

func TestPipeline_RebuildPrunesAndIsDeterministic(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	embedder := mock.NewTokenEmbedder(16)

	first, err := newTestPipeline(t, root, embedder, WithSnapshotVersion("v1"), WithKeep(1)).Run(ctx, corpus())
	require.NoError(t, err)
	second, err := newTestPipeline(t, root, embedder, WithSnapshotVersion("v2"), WithKeep(1)).Run(ctx, corpus())
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, []string{"v1"}, second.Pruned)

	versions, err := snapshot.Layout{Root: root}.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, versions)
}

func TestPipeline_EmbeddingFailureLeavesNoSnapshot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}
	p := newTestPipeline(t, root, embedder, WithBatchSize(100))

	_, err := p.Run(ctx, corpus())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")
	assert.Equal(t, 2, embedder.CallCount(), "one batch, two attempts")

	_, err = snapshot.Open(ctx, root)
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)

	versions, err := snapshot.Layout{Root: root}.List()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestPipeline_EmbeddingCountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}
	p := newTestPipeline(t, t.TempDir(), embedder, WithBatchSize(100))

	_, err := p.Run(context.Background(), corpus())
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}

func TestPipeline_RetriesTransientFailure(t *testing.T) {
	calls := 0
	inner := mock.NewTokenEmbedder(8)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("timeout")
		}
		return inner.EmbedTexts(ctx, texts)
	}
	p := newTestPipeline(t, t.TempDir(), embedder, WithBatchSize(100), WithPoolSize(1))

	report, err := p.Run(context.Background(), corpus())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Chunks)
	assert.Equal(t, 2, calls)
}

func TestPipeline_BuildInProgress(t *testing.T) {
	root := t.TempDir()
	holder, err := snapshot.NewBuilder(root, snapshot.WithVersion("held"))
	require.NoError(t, err)
	defer holder.Abort()

	p := newTestPipeline(t, root, mock.NewTokenEmbedder(8))
	_, err = p.Run(context.Background(), corpus())
	assert.ErrorIs(t, err, snapshot.ErrBuildInProgress)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := t.TempDir()
	p := newTestPipeline(t, root, mock.NewTokenEmbedder(8))
	_, err := p.Run(ctx, corpus())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = snapshot.Open(context.Background(), root)
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)
}

func TestPipeline_EmptyCorpus(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := newTestPipeline(t, root, mock.NewTokenEmbedder(8))

	report, err := p.Run(ctx, docSeq())
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)

	snap, err := snapshot.Open(ctx, root)
	require.NoError(t, err)
	defer snap.Close()
	assert.Zero(t, snap.Manifest.Rows)
}

func TestPrepare_BlocksOfOneKindContinueOrder(t *testing.T) {
	p := newTestPipeline(t, t.TempDir(), mock.NewMockEmbedder())
	report := &Report{}

	out, err := p.prepare(context.Background(), docSeq(sourced{doc: &core.Document{
		ID: 9,
		Blocks: []core.TextBlock{
			{Kind: core.SourcePattern, Text: "one two"},
			{Kind: core.SourcePattern, Text: "three four"},
		},
	}}), report)
	require.NoError(t, err)
	require.Len(t, out.chunks, 2)
	assert.Equal(t, 1, out.chunks[0].Order)
	assert.Equal(t, "one two", out.chunks[0].Text)
	assert.Equal(t, 2, out.chunks[1].Order)
	assert.Equal(t, "three four", out.chunks[1].Text)
}

func TestPrepare_DuplicateIsMalformed(t *testing.T) {
	p := newTestPipeline(t, t.TempDir(), mock.NewMockEmbedder())
	report := &Report{}
	doc := &core.Document{ID: 3, Blocks: []core.TextBlock{{Kind: core.SourceNotes, Text: "sigma"}}}

	out, err := p.prepare(context.Background(), docSeq(sourced{doc: doc}, sourced{doc: doc}), report)
	require.NoError(t, err)
	assert.Len(t, out.docs, 1)
	assert.Equal(t, 1, report.SkippedMalformed)
}
