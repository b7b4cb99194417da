package badger

import (
	"context"
	"testing"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []core.RowMeta {
	keys := []core.ChunkKey{
		{PatternID: 10, Source: core.SourceNotes, Order: 1},
		{PatternID: 20, Source: core.SourceNotes, Order: 1},
		{PatternID: 20, Source: core.SourceNotes, Order: 2},
		{PatternID: 10, Source: core.SourcePattern, Order: 1},
		{PatternID: 10, Source: core.SourcePattern, Order: 2},
		{PatternID: 30, Source: core.SourcePattern, Order: 1},
	}
	rows := make([]core.RowMeta, len(keys))
	for i, k := range keys {
		rows[i] = core.RowMeta{Row: core.RowID(i), Key: k}
	}
	return rows
}

func newTestIndex(t *testing.T) storage.AddressStore {
	t.Helper()
	idx, err := NewMemoryAddressIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	require.NoError(t, idx.WriteRows(context.Background(), sampleRows()))
	return idx
}

func TestAddressIndex_Bijection(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	count, err := idx.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	for _, r := range sampleRows() {
		key, ok := idx.DescribeRow(ctx, r.Row)
		require.True(t, ok, "row %d", r.Row)
		assert.Equal(t, r.Key, key)

		rows, err := idx.ResolveRowsForDocuments(ctx, []core.PatternID{key.PatternID})
		require.NoError(t, err)
		assert.Contains(t, rows, r.Row)
	}
}

func TestAddressIndex_ResolveRowsForDocuments(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	tests := []struct {
		name string
		ids  []core.PatternID
		want []core.RowID
	}{
		{name: "single pattern", ids: []core.PatternID{10}, want: []core.RowID{0, 3, 4}},
		{name: "union", ids: []core.PatternID{30, 20}, want: []core.RowID{1, 2, 5}},
		{name: "duplicates collapse", ids: []core.PatternID{20, 20}, want: []core.RowID{1, 2}},
		{name: "stale id skipped", ids: []core.PatternID{99, 30}, want: []core.RowID{5}},
		{name: "empty", ids: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := idx.ResolveRowsForDocuments(ctx, tt.ids)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, rows)
				return
			}
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestAddressIndex_DescribeUnknownRow(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	_, ok := idx.DescribeRow(ctx, 6)
	assert.False(t, ok)
	_, ok = idx.DescribeRow(ctx, -1)
	assert.False(t, ok)

	found, err := idx.DescribeRows(ctx, []core.RowID{0, 77, 5})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, core.PatternID(30), found[5].PatternID)
}

func TestAddressIndex_WriteRowsRejectsGaps(t *testing.T) {
	idx, err := NewMemoryAddressIndex()
	require.NoError(t, err)
	defer idx.Close()

	rows := []core.RowMeta{
		{Row: 0, Key: core.ChunkKey{PatternID: 1, Source: core.SourceNotes, Order: 1}},
		{Row: 2, Key: core.ChunkKey{PatternID: 1, Source: core.SourceNotes, Order: 2}},
	}
	err = idx.WriteRows(context.Background(), rows)
	assert.ErrorIs(t, err, storage.ErrInvalidRows)
}

func TestAddressIndex_ReopenReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writable, err := OpenAddressIndex(dir, false)
	require.NoError(t, err)
	require.NoError(t, writable.WriteRows(ctx, sampleRows()))

	// rewriting replaces earlier contents
	short := sampleRows()[:2]
	require.NoError(t, writable.WriteRows(ctx, short))
	require.NoError(t, writable.Close())

	idx, err := OpenAddressIndex(dir, true)
	require.NoError(t, err)
	defer idx.Close()

	count, err := idx.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok := idx.DescribeRow(ctx, 4)
	assert.False(t, ok)

	rows, err := idx.ResolveRowsForDocuments(ctx, []core.PatternID{10, 20})
	require.NoError(t, err)
	assert.Equal(t, []core.RowID{0, 1}, rows)

	err = idx.WriteRows(ctx, short)
	assert.ErrorIs(t, err, storage.ErrReadOnly)
}

func TestAddressIndex_Cancelled(t *testing.T) {
	idx := newTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.ResolveRowsForDocuments(ctx, []core.PatternID{10})
	assert.ErrorIs(t, err, context.Canceled)
}
