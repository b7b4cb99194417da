package bleve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/filter/filtertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Contract(t *testing.T) {
	filtertest.Run(t, func(t *testing.T) filter.Store {
		s, err := NewMemory()
		require.NoError(t, err)
		return s
	})
}

func TestIndex_ReopenReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "filter.bleve")

	s, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, filtertest.Fixture()))
	require.NoError(t, s.Close())

	ro, err := Open(path, true)
	require.NoError(t, err)
	defer ro.Close()

	ids, err := ro.Filter(ctx, core.Predicate{Category: "hat"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.PatternID{3, 4}, ids)
}

func TestDocIDOrdering(t *testing.T) {
	// Lexical order of padded ids must match numeric order.
	assert.Less(t, docID(9), docID(10))
	assert.Less(t, docID(99), docID(100000))
}
