package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/filter/filtertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	filtertest.Run(t, func(t *testing.T) filter.Store {
		s, err := Open(":memory:", false)
		require.NoError(t, err)
		return s
	})
}

func TestStore_ReopenReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "filter.db")

	s, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, filtertest.Fixture()))
	require.NoError(t, s.Close())

	ro, err := Open(path, true)
	require.NoError(t, err)
	defer ro.Close()

	ids, err := ro.Filter(ctx, core.Predicate{WeightClass: "worsted"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.PatternID{2, 3}, ids)

	err = ro.Put(ctx, filtertest.Fixture())
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	mm := 4.0
	stmt, args := buildQuery(core.Predicate{
		Category:     "hat",
		MaterialsAny: []string{"alpaca", "wool"},
		HookMM:       &mm,
	}, 25)

	assert.True(t, strings.HasPrefix(stmt, "SELECT p.id FROM patterns p WHERE "))
	assert.True(t, strings.HasSuffix(stmt, "ORDER BY p.id LIMIT ?"))
	assert.Contains(t, stmt, "t.tag IN (?,?)")
	require.Len(t, args, 8)
	assert.Equal(t, "hat", args[0])
	assert.Equal(t, kindMaterial, args[1])
	assert.Equal(t, 25, args[7])
}

func TestBuildQuery_PDFAndPublication(t *testing.T) {
	pdf := true
	stmt, args := buildQuery(core.Predicate{
		HasPDF:        &pdf,
		PublishedFrom: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	}, 10)

	assert.Contains(t, stmt, "p.has_pdf = ? AND p.published >= ?")
	assert.Equal(t, []any{true, "2020-02-01", 10}, args)
}

func TestBuildQuery_Empty(t *testing.T) {
	stmt, args := buildQuery(core.Predicate{}, 5)
	assert.Equal(t, "SELECT p.id FROM patterns p ORDER BY p.id LIMIT ?", stmt)
	assert.Equal(t, []any{5}, args)
}
