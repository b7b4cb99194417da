// Package filtertest holds behaviour tests shared by every filter.Store
// implementation.
package filtertest

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) filter.Store

// Fixture is the attribute set loaded by Run.
func Fixture() []core.Document {
	return []core.Document{
		{ID: 1, Name: "Sunday Shawl", Attributes: core.Attributes{
			Category: "Shawl", WeightClass: "fingering",
			Materials: []string{"wool"}, Techniques: []string{"lace"},
			NeedleSizesMM: []float64{3.75},
			HasPDF: true, Published: time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC),
		}},
		{ID: 2, Name: "Granny Blanket", Attributes: core.Attributes{
			Category: "blanket", WeightClass: "worsted",
			Materials: []string{"acrylic"}, Stitches: []string{"dc", "ch"},
			HookSizesMM: []float64{5.0},
			Published:   time.Date(2021, 11, 20, 0, 0, 0, 0, time.UTC),
		}},
		{ID: 3, Name: "Bobble Hat", Attributes: core.Attributes{
			Category: "hat", WeightClass: "worsted",
			Materials: []string{"wool", "alpaca"}, Stitches: []string{"bobble"},
			HookSizesMM: []float64{4.25},
		}},
		{ID: 4, Name: "Cabled Hat", Attributes: core.Attributes{
			Category: "hat", WeightClass: "aran",
			Materials: []string{"wool"}, Techniques: []string{"cables"},
			NeedleSizesMM: []float64{4.5, 5.0},
			HasPDF: true, Published: time.Date(2021, 11, 19, 18, 0, 0, 0, time.UTC),
		}},
		{ID: 5, Name: "Bare Pattern"},
	}
}

// Run exercises the filter.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	load := func(t *testing.T) filter.Store {
		s := newStore(t)
		t.Cleanup(func() { s.Close() })
		require.NoError(t, s.Put(ctx, Fixture()))
		return s
	}

	t.Run("EmptyPredicateMatchesAll", func(t *testing.T) {
		s := load(t)
		ids, err := s.Filter(ctx, core.Predicate{}, 100)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{1, 2, 3, 4, 5}, ids)
	})

	t.Run("LimitCapsResults", func(t *testing.T) {
		s := load(t)
		ids, err := s.Filter(ctx, core.Predicate{}, 2)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{1, 2}, ids)
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		s := load(t)
		_, err := s.Filter(ctx, core.Predicate{}, 0)
		assert.ErrorIs(t, err, filter.ErrInvalidLimit)
	})

	t.Run("InvalidPredicate", func(t *testing.T) {
		s := load(t)
		bad := -1.0
		_, err := s.Filter(ctx, core.Predicate{HookMM: &bad}, 10)
		assert.ErrorIs(t, err, core.ErrInvalidPredicate)
	})

	t.Run("ExactCategoryCaseInsensitive", func(t *testing.T) {
		s := load(t)
		ids, err := s.Filter(ctx, core.Predicate{Category: "SHAWL"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{1}, ids)
	})

	t.Run("ConstraintsAreConjunctive", func(t *testing.T) {
		s := load(t)
		ids, err := s.Filter(ctx, core.Predicate{Category: "hat", WeightClass: "worsted"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{3}, ids)
	})

	t.Run("AnyOfList", func(t *testing.T) {
		s := load(t)
		ids, err := s.Filter(ctx, core.Predicate{MaterialsAny: []string{"alpaca", "acrylic"}}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{2, 3}, ids)

		ids, err = s.Filter(ctx, core.Predicate{MaterialsAny: []string{"wool"}, TechniquesAny: []string{"cables"}}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{4}, ids)
	})

	t.Run("HookTolerance", func(t *testing.T) {
		s := load(t)
		tests := []struct {
			mm   float64
			want []core.PatternID
		}{
			{4.0, []core.PatternID{3}},
			{4.5, []core.PatternID{3}},
			{4.75, []core.PatternID{2}},
			{3.9, nil},
			{5.25, []core.PatternID{2}},
		}
		for _, tt := range tests {
			mm := tt.mm
			ids, err := s.Filter(ctx, core.Predicate{HookMM: &mm}, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids, "hook %.2f", tt.mm)
		}
	})

	t.Run("CustomTolerance", func(t *testing.T) {
		s := load(t)
		mm := 4.0
		ids, err := s.Filter(ctx, core.Predicate{NeedleMM: &mm, ToleranceMM: 0.5}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{1, 4}, ids)

		ids, err = s.Filter(ctx, core.Predicate{NeedleMM: &mm, ToleranceMM: 0.1}, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("HasPDF", func(t *testing.T) {
		s := load(t)
		yes, no := true, false
		ids, err := s.Filter(ctx, core.Predicate{HasPDF: &yes}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{1, 4}, ids)

		ids, err = s.Filter(ctx, core.Predicate{HasPDF: &no}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{2, 3, 5}, ids)

		ids, err = s.Filter(ctx, core.Predicate{HasPDF: &yes, Category: "hat"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{4}, ids)
	})

	t.Run("PublishedFrom", func(t *testing.T) {
		s := load(t)
		tests := []struct {
			from time.Time
			want []core.PatternID
		}{
			{time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), []core.PatternID{1, 2, 4}},
			{time.Date(2021, 11, 19, 0, 0, 0, 0, time.UTC), []core.PatternID{2, 4}},
			// The bound is a whole day, so the time of day is ignored.
			{time.Date(2021, 11, 20, 23, 59, 0, 0, time.UTC), []core.PatternID{2}},
			{time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), nil},
		}
		for _, tt := range tests {
			ids, err := s.Filter(ctx, core.Predicate{PublishedFrom: tt.from}, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids, "from %s", tt.from.Format(time.DateOnly))
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		s := load(t)
		ids, err := s.Filter(ctx, core.Predicate{Category: "sock"}, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		s := load(t)
		require.NoError(t, s.Put(ctx, []core.Document{
			{ID: 1, Attributes: core.Attributes{Category: "hat"}},
		}))
		ids, err := s.Filter(ctx, core.Predicate{Category: "shawl"}, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = s.Filter(ctx, core.Predicate{Category: "hat"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.PatternID{1, 3, 4}, ids)
	})

	t.Run("Count", func(t *testing.T) {
		s := load(t)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		s := load(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Filter(cctx, core.Predicate{Category: "hat"}, 10)
		assert.Error(t, err)
	})
}
