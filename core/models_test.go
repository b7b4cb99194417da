package core

import (
	"slices"
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	a := NewFingerprint()
	a.Add("ab", "c")
	b := NewFingerprint()
	b.Add("a", "bc")
	c := NewFingerprint()
	c.Add("ab", "c")

	if a.Sum() == b.Sum() {
		t.Errorf("fingerprint ignores part boundaries")
	}
	if a.Sum() != c.Sum() {
		t.Errorf("fingerprint not deterministic")
	}
	if len(a.Sum()) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a.Sum()))
	}
}

func TestChunkKeyCompare(t *testing.T) {
	keys := []ChunkKey{
		{PatternID: 7, Source: SourcePattern, Order: 1},
		{PatternID: 2, Source: SourceNotes, Order: 2},
		{PatternID: 7, Source: SourceNotes, Order: 1},
		{PatternID: 2, Source: SourceNotes, Order: 1},
		{PatternID: 1, Source: SourcePattern, Order: 3},
	}
	slices.SortFunc(keys, ChunkKey.Compare)

	want := []ChunkKey{
		{PatternID: 2, Source: SourceNotes, Order: 1},
		{PatternID: 2, Source: SourceNotes, Order: 2},
		{PatternID: 7, Source: SourceNotes, Order: 1},
		{PatternID: 1, Source: SourcePattern, Order: 3},
		{PatternID: 7, Source: SourcePattern, Order: 1},
	}
	if !slices.Equal(keys, want) {
		t.Errorf("unexpected order: %v", keys)
	}
}

func TestPredicateIsEmpty(t *testing.T) {
	hook := 4.0
	pdf := false
	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{name: "zero value", pred: Predicate{}, want: true},
		{name: "tolerance only", pred: Predicate{ToleranceMM: 1}, want: true},
		{name: "category", pred: Predicate{Category: "hat"}, want: false},
		{name: "hook size", pred: Predicate{HookMM: &hook}, want: false},
		{name: "any-of list", pred: Predicate{StitchesAny: []string{"cable"}}, want: false},
		{name: "has pdf", pred: Predicate{HasPDF: &pdf}, want: false},
		{name: "published from", pred: Predicate{PublishedFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicateTolerance(t *testing.T) {
	if got := (Predicate{}).Tolerance(); got != DefaultToleranceMM {
		t.Errorf("default tolerance = %v", got)
	}
	if got := (Predicate{ToleranceMM: 0.5}).Tolerance(); got != 0.5 {
		t.Errorf("explicit tolerance = %v", got)
	}
}
