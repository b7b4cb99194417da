package search

import (
	"container/heap"
	"slices"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/vectors"
)

// ScoredRow is a candidate row and its similarity to the query.
type ScoredRow struct {
	Row   core.RowID
	Score float32
}

// better reports whether a ranks ahead of b: higher score first, then
// lower row id.
func better(a, b ScoredRow) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Row < b.Row
}

// rowHeap is a min-heap on rank: the root is the worst row kept so far.
type rowHeap []ScoredRow

func (h rowHeap) Len() int           { return len(h) }
func (h rowHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h rowHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *rowHeap) Push(x any)        { *h = append(*h, x.(ScoredRow)) }
func (h *rowHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// scoreRows computes q·row for every candidate and returns the best k in
// rank order. Rows the matrix does not hold are skipped and counted.
func scoreRows(m vectors.Matrix, q []float32, rows []core.RowID, k int) (top []ScoredRow, skipped int) {
	if k <= 0 || len(rows) == 0 {
		return nil, 0
	}
	h := make(rowHeap, 0, min(k, len(rows)))
	for _, row := range rows {
		score, ok := m.Dot(row, q)
		if !ok {
			skipped++
			continue
		}
		s := ScoredRow{Row: row, Score: score}
		if len(h) < k {
			heap.Push(&h, s)
			continue
		}
		if better(s, h[0]) {
			h[0] = s
			heap.Fix(&h, 0)
		}
	}
	top = []ScoredRow(h)
	slices.SortFunc(top, compareRows)
	return top, skipped
}

func compareRows(a, b ScoredRow) int {
	switch {
	case better(a, b):
		return -1
	case better(b, a):
		return 1
	default:
		return 0
	}
}

// collapse keeps the best row of each pattern. rows must be in rank
// order. Rows without an address are skipped.
func collapse(rows []ScoredRow, keys map[core.RowID]core.ChunkKey) []core.Result {
	seen := make(map[core.PatternID]struct{}, len(rows))
	results := make([]core.Result, 0, len(rows))
	for _, r := range rows {
		key, ok := keys[r.Row]
		if !ok {
			continue
		}
		if _, dup := seen[key.PatternID]; dup {
			continue
		}
		seen[key.PatternID] = struct{}{}
		results = append(results, core.Result{
			PatternID: key.PatternID,
			Score:     r.Score,
			Row:       r.Row,
			Source:    key.Source,
			Order:     key.Order,
		})
	}
	return results
}

// rank orders results by score descending, then pattern id ascending,
// and keeps at most limit.
func rank(results []core.Result, limit int) []core.Result {
	slices.SortFunc(results, func(a, b core.Result) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		switch {
		case a.PatternID < b.PatternID:
			return -1
		case a.PatternID > b.PatternID:
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
