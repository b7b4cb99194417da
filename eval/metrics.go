package eval

import "github.com/poiesic/patternsearch/core"

// PrecisionAt returns the share of the first k ranked ids that are
// relevant. Missing ranks count as misses, so a short list is penalized.
func PrecisionAt(k int, ranked []core.PatternID, relevant map[core.PatternID]struct{}) float64 {
	if k <= 0 {
		return 0
	}
	hits := 0
	for _, id := range ranked[:min(k, len(ranked))] {
		if _, ok := relevant[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// ReciprocalRankAt returns 1/rank of the first relevant id within the
// first k, or 0 if there is none.
func ReciprocalRankAt(k int, ranked []core.PatternID, relevant map[core.PatternID]struct{}) float64 {
	for i, id := range ranked[:min(max(k, 0), len(ranked))] {
		if _, ok := relevant[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func idSet(ids []core.PatternID) map[core.PatternID]struct{} {
	set := make(map[core.PatternID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
