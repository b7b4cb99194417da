package eval

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// WriteResultsCSV writes one row per result.
func WriteResultsCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"set", "query", "k", "precision", "reciprocal_rank", "degraded", "ranked"}); err != nil {
		return err
	}
	for _, r := range results {
		ids := make([]string, len(r.Ranked))
		for i, id := range r.Ranked {
			ids[i] = strconv.FormatInt(int64(id), 10)
		}
		record := []string{
			r.Set,
			r.Query,
			strconv.Itoa(r.K),
			formatScore(r.Precision),
			formatScore(r.ReciprocalRank),
			strconv.FormatBool(r.Degraded),
			strings.Join(ids, " "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes one row per set and cutoff.
func WriteSummaryCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"set", "k", "queries", "precision", "mrr"}); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{s.Set, strconv.Itoa(s.K), strconv.Itoa(s.Queries), formatScore(s.Precision), formatScore(s.MRR)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
