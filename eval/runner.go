package eval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/search"
)

// Searcher runs one search. *search.Searcher and the root Index satisfy it.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Result is the score of one query at one cutoff.
type Result struct {
	Set            string
	Query          string
	K              int
	Precision      float64
	ReciprocalRank float64
	Degraded       bool
	Ranked         []core.PatternID
}

// Summary averages the results of one set at one cutoff.
type Summary struct {
	Set       string
	K         int
	Queries   int
	Precision float64
	MRR       float64
}

// Runner scores query sets against a searcher.
type Runner struct {
	searcher Searcher
	cutoffs  []int
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithCutoffs sets the k values scored. Default is 5 and 10.
func WithCutoffs(ks ...int) Option {
	return func(r *Runner) error {
		if len(ks) == 0 {
			return fmt.Errorf("%w: no cutoffs", ErrInvalidCutoff)
		}
		for _, k := range ks {
			if k <= 0 {
				return fmt.Errorf("%w: %d", ErrInvalidCutoff, k)
			}
		}
		r.cutoffs = slices.Clone(ks)
		slices.Sort(r.cutoffs)
		r.cutoffs = slices.Compact(r.cutoffs)
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a Runner over s.
func NewRunner(s Searcher, opts ...Option) (*Runner, error) {
	if s == nil {
		return nil, ErrSearcherRequired
	}
	r := &Runner{
		searcher: s,
		cutoffs:  []int{5, 10},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "eval")
	return r, nil
}

// Run searches every query once, asking for the largest cutoff, and
// scores it at each cutoff. Results are grouped by set, then query, then k.
func (r *Runner) Run(ctx context.Context, sets []QuerySet) ([]Result, []Summary, error) {
	limit := r.cutoffs[len(r.cutoffs)-1]

	var results []Result
	var summaries []Summary
	for _, set := range sets {
		sums := make([]Summary, len(r.cutoffs))
		for i, k := range r.cutoffs {
			sums[i] = Summary{Set: set.Name, K: k}
		}

		for _, q := range set.Queries {
			resp, err := r.searcher.Search(ctx, search.Request{
				Query:       q.Text,
				Filter:      core.Predicate{Category: q.Category},
				ResultLimit: limit,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("query %q in set %s: %w", q.Text, set.Name, err)
			}
			if resp.Degraded {
				r.logger.Warn("degraded search during evaluation", "query", q.Text, "reason", resp.Reason)
			}

			ranked := make([]core.PatternID, len(resp.Results))
			for i, res := range resp.Results {
				ranked[i] = res.PatternID
			}
			relevant := idSet(q.Relevant)

			for i, k := range r.cutoffs {
				res := Result{
					Set:            set.Name,
					Query:          q.Text,
					K:              k,
					Precision:      PrecisionAt(k, ranked, relevant),
					ReciprocalRank: ReciprocalRankAt(k, ranked, relevant),
					Degraded:       resp.Degraded,
					Ranked:         ranked[:min(k, len(ranked))],
				}
				results = append(results, res)
				sums[i].Queries++
				sums[i].Precision += res.Precision
				sums[i].MRR += res.ReciprocalRank
			}
		}

		for i := range sums {
			if n := float64(sums[i].Queries); n > 0 {
				sums[i].Precision /= n
				sums[i].MRR /= n
			}
			r.logger.Info("evaluated query set",
				"set", set.Name, "k", sums[i].K, "precision", sums[i].Precision, "mrr", sums[i].MRR)
		}
		summaries = append(summaries, sums...)
	}
	return results, summaries, nil
}
