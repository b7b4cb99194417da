package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/storage"
	"github.com/poiesic/patternsearch/vectors"
)

// Defaults for request limits and stage timeouts.
const (
	DefaultCandidateDocLimit = 400
	DefaultCandidateRowLimit = 200
	DefaultResultLimit       = 10
	DefaultEmbedTimeout      = 5 * time.Second
	DefaultFilterTimeout     = 2 * time.Second
)

// QueryNormalizer prepares raw query text for embedding.
type QueryNormalizer interface {
	Normalize(q string) string
}

// Request is a single search. Zero limits select the searcher defaults.
// Unfiltered scores every row of the matrix instead of the rows of the
// patterns matching Filter, which must then be empty.
type Request struct {
	Query             string
	Filter            core.Predicate
	Unfiltered        bool
	CandidateDocLimit int
	CandidateRowLimit int
	ResultLimit       int
}

// Timing records how long each stage took.
type Timing struct {
	Embed  time.Duration
	Filter time.Duration
	Expand time.Duration
	Score  time.Duration
	Total  time.Duration
}

// Response is the outcome of a search. Degraded is set when the filter
// stage failed and the empty result reflects an outage, not a miss.
type Response struct {
	Results         []core.Result
	NormalizedQuery string
	Degraded        bool
	Reason          string
	Timing          Timing
}

// Searcher runs hybrid searches over a read-only snapshot.
// It holds no mutable state and is safe for concurrent use.
type Searcher struct {
	queries       QueryNormalizer
	embedder      ai.Embedder
	filter        filter.Index
	addresses     storage.AddressIndex
	matrix        vectors.Matrix
	embedTimeout  time.Duration
	filterTimeout time.Duration
	docLimit      int
	rowLimit      int
	resultLimit   int
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTimeouts bounds the embedding and filter calls. Zero leaves a
// timeout unchanged.
func WithTimeouts(embedTimeout, filterTimeout time.Duration) Option {
	return func(s *Searcher) error {
		if embedTimeout < 0 || filterTimeout < 0 {
			return fmt.Errorf("timeouts must not be negative")
		}
		if embedTimeout > 0 {
			s.embedTimeout = embedTimeout
		}
		if filterTimeout > 0 {
			s.filterTimeout = filterTimeout
		}
		return nil
	}
}

// WithDefaultLimits sets the limits used when a Request leaves them zero.
func WithDefaultLimits(docs, rows, results int) Option {
	return func(s *Searcher) error {
		if docs <= 0 || rows <= 0 || results <= 0 {
			return fmt.Errorf("limits must be positive")
		}
		s.docLimit, s.rowLimit, s.resultLimit = docs, rows, results
		return nil
	}
}

// NewSearcher creates a new searcher over the given stores.
func NewSearcher(
	queries QueryNormalizer,
	embedder ai.Embedder,
	filterIndex filter.Index,
	addresses storage.AddressIndex,
	matrix vectors.Matrix,
	opts ...Option,
) (*Searcher, error) {
	if queries == nil {
		return nil, ErrQueryNormalizerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if filterIndex == nil {
		return nil, ErrFilterIndexRequired
	}
	if addresses == nil {
		return nil, ErrAddressIndexRequired
	}
	if matrix == nil {
		return nil, ErrMatrixRequired
	}

	s := &Searcher{
		queries:       queries,
		embedder:      embedder,
		filter:        filterIndex,
		addresses:     addresses,
		matrix:        matrix,
		embedTimeout:  DefaultEmbedTimeout,
		filterTimeout: DefaultFilterTimeout,
		docLimit:      DefaultCandidateDocLimit,
		rowLimit:      DefaultCandidateRowLimit,
		resultLimit:   DefaultResultLimit,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search runs req and returns ranked patterns.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs req, reporting each stage to monitor.
// Cancellation of ctx is observed between stages.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Response, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	req = s.withDefaults(req)
	monitor.Start(req)
	if req.Unfiltered && !req.Filter.IsEmpty() {
		return nil, ErrUnfilteredPredicate
	}

	began := time.Now()
	resp := &Response{Results: []core.Result{}}
	defer func() { resp.Timing.Total = time.Since(began) }()

	// 1. Normalize and embed the query
	resp.NormalizedQuery = s.queries.Normalize(req.Query)
	monitor.AfterQueryNormalization(resp.NormalizedQuery)
	if resp.NormalizedQuery == "" {
		return nil, ErrEmptyQuery
	}
	stage := time.Now()
	q, err := s.embed(ctx, resp.NormalizedQuery)
	resp.Timing.Embed = time.Since(stage)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Resolve the predicate to candidate patterns and their rows
	var (
		ids  []core.PatternID
		rows []core.RowID
	)
	if req.Unfiltered {
		rows = allRows(s.matrix.Rows())
		monitor.AfterRowExpansion(rows)
	} else {
		stage = time.Now()
		ids, err = s.candidates(ctx, req)
		resp.Timing.Filter = time.Since(stage)
		if err != nil {
			if errors.Is(err, core.ErrInvalidPredicate) || ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("filter unavailable, returning degraded result", "err", err)
			monitor.FilterDegraded(err)
			resp.Degraded = true
			resp.Reason = err.Error()
			monitor.Finish(resp.Results)
			return resp, nil
		}
		monitor.AfterFilter(ids)
		if len(ids) == 0 {
			monitor.Finish(resp.Results)
			return resp, nil
		}

		// 3. Expand patterns to chunk rows
		stage = time.Now()
		rows, err = s.addresses.ResolveRowsForDocuments(ctx, ids)
		resp.Timing.Expand = time.Since(stage)
		if err != nil {
			s.logger.Error("error resolving rows", "patterns", len(ids), "err", err)
			return nil, err
		}
		monitor.AfterRowExpansion(rows)
	}
	if len(rows) == 0 {
		monitor.Finish(resp.Results)
		return resp, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Score rows and keep the best
	if len(q) != s.matrix.Dim() {
		return nil, fmt.Errorf("%w: query has %d, matrix has %d", ErrDimensionMismatch, len(q), s.matrix.Dim())
	}
	stage = time.Now()
	top, skipped := scoreRows(s.matrix, q, rows, req.CandidateRowLimit)
	if skipped > 0 {
		s.logger.Warn("skipping rows missing from embedding matrix", "rows", skipped)
	}
	monitor.AfterScoring(top)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Collapse to one row per pattern
	selected := make([]core.RowID, len(top))
	for i, r := range top {
		selected[i] = r.Row
	}
	keys, err := s.addresses.DescribeRows(ctx, selected)
	if err != nil {
		s.logger.Error("error describing rows", "rows", len(selected), "err", err)
		return nil, err
	}
	results := collapse(top, keys)
	resp.Timing.Score = time.Since(stage)

	// 6. Rank and cut
	resp.Results = rank(results, req.ResultLimit)
	monitor.Finish(resp.Results)

	s.logger.Debug("search complete",
		"query", resp.NormalizedQuery,
		"unfiltered", req.Unfiltered,
		"patterns", len(ids),
		"rows", len(rows),
		"results", len(resp.Results))
	return resp, nil
}

func (s *Searcher) withDefaults(req Request) Request {
	if req.CandidateDocLimit <= 0 {
		req.CandidateDocLimit = s.docLimit
	}
	if req.CandidateRowLimit <= 0 {
		req.CandidateRowLimit = s.rowLimit
	}
	if req.ResultLimit <= 0 {
		req.ResultLimit = s.resultLimit
	}
	return req
}

func (s *Searcher) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	v, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", text, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrEmbeddingUnavailable)
	}
	return ai.NormalizeVector(v), nil
}

func (s *Searcher) candidates(ctx context.Context, req Request) ([]core.PatternID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.filterTimeout)
	defer cancel()

	return s.filter.Filter(ctx, req.Filter, req.CandidateDocLimit)
}

func allRows(n int) []core.RowID {
	rows := make([]core.RowID, n)
	for i := range rows {
		rows[i] = core.RowID(i)
	}
	return rows
}
