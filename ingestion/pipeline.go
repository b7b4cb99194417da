package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/chunk"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/normalize"
	"github.com/poiesic/patternsearch/snapshot"
	"github.com/poiesic/patternsearch/storage/badger"
	"github.com/poiesic/patternsearch/vectors"
)

const (
	// DefaultBatchSize is the number of chunks sent to the embedder at once.
	DefaultBatchSize = 32

	// DefaultKeep is the number of committed snapshots kept after a build.
	DefaultKeep = 2
)

// Pipeline builds a complete snapshot from a document stream.
// A Pipeline may run many builds, one at a time per root.
type Pipeline struct {
	root       string
	embedder   ai.Embedder
	normalizer *normalize.Normalizer
	chunker    *chunk.Chunker
	backend    string
	model      string
	batchSize  int
	keep       int
	retry      RetryPolicy
	pool       *ants.Pool
	progress   io.Writer
	version    string
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithNormalizer sets the text normalizer.
// Default is a normalizer over normalize.DefaultTable().
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) error {
		if n != nil {
			p.normalizer = n
		}
		return nil
	}
}

// WithChunker sets the chunker. Default is 550 word windows every 450 words.
func WithChunker(c *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithFilterBackend selects the structured filter store, "bleve" or "sqlite".
func WithFilterBackend(backend string) Option {
	return func(p *Pipeline) error {
		switch backend {
		case filter.BackendBleve, filter.BackendSQLite:
			p.backend = backend
			return nil
		default:
			return fmt.Errorf("%w: %q", filter.ErrUnknownBackend, backend)
		}
	}
}

// WithBatchSize sets how many chunks are embedded per call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets the number of concurrent embedding calls.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithRetryPolicy sets how failed embedding batches are retried.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.retry = policy
		return nil
	}
}

// WithKeep sets how many committed snapshots survive a build.
// Zero disables pruning.
func WithKeep(keep int) Option {
	return func(p *Pipeline) error {
		p.keep = max(keep, 0)
		return nil
	}
}

// WithEmbeddingModel records the embedding model name in the manifest.
func WithEmbeddingModel(model string) Option {
	return func(p *Pipeline) error {
		p.model = model
		return nil
	}
}

// WithProgress writes embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithSnapshotVersion names the snapshot of the next build instead of
// using a timestamp.
func WithSnapshotVersion(version string) Option {
	return func(p *Pipeline) error {
		p.version = version
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline building snapshots under root.
func NewPipeline(root string, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	chunker, err := chunk.New()
	if err != nil {
		return nil, err
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		root:       root,
		embedder:   embedder,
		normalizer: normalize.New(normalize.DefaultTable()),
		chunker:    chunker,
		backend:    filter.BackendBleve,
		batchSize:  DefaultBatchSize,
		keep:       DefaultKeep,
		retry:      DefaultRetryPolicy,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Run builds a snapshot from docs and makes it current. On error the
// partial snapshot is removed and the previous one stays live.
func (p *Pipeline) Run(ctx context.Context, docs iter.Seq2[*core.Document, error]) (_ *Report, err error) {
	started := time.Now()

	var builderOpts []snapshot.BuilderOption
	if p.version != "" {
		builderOpts = append(builderOpts, snapshot.WithVersion(p.version))
	}
	builder, err := snapshot.NewBuilder(p.root, builderOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if abortErr := builder.Abort(); abortErr != nil {
				p.logger.Error("failed to abort snapshot build", "version", builder.Version(), "err", abortErr)
			}
		}
	}()

	version := builder.Version()
	layout := builder.Layout()
	report := &Report{Version: version}

	corpus, err := p.prepare(ctx, docs, report)
	if err != nil {
		return nil, err
	}
	p.logger.Info("prepared corpus",
		"version", version, "documents", len(corpus.docs), "chunks", len(corpus.chunks),
		"skippedMalformed", report.SkippedMalformed, "skippedEmpty", report.SkippedEmpty)

	embeddings, err := p.embed(ctx, corpus.chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}

	filterPath, err := layout.FilterPath(version, p.backend)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return vectors.Write(layout.VectorsPath(version), embeddings)
	})
	g.Go(func() error {
		return writeAddresses(gctx, layout.AddressPath(version), corpus.rows())
	})
	g.Go(func() error {
		return writeFilter(gctx, p.backend, filterPath, corpus.docs)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to write snapshot %s: %w", version, err)
	}

	fingerprint := corpus.fingerprint(
		p.model,
		p.normalizer.Version(),
		strconv.Itoa(p.chunker.WindowSize()),
		strconv.Itoa(p.chunker.Stride()),
	)
	manifest := &snapshot.Manifest{
		EmbeddingModel: p.model,
		Dim:            dim,
		Rows:           len(corpus.chunks),
		Patterns:       len(corpus.docs),
		WindowSize:     p.chunker.WindowSize(),
		Stride:         p.chunker.Stride(),
		TableVersion:   p.normalizer.Version(),
		FilterBackend:  p.backend,
		Fingerprint:    fingerprint,
	}
	if err := builder.Commit(manifest); err != nil {
		return nil, err
	}

	// The new snapshot is live; pruning failures only cost disk space.
	pruned, pruneErr := layout.Prune(p.keep)
	if pruneErr != nil {
		p.logger.Warn("failed to prune old snapshots", "err", pruneErr)
	}

	report.Indexed = len(corpus.docs)
	report.Chunks = len(corpus.chunks)
	report.Dim = dim
	report.Fingerprint = fingerprint
	report.Pruned = pruned
	report.Duration = time.Since(started)

	p.logger.Info("snapshot build complete",
		"version", version, "indexed", report.Indexed, "chunks", report.Chunks,
		"pruned", len(pruned), "duration", report.Duration)
	return report, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func writeAddresses(ctx context.Context, path string, rows []core.RowMeta) (err error) {
	index, err := badger.OpenAddressIndex(path, false)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, index.Close())
	}()
	return index.WriteRows(ctx, rows)
}

func writeFilter(ctx context.Context, backend, path string, docs []core.Document) (err error) {
	store, err := snapshot.CreateFilter(backend, path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	if len(docs) == 0 {
		return nil
	}
	return store.Put(ctx, docs)
}
