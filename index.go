// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package patternsearch serves hybrid searches over knitting and crochet
// pattern snapshots.
//
// An Index opens the live snapshot under a root directory, answers
// searches against it and can swap in a newer snapshot with Reload
// without interrupting in-flight searches.
package patternsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/ai/openai"
	"github.com/poiesic/patternsearch/core"
	"github.com/poiesic/patternsearch/ingestion"
	"github.com/poiesic/patternsearch/normalize"
	"github.com/poiesic/patternsearch/query"
	"github.com/poiesic/patternsearch/search"
	"github.com/poiesic/patternsearch/snapshot"
)

// ErrClosed is returned by operations on a closed Index.
var ErrClosed = errors.New("index closed")

// Index is a searchable view of the live snapshot under a root.
// It is safe for concurrent use.
type Index struct {
	root     string
	model    string
	embedder ai.Embedder
	text     *normalize.Normalizer
	queries  *query.Normalizer
	options  []search.Option
	logger   *slog.Logger

	mu       sync.RWMutex
	snap     *snapshot.Snapshot
	searcher *search.Searcher
	closed   bool
}

// Option configures an Index.
type Option func(*indexOptions)

type indexOptions struct {
	aiConfig      *ai.Config
	embedder      ai.Embedder
	table         *normalize.Table
	spellDistance int
	searchOptions []search.Option
	logger        *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *indexOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder uses e instead of an embedder built from the AI config.
func WithEmbedder(e ai.Embedder) Option {
	return func(o *indexOptions) {
		o.embedder = e
	}
}

// WithTable sets the vocabulary table. It must be the table the snapshot
// was built with.
func WithTable(t *normalize.Table) Option {
	return func(o *indexOptions) {
		o.table = t
	}
}

// WithSpellDistance sets the largest edit distance a query word is
// corrected across. Zero disables correction.
func WithSpellDistance(d int) Option {
	return func(o *indexOptions) {
		o.spellDistance = d
	}
}

// WithSearchOptions passes options to every searcher the Index creates.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *indexOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *indexOptions) {
		o.logger = logger
	}
}

// Open creates an Index over root and loads its live snapshot. A root
// without a committed snapshot opens empty; Search then fails with
// snapshot.ErrNoSnapshot until a build is committed and Reload is called.
func Open(ctx context.Context, root string, opts ...Option) (*Index, error) {
	options := &indexOptions{
		aiConfig:      ai.DefaultConfig(),
		spellDistance: query.DefaultMaxDistance,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	embedder := options.embedder
	if embedder == nil {
		if err := options.aiConfig.Validate(); err != nil {
			return nil, err
		}
		inner, err := openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
		if embedder, err = ai.NewCachedEmbedder(inner, options.aiConfig.CacheSize); err != nil {
			return nil, err
		}
	}

	table := options.table
	if table == nil {
		table = normalize.DefaultTable()
	}
	text := normalize.New(table)

	queryOpts := []query.Option{query.WithLogger(options.logger)}
	if options.spellDistance <= 0 {
		queryOpts = append(queryOpts, query.WithSpellChecker(nil))
	} else {
		speller, err := query.NewSpellChecker(
			query.WithMaxDistance(options.spellDistance),
			query.WithDomainWords(table.Vocabulary()),
		)
		if err != nil {
			return nil, err
		}
		queryOpts = append(queryOpts, query.WithSpellChecker(speller))
	}
	queries, err := query.New(text, queryOpts...)
	if err != nil {
		return nil, err
	}

	searchOpts := []search.Option{search.WithLogger(options.logger)}
	if options.aiConfig.QueryTimeout > 0 {
		searchOpts = append(searchOpts, search.WithTimeouts(options.aiConfig.QueryTimeout, 0))
	}
	searchOpts = append(searchOpts, options.searchOptions...)

	idx := &Index{
		root:     root,
		model:    options.aiConfig.EmbeddingModel,
		embedder: embedder,
		text:     text,
		queries:  queries,
		options:  searchOpts,
		logger:   options.logger.With("component", "index"),
	}
	if err := idx.Reload(ctx); err != nil && !errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil, err
	}
	return idx, nil
}

// Reload opens the snapshot currently live under the root and swaps it in.
// Searches already running finish on the previous snapshot, which is then
// closed. On error the previous snapshot stays in use.
func (idx *Index) Reload(ctx context.Context) error {
	snap, err := snapshot.Open(ctx, idx.root)
	if err != nil {
		return err
	}

	m := snap.Manifest
	if m.TableVersion != idx.text.Version() {
		idx.logger.Warn("snapshot was built with a different vocabulary table",
			"snapshot", m.TableVersion, "current", idx.text.Version())
	}
	if idx.model != "" && m.EmbeddingModel != "" && m.EmbeddingModel != idx.model {
		idx.logger.Warn("snapshot was built with a different embedding model",
			"snapshot", m.EmbeddingModel, "current", idx.model)
	}

	searcher, err := search.NewSearcher(idx.queries, idx.embedder, snap.Filter, snap.Addresses, snap.Matrix, idx.options...)
	if err != nil {
		snap.Close()
		return err
	}

	idx.mu.Lock()
	if idx.closed {
		idx.mu.Unlock()
		snap.Close()
		return ErrClosed
	}
	old := idx.snap
	idx.snap, idx.searcher = snap, searcher
	idx.mu.Unlock()

	idx.logger.Info("loaded snapshot", "version", m.Version, "rows", m.Rows, "patterns", m.Patterns)
	if old != nil {
		if err := old.Close(); err != nil {
			idx.logger.Error("error closing previous snapshot", "version", old.Manifest.Version, "err", err)
		}
	}
	return nil
}

// Search runs req against the live snapshot.
func (idx *Index) Search(ctx context.Context, req search.Request) (*search.Response, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.usable(); err != nil {
		return nil, err
	}
	return idx.searcher.Search(ctx, req)
}

// DescribeRow returns the chunk stored at row of the live snapshot.
func (idx *Index) DescribeRow(ctx context.Context, row core.RowID) (core.ChunkKey, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.usable() != nil {
		return core.ChunkKey{}, false
	}
	return idx.snap.Addresses.DescribeRow(ctx, row)
}

// Manifest returns the manifest of the live snapshot.
func (idx *Index) Manifest() (snapshot.Manifest, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.usable(); err != nil {
		return snapshot.Manifest{}, err
	}
	return *idx.snap.Manifest, nil
}

// NewIngestionPipeline returns a pipeline that builds snapshots under the
// same root with the Index's normalizer and embedder. Call Reload after a
// successful run to serve the new snapshot.
func (idx *Index) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithNormalizer(idx.text),
		ingestion.WithEmbeddingModel(idx.model),
		ingestion.WithLogger(idx.logger),
	}
	return ingestion.NewPipeline(idx.root, idx.embedder, append(base, opts...)...)
}

// Close releases the live snapshot. It waits for running searches.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true
	idx.searcher = nil
	if idx.snap == nil {
		return nil
	}
	err := idx.snap.Close()
	idx.snap = nil
	if err != nil {
		idx.logger.Error("error closing snapshot", "err", err)
	}
	return err
}

// usable must be called with the lock held.
func (idx *Index) usable() error {
	switch {
	case idx.closed:
		return ErrClosed
	case idx.snap == nil:
		return fmt.Errorf("%w under %s", snapshot.ErrNoSnapshot, idx.root)
	default:
		return nil
	}
}
