package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/patternsearch/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxRequestBatch bounds the texts sent in one HTTP request; langchaingo
// splits larger batches.
const maxRequestBatch = 64

// Embedder embeds text through an OpenAI-compatible embeddings endpoint.
type Embedder struct {
	client embeddings.Embedder
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder validates cfg and connects an embedder to its host.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.EmbeddingHost),
		openai.WithToken(cfg.APIToken),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client for %s: %w", cfg.EmbeddingHost, err)
	}

	client, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(maxRequestBatch),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		client: client,
		model:  cfg.EmbeddingModel,
		logger: slog.Default().With("component", "openai-embedder", "model", cfg.EmbeddingModel),
	}, nil
}

// EmbedText embeds a single query.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds texts and checks that every one got a vector.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	started := time.Now()
	vecs, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("model %s failed to embed %d texts: %w", e.model, len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("model %s returned %d embeddings for %d texts", e.model, len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("model %s returned an empty embedding for text %d", e.model, i)
		}
	}

	e.logger.Debug("embedded texts", "count", len(texts), "dim", len(vecs[0]), "elapsed", time.Since(started))
	return vecs, nil
}
