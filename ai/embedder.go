package ai

import "context"

// Embedder maps text to vectors. The same model must embed both the
// indexed chunks and the queries searched against them.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText embeds one text, typically a normalized query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of chunk texts. The result has one vector
	// per input, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
