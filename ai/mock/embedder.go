package mock

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"

	"github.com/poiesic/patternsearch/ai"
)

// DefaultDim is the width of vectors produced by the default behavior.
const DefaultDim = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, embeds each text with the single-text behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dim is the vector width of the default behavior.
	Dim int

	tokens    bool
	callCount atomic.Int64
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior:
// every distinct text maps to an unrelated pseudo-random unit vector.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: DefaultDim}
}

// NewTokenEmbedder creates a mock whose vectors are normalized bags of
// hashed tokens, so texts sharing words score higher against each other.
func NewTokenEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim, tokens: true}
}

// EmbedText generates a deterministic embedding.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.vector(text), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if m.EmbedTextFunc != nil {
			v, err := m.EmbedTextFunc(ctx, text)
			if err != nil {
				return nil, err
			}
			embeddings[i] = v
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = m.vector(text)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *MockEmbedder) vector(text string) []float32 {
	dim := m.Dim
	if dim <= 0 {
		dim = DefaultDim
	}
	if m.tokens {
		return tokenVector(text, dim)
	}
	return deterministicVector(text, dim)
}

// deterministicVector creates a deterministic unit vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return ai.NormalizeVector(vector)
}

func tokenVector(text string, dim int) []float32 {
	vector := make([]float32, dim)
	for _, tok := range strings.Fields(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vector[h.Sum32()%uint32(dim)]++
	}
	return ai.NormalizeVector(vector)
}
