// Package mock provides test double implementations of AI service interfaces.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vec, err := embedder.EmbedText(ctx, "test")
//
//	// Lexical similarity, for retrieval tests
//	embedder := mock.NewTokenEmbedder(64)
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("model offline")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns deterministic unit vectors derived from a hash of
// the text. The token variant sums one-hot hashed tokens before
// normalizing.
package mock
