// Package chunk splits normalized text into overlapping word windows.
package chunk

import (
	"errors"
	"strings"

	"github.com/poiesic/patternsearch/core"
)

const (
	// DefaultWindowSize is the number of words per chunk.
	DefaultWindowSize = 550
	// DefaultStride is the distance in words between chunk starts.
	DefaultStride = 450
)

// ErrInvalidWindowSize is returned for a window size below one word.
var ErrInvalidWindowSize = errors.New("window size must be at least 1")

// Chunker cuts normalized text into windows of WindowSize words whose
// starts are Stride words apart. A Chunker is immutable and safe for
// concurrent use.
type Chunker struct {
	windowSize int
	stride     int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithWindowSize sets the number of words per chunk.
func WithWindowSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			return ErrInvalidWindowSize
		}
		c.windowSize = size
		return nil
	}
}

// WithStride sets the step between chunk starts. A stride of zero or less
// disables windowing: every text becomes a single chunk.
func WithStride(stride int) Option {
	return func(c *Chunker) error {
		c.stride = stride
		return nil
	}
}

// New creates a Chunker with the default 550/450 geometry.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		windowSize: DefaultWindowSize,
		stride:     DefaultStride,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WindowSize returns the configured window size.
func (c *Chunker) WindowSize() int { return c.windowSize }

// Stride returns the configured stride.
func (c *Chunker) Stride() int { return c.stride }

// Count returns how many chunks a text of n words produces.
func (c *Chunker) Count(n int) int {
	switch {
	case n <= 0:
		return 0
	case c.stride <= 0:
		return 1
	default:
		return (n + c.stride - 1) / c.stride
	}
}

// Chunk splits already-normalized text. Orders are 1-based and gapless;
// chunk k starts at word (k-1)*stride and ends at min(start+window, n).
// Text with no words yields no chunks.
func (c *Chunker) Chunk(id core.PatternID, kind core.SourceKind, normalized string) []core.Chunk {
	words := strings.Fields(normalized)
	n := len(words)
	if n == 0 {
		return nil
	}

	if c.stride <= 0 {
		return []core.Chunk{{
			ChunkKey: core.ChunkKey{PatternID: id, Source: kind, Order: 1},
			Text:     strings.Join(words, " "),
			Start:    0,
			End:      n,
		}}
	}

	chunks := make([]core.Chunk, 0, c.Count(n))
	for order := 1; ; order++ {
		start := (order - 1) * c.stride
		if start >= n {
			break
		}
		end := min(start+c.windowSize, n)
		chunks = append(chunks, core.Chunk{
			ChunkKey: core.ChunkKey{PatternID: id, Source: kind, Order: order},
			Text:     strings.Join(words[start:end], " "),
			Start:    start,
			End:      end,
		})
	}
	return chunks
}
