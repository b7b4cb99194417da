package query

import (
	"log/slog"
	"strings"

	"github.com/poiesic/patternsearch/normalize"
)

// Normalizer turns a raw user query into the normalized text that is
// embedded for search.
type Normalizer struct {
	text    *normalize.Normalizer
	speller *SpellChecker
	logger  *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithSpellChecker replaces the default spell checker. A nil checker
// disables correction.
func WithSpellChecker(s *SpellChecker) Option {
	return func(n *Normalizer) error {
		n.speller = s
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// New returns a query Normalizer over text. Unless WithSpellChecker is
// given, the spell checker is seeded with the vocabulary of text's table.
func New(text *normalize.Normalizer, opts ...Option) (*Normalizer, error) {
	if text == nil {
		text = normalize.New(nil)
	}
	speller, err := NewSpellChecker(WithDomainWords(text.Table().Vocabulary()))
	if err != nil {
		return nil, err
	}
	n := &Normalizer{
		text:    text,
		speller: speller,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	n.logger = n.logger.With("component", "query-normalizer")
	return n, nil
}

// Normalize corrects q word by word and then applies the text normalizer.
func (n *Normalizer) Normalize(q string) string {
	cleaned := strings.ToLower(normalize.StripPunctuation(q))
	if n.speller != nil {
		corrected := n.speller.CorrectText(cleaned)
		if corrected != strings.Join(strings.Fields(cleaned), " ") {
			n.logger.Debug("corrected query", "query", q, "corrected", corrected)
		}
		cleaned = corrected
	}
	return n.text.Normalize(cleaned)
}
