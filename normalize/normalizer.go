package normalize

import (
	"strings"
)

// Normalizer canonicalizes free text for embedding. The same Normalizer
// must be used for chunk text at ingestion and for queries at search time.
type Normalizer struct {
	table *Table
}

// New returns a Normalizer backed by table. A nil table selects DefaultTable.
func New(table *Table) *Normalizer {
	if table == nil {
		table = DefaultTable()
	}
	return &Normalizer{table: table}
}

// Table returns the vocabulary in use.
func (n *Normalizer) Table() *Table {
	return n.table
}

// Version returns the vocabulary version in use.
func (n *Normalizer) Version() string {
	return n.table.Version
}

// Normalize lowercases text, blanks out punctuation, rewrites domain
// abbreviations and synonyms to their canonical tokens and collapses
// whitespace. Substitution is a single left-to-right pass, so a rewritten
// token is never rewritten again.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = StripPunctuation(strings.ToLower(text))
	text = n.table.equivalences.replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// StripPunctuation replaces sentence punctuation, brackets, quotes and
// typographic dashes, quotes and bullets with spaces.
func StripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if isPunctuation(r) {
			return ' '
		}
		return r
	}, text)
}

func isPunctuation(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '(', ')', '{', '}', '[', ']', '"', '\'':
		return true
	case '‘', '’', '“', '”', '•', '·':
		return true
	}
	return r >= '‐' && r <= '―'
}
