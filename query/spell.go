package query

import (
	"bufio"
	"bytes"
	"cmp"
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

//go:embed words.txt
var baseWords []byte

const (
	// DefaultMaxDistance is the largest edit distance accepted as a correction.
	DefaultMaxDistance = 2

	// minCorrectable is the shortest word, in runes, that is ever corrected.
	// Shorter words are abbreviations such as "sc" or ordinary words like
	// "ear" whose one-edit neighbours are also real words.
	minCorrectable = 5

	// longWord is the shortest word allowed more than a single edit.
	longWord = 8

	// confidentMargin is how many times more frequent the best candidate
	// must be than the runner-up at the same distance.
	confidentMargin = 2

	// domainFrequency ranks domain vocabulary above common English.
	domainFrequency = 1_000_000
)

// inflections are suffix rewrites that map an inflected word to a stem.
// A word whose stem is known is left alone.
var inflections = []struct{ suffix, stem string }{
	{"ies", "y"},
	{"es", ""},
	{"s", ""},
	{"ed", ""},
	{"ed", "e"},
	{"ing", ""},
	{"ing", "e"},
	{"ers", ""},
	{"er", ""},
	{"ly", ""},
}

// SpellChecker corrects single words against a frequency dictionary.
// It is safe for concurrent use once constructed.
type SpellChecker struct {
	freq        map[string]int
	byLen       map[int][]string
	maxDistance int
}

// SpellOption configures a SpellChecker.
type SpellOption func(*SpellChecker) error

// WithMaxDistance sets the largest accepted edit distance.
func WithMaxDistance(d int) SpellOption {
	return func(s *SpellChecker) error {
		if d < 0 {
			return ErrInvalidDistance
		}
		s.maxDistance = d
		return nil
	}
}

// WithDomainWords adds words that rank above every common English word.
func WithDomainWords(words []string) SpellOption {
	return func(s *SpellChecker) error {
		for _, w := range words {
			s.add(w, domainFrequency)
		}
		return nil
	}
}

// WithWordList adds "word frequency" lines read from r. Blank lines and
// lines starting with # are ignored; a missing frequency counts as 1.
func WithWordList(r io.Reader) SpellOption {
	return func(s *SpellChecker) error {
		return s.load(r)
	}
}

// NewSpellChecker returns a SpellChecker seeded with the built-in base
// vocabulary plus any words supplied through options.
func NewSpellChecker(opts ...SpellOption) (*SpellChecker, error) {
	s := &SpellChecker{
		freq:        make(map[string]int),
		byLen:       make(map[int][]string),
		maxDistance: DefaultMaxDistance,
	}
	if err := s.load(bytes.NewReader(baseWords)); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SpellChecker) load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		freq := 1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return fmt.Errorf("%w: line %d: bad frequency %q", ErrInvalidDictionary, line, fields[1])
			}
			freq = n
		}
		s.add(fields[0], freq)
	}
	return scanner.Err()
}

func (s *SpellChecker) add(word string, freq int) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	prev, ok := s.freq[word]
	if !ok {
		n := utf8.RuneCountInString(word)
		s.byLen[n] = append(s.byLen[n], word)
	}
	if freq > prev {
		s.freq[word] = freq
	}
}

// Len returns the number of dictionary words.
func (s *SpellChecker) Len() int {
	return len(s.freq)
}

// Known reports whether word is in the dictionary.
func (s *SpellChecker) Known(word string) bool {
	_, ok := s.freq[strings.ToLower(word)]
	return ok
}

// Correct returns the dictionary word word most likely stands for, or
// word unchanged when no correction is confident.
//
// Known words, inflections of known words, words shorter than five runes
// and words containing digits are never rewritten. Candidates share the
// first letter and lie within one edit, or within the configured distance
// for words of eight runes or more; an adjacent transposition counts as
// one edit. Among the candidates at the smallest distance the most
// frequent wins, but only when it is at least twice as frequent as the
// next one.
func (s *SpellChecker) Correct(word string) string {
	lower := strings.ToLower(word)
	if s.knownForm(lower) {
		return word
	}
	n := utf8.RuneCountInString(lower)
	if n < minCorrectable || strings.ContainsFunc(lower, unicode.IsDigit) {
		return word
	}

	limit := s.maxDistance
	if n < longWord {
		limit = min(limit, 1)
	}
	if limit == 0 {
		return word
	}

	first, _ := utf8.DecodeRuneInString(lower)
	var candidates []candidate
	bestDist := limit + 1
	for l := n - limit; l <= n+limit; l++ {
		for _, cand := range s.byLen[l] {
			if r, _ := utf8.DecodeRuneInString(cand); r != first {
				continue
			}
			d := distance(lower, cand)
			switch {
			case d > limit || d > bestDist:
				continue
			case d < bestDist:
				bestDist = d
				candidates = candidates[:0]
			}
			candidates = append(candidates, candidate{word: cand, freq: s.freq[cand]})
		}
	}
	if len(candidates) == 0 {
		return word
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.freq, a.freq); c != 0 {
			return c
		}
		return strings.Compare(a.word, b.word)
	})
	if len(candidates) > 1 && candidates[0].freq < confidentMargin*candidates[1].freq {
		return word
	}
	return candidates[0].word
}

type candidate struct {
	word string
	freq int
}

// knownForm reports whether word or one of its stems is in the dictionary.
func (s *SpellChecker) knownForm(word string) bool {
	if _, ok := s.freq[word]; ok {
		return true
	}
	for _, inf := range inflections {
		base, ok := strings.CutSuffix(word, inf.suffix)
		if !ok || utf8.RuneCountInString(base) < 3 {
			continue
		}
		if _, ok := s.freq[base+inf.stem]; ok {
			return true
		}
	}
	return false
}

// distance is the Levenshtein distance between a and b, except that a
// single swap of adjacent letters counts as one edit.
func distance(a, b string) int {
	if transposed(a, b) {
		return 1
	}
	return smetrics.WagnerFischer(a, b, 1, 1, 1)
}

func transposed(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	i := 0
	for i < len(ra) && ra[i] == rb[i] {
		i++
	}
	if i+1 >= len(ra) || ra[i] != rb[i+1] || ra[i+1] != rb[i] {
		return false
	}
	return string(ra[i+2:]) == string(rb[i+2:])
}

// CorrectText corrects each whitespace-separated word of text and
// rejoins them with single spaces.
func (s *SpellChecker) CorrectText(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = s.Correct(w)
	}
	return strings.Join(words, " ")
}
