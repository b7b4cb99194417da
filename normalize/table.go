package normalize

import (
	_ "embed"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

//go:embed default_table.yaml
var defaultTableYAML []byte

// Table is the versioned domain vocabulary. Every section maps a canonical
// value to the terms that denote it. A loaded Table is immutable and safe
// for concurrent use.
type Table struct {
	Version      string              `yaml:"version"`
	Equivalences map[string][]string `yaml:"equivalences"`
	Weights      map[string][]string `yaml:"weights"`
	Stitches     map[string][]string `yaml:"stitches"`
	Techniques   map[string][]string `yaml:"techniques"`
	Hooks        map[string]float64  `yaml:"hooks"`

	equivalences *termMatcher
	weights      *termMatcher
	stitches     *termMatcher
	techniques   *termMatcher
	hooks        map[string]float64
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return parseTable(defaultTableYAML)
})

// DefaultTable returns the vocabulary compiled into the binary.
func DefaultTable() *Table {
	t, err := defaultTable()
	if err != nil {
		panic(fmt.Sprintf("normalize: embedded table is invalid: %v", err))
	}
	return t
}

// LoadTable reads a YAML vocabulary from r.
func LoadTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseTable(data)
}

// LoadTableFile reads a YAML vocabulary from path.
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTable(data)
}

func parseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) compile() error {
	if _, err := semver.NewVersion(t.Version); err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrInvalidTable, t.Version, err)
	}
	if len(t.Equivalences) == 0 {
		return fmt.Errorf("%w: no equivalences", ErrInvalidTable)
	}

	var err error
	if t.equivalences, err = newTermMatcher("equivalences", t.Equivalences); err != nil {
		return err
	}
	if t.stitches, err = newTermMatcher("stitches", t.Stitches); err != nil {
		return err
	}
	if t.techniques, err = newTermMatcher("techniques", t.Techniques); err != nil {
		return err
	}

	weights := make(map[string][]string, len(t.Weights))
	for canonical, aliases := range t.Weights {
		weights[canonical] = append([]string{canonical}, aliases...)
	}
	if t.weights, err = newTermMatcher("weights", weights); err != nil {
		return err
	}

	t.hooks = make(map[string]float64, len(t.Hooks))
	for label, mm := range t.Hooks {
		if mm <= 0 {
			return fmt.Errorf("%w: hook %q has non-positive size", ErrInvalidTable, label)
		}
		t.hooks[strings.ToUpper(strings.TrimSpace(label))] = mm
	}
	return nil
}

// WeightClass maps a raw yarn weight description onto its canonical class.
// An exact alias wins; otherwise the leftmost alias occurring as whole
// words, so "Worsted (10 ply)" is worsted.
func (t *Table) WeightClass(raw string) (string, bool) {
	cleaned := cleanTerm(raw)
	if c, ok := t.weights.canonical[cleaned]; ok {
		return c, true
	}
	if t.weights.re == nil {
		return "", false
	}
	if m := t.weights.re.FindString(cleaned); m != "" {
		return t.weights.lookup(m), true
	}
	return "", false
}

// HookMM returns the millimetre size for a US hook label such as "H-8".
func (t *Table) HookMM(label string) (float64, bool) {
	mm, ok := t.hooks[strings.ToUpper(strings.TrimSpace(label))]
	return mm, ok
}

// StitchTags returns the sorted stitch tags whose keywords occur in text.
func (t *Table) StitchTags(text string) []string {
	return t.stitches.tags(cleanTerm(text))
}

// TechniqueTags returns the sorted technique tags whose keywords occur in text.
func (t *Table) TechniqueTags(text string) []string {
	return t.techniques.tags(cleanTerm(text))
}

// Vocabulary returns every distinct word appearing in any term or
// canonical value, split on whitespace and underscores.
func (t *Table) Vocabulary() []string {
	seen := make(map[string]struct{})
	add := func(s string) {
		for _, w := range strings.FieldsFunc(cleanTerm(s), func(r rune) bool {
			return r == ' ' || r == '_'
		}) {
			seen[w] = struct{}{}
		}
	}
	for _, section := range []map[string][]string{t.Equivalences, t.Weights, t.Stitches, t.Techniques} {
		for canonical, terms := range section {
			add(canonical)
			for _, term := range terms {
				add(term)
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// termMatcher finds whole-word, non-overlapping occurrences of a set of
// terms in one pass, preferring the longest term at each position.
type termMatcher struct {
	re        *regexp.Regexp
	canonical map[string]string
}

func newTermMatcher(section string, entries map[string][]string) (*termMatcher, error) {
	m := &termMatcher{canonical: make(map[string]string)}
	for _, canonical := range slices.Sorted(maps.Keys(entries)) {
		for _, raw := range entries[canonical] {
			term := cleanTerm(raw)
			if term == "" {
				continue
			}
			if prev, dup := m.canonical[term]; dup && prev != canonical {
				return nil, fmt.Errorf("%w: %s term %q maps to both %q and %q",
					ErrConflictingTerm, section, term, prev, canonical)
			}
			m.canonical[term] = canonical
		}
	}
	if len(m.canonical) == 0 {
		return m, nil
	}

	terms := slices.Collect(maps.Keys(m.canonical))
	slices.SortFunc(terms, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	alts := make([]string, len(terms))
	for i, term := range terms {
		words := strings.Fields(term)
		for j := range words {
			words[j] = regexp.QuoteMeta(words[j])
		}
		alts[i] = strings.Join(words, `\s+`)
	}
	re, err := regexp.Compile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTable, section, err)
	}
	m.re = re
	return m, nil
}

func (m *termMatcher) lookup(match string) string {
	return m.canonical[strings.Join(strings.Fields(match), " ")]
}

func (m *termMatcher) replace(text string) string {
	if m.re == nil {
		return text
	}
	return m.re.ReplaceAllStringFunc(text, m.lookup)
}

func (m *termMatcher) tags(text string) []string {
	if m.re == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, match := range m.re.FindAllString(text, -1) {
		seen[m.lookup(match)] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(seen))
}

// cleanTerm lowercases, strips punctuation and collapses whitespace.
func cleanTerm(s string) string {
	return strings.Join(strings.Fields(StripPunctuation(strings.ToLower(s))), " ")
}
