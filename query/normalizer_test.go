package query

import (
	"testing"

	"github.com/poiesic/patternsearch/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	n, err := New(normalize.New(nil))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"spelling and punctuation", "Granny Sqaure blankit, worsted!", "granny square blanket worsted"},
		{"abbreviations survive correction", "dc rnd", "double_crochet round"},
		{"unknown words pass through", "zxqv blanket", "zxqv blanket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizer_WithoutSpelling(t *testing.T) {
	n, err := New(nil, WithSpellChecker(nil))
	require.NoError(t, err)
	assert.Equal(t, "granny sqaure", n.Normalize("Granny Sqaure"))
}

func TestNormalizer_MatchesCorpusNormalization(t *testing.T) {
	text := normalize.New(nil)
	n, err := New(text)
	require.NoError(t, err)

	// Correctly spelled queries normalize exactly like chunk text.
	q := "Single Crochet in the round, then sl st to join"
	assert.Equal(t, text.Normalize(q), n.Normalize(q))
}

func TestNormalizer_LeavesRealWordsAlone(t *testing.T) {
	n, err := New(normalize.New(nil))
	require.NoError(t, err)

	queries := []string{
		"dog sweater",
		"easy beginner cat",
		"summer dress",
		"headband ear warmer",
		"shark",
		"doily",
		"skein",
		"owl",
		"frog",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, q, n.Normalize(q))
		})
	}
}

func TestNormalizer_NilLogger(t *testing.T) {
	n, err := New(nil, WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, "granny square", n.Normalize("granny sqaure"))
}
