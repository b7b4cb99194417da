package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpellChecker_Correct(t *testing.T) {
	s, err := NewSpellChecker(WithDomainWords([]string{"worsted", "crochet"}))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"known word unchanged", "blanket", "blanket"},
		{"transposition", "sqaure", "square"},
		{"missing letter", "sweter", "sweater"},
		{"ambiguous missing letter", "blankt", "blankt"},
		{"domain word", "wosted", "worsted"},
		{"extra letter", "crochett", "crochet"},
		{"substitution", "shawk", "shawl"},
		{"too short", "sc", "sc"},
		{"contains digit", "4mm", "4mm"},
		{"no candidate", "qzvxjw", "qzvxjw"},
		{"different first letter", "hrochet", "hrochet"},
		{"inflection of known word", "doilies", "doilies"},
		{"known keeps case", "Wool", "Wool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Correct(tt.in))
		})
	}
}

func TestSpellChecker_TieBreaks(t *testing.T) {
	t.Run("clearly more frequent wins", func(t *testing.T) {
		s, err := NewSpellChecker(WithWordList(strings.NewReader("qqxaz 5\nqqxbz 20\n")))
		require.NoError(t, err)
		assert.Equal(t, "qqxbz", s.Correct("qqxcz"))
	})

	t.Run("close frequencies leave word alone", func(t *testing.T) {
		s, err := NewSpellChecker(WithWordList(strings.NewReader("qqxaz 7\nqqxbz 10\n")))
		require.NoError(t, err)
		assert.Equal(t, "qqxcz", s.Correct("qqxcz"))
	})

	t.Run("smaller distance beats frequency", func(t *testing.T) {
		s, err := NewSpellChecker(WithWordList(strings.NewReader("zzqqxaab 1\nzzqqyyab 1000\n")))
		require.NoError(t, err)
		assert.Equal(t, "zzqqxaab", s.Correct("zzqqxcab"))
	})

	t.Run("transposition is one edit", func(t *testing.T) {
		s, err := NewSpellChecker(WithWordList(strings.NewReader("qzvxw 1\n")))
		require.NoError(t, err)
		assert.Equal(t, "qzvxw", s.Correct("qzxvw"))
	})
}

func TestSpellChecker_MinimumLength(t *testing.T) {
	s, err := NewSpellChecker(WithWordList(strings.NewReader("qzzq 1\nqzzqq 1\n")))
	require.NoError(t, err)
	assert.Equal(t, "qzzx", s.Correct("qzzx"))
	assert.Equal(t, "qzzqq", s.Correct("qzzqx"))
}

func TestSpellChecker_LongWordsAllowTwoEdits(t *testing.T) {
	s, err := NewSpellChecker(WithWordList(strings.NewReader("qzvxqzvx 1\nqzvxq 1\n")))
	require.NoError(t, err)
	assert.Equal(t, "qzvxqzvx", s.Correct("qzvxqzzz"))
	assert.Equal(t, "qzvxzz", s.Correct("qzvxzz"))
}

func TestSpellChecker_CorrectWordsUnchanged(t *testing.T) {
	s, err := NewSpellChecker()
	require.NoError(t, err)

	words := []string{
		"frog", "skein", "dog", "cat", "summer", "ear", "shark", "doily", "owl",
		"warmer", "crescent", "market", "reversible", "headband", "dress",
	}
	for _, w := range words {
		t.Run(w, func(t *testing.T) {
			assert.True(t, s.Known(w))
			assert.Equal(t, w, s.Correct(w))
		})
	}
}

func TestSpellChecker_MaxDistance(t *testing.T) {
	s, err := NewSpellChecker(WithMaxDistance(0))
	require.NoError(t, err)
	assert.Equal(t, "blankt", s.Correct("blankt"))

	_, err = NewSpellChecker(WithMaxDistance(-1))
	assert.ErrorIs(t, err, ErrInvalidDistance)
}

func TestSpellChecker_WordList(t *testing.T) {
	s, err := NewSpellChecker(WithWordList(strings.NewReader("# comment\n\nFrogging\nripple 3\n")))
	require.NoError(t, err)
	assert.True(t, s.Known("frogging"))
	assert.True(t, s.Known("Ripple"))

	_, err = NewSpellChecker(WithWordList(strings.NewReader("ripple lots\n")))
	assert.ErrorIs(t, err, ErrInvalidDictionary)
}

func TestSpellChecker_CorrectText(t *testing.T) {
	s, err := NewSpellChecker()
	require.NoError(t, err)
	assert.Equal(t, "easy granny square", s.CorrectText("  easy  granny sqaure "))
	assert.Equal(t, "", s.CorrectText(""))
}
