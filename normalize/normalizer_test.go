package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "abbreviations", in: "Work 2 SC, then 1 dc.", want: "work 2 single_crochet then 1 double_crochet"},
		{name: "longest match wins", in: "dc (UK) rounds", want: "single_crochet rounds"},
		{name: "multi-word term", in: "single crochet", want: "single_crochet"},
		{name: "compound abbreviation", in: "sc2tog twice", want: "decrease twice"},
		{name: "hyphenated term", in: "skip ch-sp, v-stitch", want: "skip chain_space v_stitch"},
		{name: "term across line break", in: "slip\nstitch to join", want: "slip_stitch to join"},
		{name: "typographic punctuation", in: "“Fancy” yarn — lovely • soft", want: "fancy yarn lovely soft"},
		{name: "whole words only", in: "scarf decor", want: "scarf decor"},
		{name: "whitespace collapse", in: "  a \t\n b  ", want: "a b"},
		{name: "punctuation only", in: "...!?", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(nil)
	inputs := []string{
		"Ch 3, dc in next st, *sk 2, shell in next* rep around; sl st to join.",
		"Magic ring, 6 sc. Rnd 2: inc in each st (12)",
		"Half double crochet (hdc) and treble (UK) – the HTR",
		"Tension: 18 sts = 10cm. Fasten off.",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	a := New(nil)
	b := New(DefaultTable())
	text := strings.Repeat("sc, hdc; dc (uk) ", 50)
	assert.Equal(t, a.Normalize(text), b.Normalize(text))
	assert.Equal(t, DefaultTable().Version, a.Version())
}

func TestStripPunctuation(t *testing.T) {
	assert.Equal(t, "a b c d", strings.Join(strings.Fields(StripPunctuation("a.b(c)‐d")), " "))
	assert.Equal(t, "keep-hyphen", StripPunctuation("keep-hyphen"))
}
