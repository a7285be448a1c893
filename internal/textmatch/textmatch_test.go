package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower and trim", "  Beach Cleanup  ", "beach cleanup"},
		{"diacritics stripped", "São Paulo café", "sao paulo cafe"},
		{"punctuation to space", "food-bank, work!", "food bank work"},
		{"digits kept", "K-8 Tutoring", "k 8 tutoring"},
		{"whitespace collapsed", "a \t b\n\nc", "a b c"},
		{"empty", "", ""},
		{"only punctuation", "?!...,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Boca Raton, FL", "São Paulo", "  Mixed CASE text!  ", "", "already normal"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize should be idempotent for %q", in)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"beach", "bech", 1},
		{"cleanup", "cleanp", 1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "Distance(%q, %q)", tt.a, tt.b)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"boca raton", "boca"},
		{"", "x"},
		{"tutor", "tutor"},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]))
		assert.Zero(t, Distance(p[0], p[0]))
	}
}

func TestFuzzyContains(t *testing.T) {
	tests := []struct {
		name     string
		needle   string
		haystack string
		want     bool
	}{
		{"empty needle matches anything", "", "whatever", true},
		{"literal substring", "beach", "Beach Cleanup Crew", true},
		{"case and order tolerant", "beach cleanup", "Beach Cleanup Crew", true},
		{"one typo per token", "bech cleanp", "Beach Cleanup Crew", true},
		{"too many edits", "xyzzy", "Beach Cleanup Crew", false},
		{"every token must match", "beach tutoring", "Beach Cleanup Crew", false},
		{"diacritic insensitive", "boca ratón", "Boca Raton, FL", true},
		{"longer token more tolerance", "enviromental", "Environmental projects", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyContains(tt.needle, tt.haystack))
		})
	}
}

func TestFuzzyContainsSubstringProperty(t *testing.T) {
	// Whenever the normalized haystack literally contains the normalized
	// needle, FuzzyContains must be true.
	cases := [][2]string{
		{"food", "Food Pantry Assistant"},
		{"pantry assistant", "Food Pantry Assistant!"},
		{"k 8", "STEM Tutor (K-8)"},
	}
	for _, c := range cases {
		assert.True(t, FuzzyContains(c[0], c[1]), "needle=%q haystack=%q", c[0], c[1])
	}
}
