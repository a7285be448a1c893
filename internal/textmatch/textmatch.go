// Package textmatch provides the typo-tolerant text matching used by
// opportunity search: canonical normalization, Levenshtein distance, and a
// fuzzy containment test whose tolerance scales with token length.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free text for comparison: lower-case, strip
// diacritics, replace anything outside [a-z0-9] with a space, collapse
// whitespace, trim. Total: never fails, empty in means empty out.
func Normalize(text string) string {
	text = strings.ToLower(text)

	// NFD decomposition followed by removal of combining marks, so
	// "São Paulo" and "Sao Paulo" compare equal.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if folded, _, err := transform.String(stripper, text); err == nil {
		text = folded
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Distance computes the Levenshtein edit distance between a and b, where
// insertions, deletions, and substitutions each cost 1.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Single-row DP over rb.
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, min(prev[j]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// FuzzyContains reports whether haystack contains needle, tolerating small
// typos. An empty needle always matches (no constraint). A literal substring
// match after normalization short-circuits; otherwise every needle token must
// be within edit distance max(1, len(token)/3) of some haystack token, so
// short words tolerate a single typo and longer words proportionally more.
func FuzzyContains(needle, haystack string) bool {
	n := Normalize(needle)
	h := Normalize(haystack)
	if n == "" {
		return true
	}
	if strings.Contains(h, n) {
		return true
	}

	words := strings.Fields(h)
	for _, token := range strings.Fields(n) {
		allowed := len([]rune(token)) / 3
		if allowed < 1 {
			allowed = 1
		}
		matched := false
		for _, word := range words {
			if Distance(word, token) <= allowed {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
