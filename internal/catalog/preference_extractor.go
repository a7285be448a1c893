package catalog

import (
	"regexp"
	"strings"
)

// Preference is the structured search request derived from one utterance.
// Either field may be empty; both empty means the utterance carried no
// usable constraint. Discarded after one retrieval cycle.
type Preference struct {
	Location string `json:"location,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// Empty reports whether the preference carries no constraint at all.
func (p Preference) Empty() bool {
	return p.Location == "" && p.Keywords == ""
}

// locationRE captures the words following "in" up to a boundary
// (punctuation or end of string), e.g. "beach cleanup in boca raton"
// -> "boca raton".
var locationRE = regexp.MustCompile(`in\s+([a-z\s]+)`)

// locationSpanRE matches the whole "in <words>" span for removal from the
// keyword portion.
var locationSpanRE = regexp.MustCompile(`in\s+[a-z\s]+`)

// punctRE strips punctuation left over once the location span is removed.
var punctRE = regexp.MustCompile(`[^\w\s]`)

// ExtractPreferences parses a raw utterance into a location/keywords pair.
// This is a best-effort heuristic, not a grammar: ambiguous input yields a
// looser preference that the retrieval tiers are expected to tolerate.
//
// Examples:
//   - "remote grant writing" -> {Keywords: "remote grant writing"}
//   - "beach cleanup in Boca Raton" -> {Location: "boca raton", Keywords: "beach cleanup"}
func ExtractPreferences(text string) Preference {
	lower := strings.ToLower(text)

	var location string
	if m := locationRE.FindStringSubmatch(lower); m != nil {
		location = strings.TrimSpace(m[1])
	}

	keywords := locationSpanRE.ReplaceAllString(lower, "")
	keywords = strings.TrimSpace(punctRE.ReplaceAllString(keywords, ""))

	return Preference{Location: location, Keywords: keywords}
}
