// Package normalize canonicalizes player-supplied text: spelled answers,
// usernames and search terms.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

// Answer reduces a spelled answer to the letters that matter for grading.
// Voice transcripts arrive as "C A T", "c-a-t" or "cat."; all become "cat".
// Compatibility forms are folded first (NFKC) so full-width or ligature input
// grades the same as plain ASCII.
func Answer(raw string) string {
	s := fold(norm.NFKC.String(raw))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

// Matches reports whether a submitted answer spells the target word.
// An empty answer never matches.
func Matches(answer, word string) bool {
	a := Answer(answer)
	return a != "" && a == Answer(word)
}

// Username trims surrounding whitespace and applies NFC so visually identical
// names compare equal.
func Username(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// UsernameKey is the case-insensitive uniqueness key for a username.
func UsernameKey(raw string) string {
	return fold(Username(raw))
}

// SearchTerm canonicalizes a leaderboard search string the same way UsernameKey
// does, so substring matching agrees with uniqueness.
func SearchTerm(raw string) string {
	return fold(norm.NFC.String(strings.TrimSpace(raw)))
}
