package m2

import (
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// decodeString returns b as a string with ill-formed UTF-8 sequences dropped.
// Model and texture names are ASCII paths in practice.
func decodeString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	t := transform.Chain(runes.ReplaceIllFormed(), runes.Remove(runes.Predicate(func(r rune) bool {
		return r == utf8.RuneError
	})))
	s, _, err := transform.Bytes(t, b)
	if err != nil {
		return ""
	}
	return string(s)
}
