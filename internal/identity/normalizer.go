package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes accented letters and drops the combining marks,
// so "Gaël Monfils" and "Gael Monfils" normalize to the same string.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeOptions controls optional normalization behavior.
type NormalizeOptions struct {
	// ReorderComma swaps "Last, First" to "First Last" when the input
	// contains a comma. Off by default; the ranking feed is the only
	// source that uses the comma form.
	ReorderComma bool
}

// NormalizeName canonicalizes a player name for comparison: trim, collapse
// whitespace, lowercase, fold diacritics, and strip everything that is not a
// letter, space, or hyphen. Pure function; always returns a string, possibly
// empty.
func NormalizeName(name string, opts NormalizeOptions) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	if opts.ReorderComma {
		if idx := strings.Index(s, ","); idx >= 0 {
			s = strings.TrimSpace(s[idx+1:]) + " " + strings.TrimSpace(s[:idx])
		}
	}

	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '-':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
		// anything else (punctuation, digits) is dropped
	}

	return strings.TrimSpace(b.String())
}
