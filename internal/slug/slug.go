// Package slug derives URL-safe identifiers from titles and names.
package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a title has no sluggable characters.
const Fallback = "article"

// maxBase leaves room for a numeric suffix inside a 255-char column.
const maxBase = 240

// Make lowercases s, folds accents to ASCII, drops everything that is not a
// letter, digit, space or hyphen, and joins the remaining words with "-".
func Make(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r > unicode.MaxASCII:
			// non-ASCII left after folding is dropped
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}

	out := strings.Join(strings.Fields(b.String()), "-")
	if len(out) > maxBase {
		out = strings.TrimRight(out[:maxBase], "-")
	}
	return out
}

// Normalize returns the base slug for a title, never empty.
func Normalize(title string) string {
	if s := Make(title); s != "" {
		return s
	}
	return Fallback
}

// Unique returns base, or base-1, base-2, ... whichever exists reports free.
func Unique(base string, exists func(string) (bool, error)) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
