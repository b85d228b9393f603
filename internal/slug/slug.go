// Package slug derives URL-safe identifiers from restaurant names.
//
// Slugs back the human-readable routing surface (/r/{slug}/menu); legacy
// id-based paths resolve the restaurant and redirect to the slug form.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and drops combining marks, so
// "Café Zoë" folds to "Cafe Zoe" before slugging.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Make derives the slug for a restaurant name: accent-folded, lowercased,
// runs of non-alphanumerics collapsed to single dashes. Make is
// deterministic and idempotent; an empty or fully symbolic name yields "".
func Make(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}
