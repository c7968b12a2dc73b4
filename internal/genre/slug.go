// Package genre normalizes free-form genre tags attached to books so that
// per-genre counts group "Sci-Fi", "science fiction" and "SF" together.
package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)

	titleCaser = cases.Title(language.English)
)

// Slugify converts a string to a lowercase, hyphenated ASCII slug.
// "Science Fiction" -> "science-fiction".
// "Café Noir" -> "cafe-noir".
func Slugify(s string) string {
	s = norm.NFKD.String(s)

	// Drops the combining marks left over by decomposition.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DisplayName turns a slug back into a human title.
// "science-fiction" -> "Science Fiction".
func DisplayName(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}
