// Package textutil provides the default pure string collaborators used
// when the host supplies none: slugify and the image id hash.
package textutil

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts s to a lowercase, hyphen separated, URL-safe slug.
// Accents are folded ("Crème" -> "creme") and camel case is split
// ("fooBar" -> "foo-bar"). Slashes are kept so nested paths survive.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	parts := strings.Split(folded, "/")
	out := parts[:0]
	for _, part := range parts {
		if slug := slugSegment(part); slug != "" {
			out = append(out, slug)
		}
	}
	return strings.Join(out, "/")
}

func slugSegment(s string) string {
	kebab := strcase.ToKebab(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(kebab))
	dash := false
	for _, r := range kebab {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLower(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// HashURL returns a stable id for a URL (UUIDv5 in the URL namespace).
func HashURL(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}
