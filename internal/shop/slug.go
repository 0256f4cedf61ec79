package shop

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases s, strips diacritics and joins the remaining ASCII
// alphanumeric runs with single hyphens: "Rose & Lily!" -> "rose-lily".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// slugFor returns the normalized explicit slug, or one derived from fallback.
func slugFor(explicit, fallback string) (string, error) {
	src := strings.TrimSpace(explicit)
	if src == "" {
		src = fallback
	}
	slug := Slugify(src)
	if slug == "" {
		return "", invalid("slug cannot be derived from %q", src)
	}
	return slug, nil
}
