// Package slug builds URL slugs from Vietnamese display names.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-{2,}`)
)

// Make lowercases name, folds diacritics to ASCII and joins words with dashes.
// "Trà Sữa Đường Đen" becomes "tra-sua-duong-den".
func Make(name string) string {
	folded := fold(strings.ToLower(strings.TrimSpace(name)))
	folded = disallowed.ReplaceAllString(folded, "")
	folded = spaces.ReplaceAllString(strings.TrimSpace(folded), "-")
	folded = dashes.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

func fold(s string) string {
	// đ has no decomposition
	s = strings.NewReplacer("đ", "d", "Đ", "d").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Unique returns base, or base-2, base-3... for the first candidate taken reports false.
func Unique(base string, taken func(candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}
	candidate := base
	for n := 2; ; n++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
