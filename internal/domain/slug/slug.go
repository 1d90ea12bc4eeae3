// Package slug turns free text into URL- and key-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLen bounds slugs when the caller passes maxLen <= 0.
const DefaultMaxLen = 64

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Make lower-cases s, strips diacritics, collapses everything outside
// [a-z0-9] to single hyphens and trims to maxLen. Falls back to "item".
func Make(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = reNonAlnum.ReplaceAllString(b.String(), "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	if s == "" {
		return "item"
	}
	return s
}

// Valid reports whether s is already in slug form.
func Valid(s string) bool {
	return s != "" && s == Make(s, len(s))
}
