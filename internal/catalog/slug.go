package catalog

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
	slugHyphens      = regexp.MustCompile(`-+`)
	codePattern      = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)
)

// Slugify lower-cases s, drops everything outside [a-z0-9], whitespace and
// hyphens, then joins words with single hyphens.
//
//	Slugify(" Auto  Parts! ") == "auto-parts"
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// validCode reports whether s can be used as an attribute or option code.
func validCode(s string) bool {
	return codePattern.MatchString(s)
}
