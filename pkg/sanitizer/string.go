package sanitizer

import (
	"regexp"
	"strings"
)

var (
	reWhitespace    = regexp.MustCompile(`\s+`)
	reEmailUnsafe   = regexp.MustCompile(`[^a-z0-9.]+`)
	reMultipleDots  = regexp.MustCompile(`\.+`)
)

func collapseWhitespace(s string) string {
	return reWhitespace.ReplaceAllString(s, " ")
}

// SanitizeName trims and collapses internal whitespace, preserving case.
func SanitizeName(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		collapseWhitespace,
	}
	return p.Apply(input)
}

// EmailLocalPart turns a member name into the local part of a synthesized
// placeholder email: lower-cased, whitespace collapsed to single dots,
// anything outside [a-z0-9.] stripped.
func EmailLocalPart(name string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToLower,
		func(s string) string { return reWhitespace.ReplaceAllString(s, ".") },
		func(s string) string { return reEmailUnsafe.ReplaceAllString(s, "") },
		func(s string) string { return reMultipleDots.ReplaceAllString(s, ".") },
		func(s string) string { return strings.Trim(s, ".") },
	}
	return p.Apply(name)
}

// SanitizeEmail lower-cases and trims; dedup by email relies on this being
// applied consistently on every write and lookup.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
