package auth

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// NormalizeEmail trims surrounding whitespace. Case is preserved: the
// allow-list comparison is exact.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
