package services

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigitPattern = regexp.MustCompile(`[^0-9]`)
)

// SanitizeInput strips markup, trims whitespace, and escapes
// HTML-significant characters. Applied to every string field before it is
// stored or echoed anywhere.
func SanitizeInput(input string) string {
	return html.EscapeString(tagPattern.ReplaceAllString(strings.TrimSpace(input), ""))
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizePhone strips everything but digits and reports whether the result
// is a 10-digit number. The normalized form is what gets stored.
func NormalizePhone(s string) (string, bool) {
	digits := nonDigitPattern.ReplaceAllString(s, "")
	return digits, len(digits) == 10
}
