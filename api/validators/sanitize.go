package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString cleans free text headed for an order row such as the
// customer name or kitchen notes. Invalid UTF-8 and control characters other
// than newlines are dropped, surrounding space is trimmed, and the result is
// capped at maxLen runes so it never ends in a split character.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(input, ""))
	cleaned = strings.TrimSpace(cleaned)

	if maxLen > 0 && utf8.RuneCountInString(cleaned) > maxLen {
		runes := []rune(cleaned)
		cleaned = strings.TrimSpace(string(runes[:maxLen]))
	}
	return cleaned
}
