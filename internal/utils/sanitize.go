package utils

import (
	"strings"
	"unicode"
)

// SanitizeText normalises free-form user input before it is embedded in a
// generation prompt or used to derive file names: control characters are
// dropped and runs of whitespace collapse to a single space.
func SanitizeText(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	lastSpace := false
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				builder.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		builder.WriteRune(r)
		lastSpace = false
	}

	return strings.TrimSpace(builder.String())
}
