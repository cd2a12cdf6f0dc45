package utils

import (
	"strings"
	"unicode"
)

// HasPrefixIgnoreCase checks if string has prefix case-insensitively
func HasPrefixIgnoreCase(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

// CleanValue trims surrounding whitespace and collapses inner runs of whitespace
// to a single space, so "  Ada   Lovelace " becomes "Ada Lovelace".
func CleanValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsValidValue checks if a cleaned candidate value can be offered in a dropdown.
// Rejects empty values and values carrying control characters.
func IsValidValue(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsCommentLine reports lines skipped by the plain text candidate format.
func IsCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}
