package util

import (
	"strings"
	"unicode"
)

// SanitizeString trims surrounding whitespace and strips control
// characters. Engine sidecars occasionally emit stray control bytes in
// transcript text; they never belong in a sentence.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeEnvValue trims whitespace and removes one layer of matching
// surrounding quotes, the way shells would before export.
func SanitizeEnvValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}
