package util

import (
	"fmt"
	"strings"
)

// ParseSize converts a human-readable size such as "10MB" or "512KB"
// into bytes. A bare number is taken as bytes. Anything unparseable
// falls back to defaultBytes.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var multiplier int64 = 1
	for suffix, m := range map[string]int64{
		"GB": 1024 * 1024 * 1024,
		"MB": 1024 * 1024,
		"KB": 1024,
	} {
		if strings.HasSuffix(s, suffix) {
			multiplier = m
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}

	var val int64
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return defaultBytes
	}
	return val * multiplier
}

// MaskSecret keeps the first visiblePrefix characters of s and masks
// the rest, for log output. Short values are masked entirely.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
