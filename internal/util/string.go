package util

import (
	"strconv"
	"strings"
)

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// ParseCommaSeparated splits a comma separated list and drops empty entries.
func ParseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ParseIntList parses "200, 465" style lists. Entries that are not integers are skipped.
func ParseIntList(value string) []int {
	parts := ParseCommaSeparated(value)
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		if intVal, err := strconv.Atoi(part); err == nil {
			result = append(result, intVal)
		}
	}
	return result
}
