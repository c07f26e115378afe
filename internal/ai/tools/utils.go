package tools

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TruncateString shortens a string to the specified maximum length, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return "..."[:maxLen]
	}

	return string([]rune(s)[:maxLen-3]) + "..."
}

var (
	multipleNewlines = regexp.MustCompile(`\n{3,}`)
	horizontalSpace  = regexp.MustCompile(`[ \t\f\v]+`)
)

// CleanString normalizes whitespace and line endings in a string
func CleanString(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	// Replace sequences of 3+ newlines with just 2
	s = multipleNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
