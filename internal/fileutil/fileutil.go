// Package fileutil provides filename and formatting helpers for the CLI.
package fileutil

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Filename generation constants.
const (
	// snippetMaxLen caps how much of the input text is used in a
	// generated filename.
	snippetMaxLen = 50

	timestampLayout = "20060102_150405"

	wordSeparator = "_"
)

// Data size constants.
const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// OutputFilename builds a unique default filename from the input text
// and a timestamp, e.g. "Hello_world_20250101_120000.mp3". The ext
// argument includes the leading dot.
func OutputFilename(text, ext string) string {
	base := SanitizeSnippet(text)
	if base == "" {
		base = "speech"
	}

	return base + wordSeparator + time.Now().Format(timestampLayout) + ext
}

// SanitizeSnippet reduces text to a short, filesystem-safe token:
// letters, digits, and hyphens are kept, runs of anything else collapse
// to single underscores, and the result is truncated at rune granularity.
func SanitizeSnippet(text string) string {
	var builder strings.Builder

	lastWasSep := true

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			builder.WriteRune(r)

			lastWasSep = false
		case !lastWasSep:
			builder.WriteString(wordSeparator)

			lastWasSep = true
		}
	}

	sanitized := strings.Trim(builder.String(), wordSeparator)

	runes := []rune(sanitized)
	if len(runes) > snippetMaxLen {
		sanitized = strings.Trim(string(runes[:snippetMaxLen]), wordSeparator)
	}

	return sanitized
}

// FormatFileSize formats a byte count in a human-readable string
// (e.g. "1.2 GB", "500.5 KB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf("%.1f MB", float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
