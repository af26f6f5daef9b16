package fileutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charles-forsyth/generate-gemini-voice/internal/fileutil"
)

func TestSanitizeSnippet(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple words",
			input:    "Hello world",
			expected: "Hello_world",
		},
		{
			name:     "punctuation collapses",
			input:    "Hello, world! How are you?",
			expected: "Hello_world_How_are_you",
		},
		{
			name:     "hyphens kept",
			input:    "state-of-the-art speech",
			expected: "state-of-the-art_speech",
		},
		{
			name:     "leading and trailing separators trimmed",
			input:    "  ...Hello...  ",
			expected: "Hello",
		},
		{
			name:     "unicode letters kept",
			input:    "Grüße aus München",
			expected: "Grüße_aus_München",
		},
		{
			name:     "only punctuation",
			input:    "!!! ??? ...",
			expected: "",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, fileutil.SanitizeSnippet(testCase.input))
		})
	}
}

func TestSanitizeSnippetTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 30)

	sanitized := fileutil.SanitizeSnippet(long)

	assert.LessOrEqual(t, len([]rune(sanitized)), 50)
	assert.False(t, strings.HasSuffix(sanitized, "_"))
}

func TestOutputFilename(t *testing.T) {
	t.Parallel()

	name := fileutil.OutputFilename("Hello world, this is a test.", ".mp3")

	require.True(t, strings.HasPrefix(name, "Hello_world_this_is_a_test_"))
	require.True(t, strings.HasSuffix(name, ".mp3"))
}

func TestOutputFilenameFallsBackOnEmptySnippet(t *testing.T) {
	t.Parallel()

	name := fileutil.OutputFilename("!!!", ".wav")

	require.True(t, strings.HasPrefix(name, "speech_"))
	require.True(t, strings.HasSuffix(name, ".wav"))
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "bytes", bytes: 512, expected: "512 B"},
		{name: "kilobytes", bytes: 2048, expected: "2.0 KB"},
		{name: "megabytes", bytes: 5 * 1024 * 1024, expected: "5.0 MB"},
		{name: "gigabytes", bytes: 3 * 1024 * 1024 * 1024, expected: "3.0 GB"},
		{name: "zero", bytes: 0, expected: "0 B"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, fileutil.FormatFileSize(testCase.bytes))
		})
	}
}
