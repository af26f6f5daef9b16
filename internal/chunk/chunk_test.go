package chunk_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charles-forsyth/generate-gemini-voice/internal/chunk"
)

func TestSplitSmallInputUnchanged(t *testing.T) {
	t.Parallel()

	text := "This is a short text."

	chunks := chunk.Split(text, 100)

	require.Equal(t, []string{text}, chunks)
}

func TestSplitEmptyInput(t *testing.T) {
	t.Parallel()

	chunks := chunk.Split("", 100)

	require.Nil(t, chunks)
}

func TestSplitPacksSentences(t *testing.T) {
	t.Parallel()

	text := "Sentence one. Sentence two. Sentence three."

	chunks := chunk.Split(text, 30)

	require.Equal(t, []string{
		"Sentence one. Sentence two.",
		"Sentence three.",
	}, chunks)
}

func TestSplitHardCutsUnbrokenRun(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("A", 50)

	chunks := chunk.Split(text, 20)

	require.Equal(t, []string{
		strings.Repeat("A", 20),
		strings.Repeat("A", 20),
		strings.Repeat("A", 10),
	}, chunks)
}

func TestSplitNeverBreaksRunes(t *testing.T) {
	t.Parallel()

	// Each emoji is four bytes, so only two fit under a ten byte limit.
	chunks := chunk.Split("🙂🙂🙂", 10)

	require.Equal(t, []string{"🙂🙂", "🙂"}, chunks)

	for _, c := range chunks {
		assert.True(t, strings.ContainsRune(c, '🙂'))
	}
}

func TestSplitPrefersClauseBoundary(t *testing.T) {
	t.Parallel()

	head := strings.Repeat("a", 45)
	tail := strings.Repeat("b", 30)
	text := head + ", " + tail

	chunks := chunk.Split(text, 50)

	require.Equal(t, []string{head + ",", tail}, chunks)
}

func TestSplitPrefersWordBoundary(t *testing.T) {
	t.Parallel()

	head := strings.Repeat("a", 45)
	tail := strings.Repeat("b", 30)
	text := head + " " + tail

	chunks := chunk.Split(text, 50)

	require.Equal(t, []string{head, tail}, chunks)
}

func TestSplitClampsTinyLimit(t *testing.T) {
	t.Parallel()

	chunks := chunk.Split("abc", 0)

	require.Equal(t, []string{"a", "b", "c"}, chunks)
}

func TestSplitRespectsByteLimit(t *testing.T) {
	t.Parallel()

	text := strings.Repeat(
		"The quick brown fox, being in no particular hurry, "+
			"jumped over the lazy dog! Was anyone watching? Nobody was. ",
		40,
	)

	const limit = 80

	chunks := chunk.Split(text, limit)

	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), limit, "chunk %d exceeds byte limit", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplitPreservesContent(t *testing.T) {
	t.Parallel()

	text := strings.Repeat(
		"Alpha beta gamma delta; epsilon zeta eta. Theta iota kappa? "+
			"Lambda mu nu xi omicron pi rho!\n",
		25,
	)

	chunks := chunk.Split(text, 120)

	require.NotEmpty(t, chunks)

	stripSpace := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}

			return r
		}, s)
	}

	assert.Equal(t, stripSpace(text), stripSpace(strings.Join(chunks, "")))
}

func TestSplitSentenceOrderIsStable(t *testing.T) {
	t.Parallel()

	text := "First sentence here. Second sentence here. Third sentence here. " +
		"Fourth sentence here."

	chunks := chunk.Split(text, 45)

	joined := strings.Join(chunks, " ")

	first := strings.Index(joined, "First")
	second := strings.Index(joined, "Second")
	third := strings.Index(joined, "Third")
	fourth := strings.Index(joined, "Fourth")

	require.True(t, first < second && second < third && third < fourth)
}
