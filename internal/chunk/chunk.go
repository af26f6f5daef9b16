// Package chunk splits unbounded text into byte-bounded chunks suitable
// for submission to a remote TTS service with a per-request size limit.
//
// Splitting prefers natural linguistic boundaries, in order: sentence
// endings, clause punctuation, word breaks, and finally a hard cut at a
// rune boundary. Multi-byte runes are never split across chunks.
package chunk

import (
	"strings"
	"unicode"
)

// lookbackFraction is the share of a sliced prefix that is searched
// backward for a clause or word boundary before falling back to a hard
// cut. Tunable; the boundary preference order is the contract, not the
// exact window size.
const lookbackFraction = 0.20

// clausePunctuation marks acceptable mid-sentence cut points when a
// single sentence exceeds the byte limit.
const clausePunctuation = ",;:"

// Split divides text into ordered chunks whose UTF-8 encodings fit the
// given byte limit. Sentences are packed greedily, joined by single
// spaces, while the running chunk stays under the limit; a sentence that
// alone exceeds the limit is sliced at clause or word boundaries, or
// hard-cut at rune granularity as a last resort.
//
// Split is a pure function and never fails: empty text yields nil, text
// already below the limit is returned unchanged, and a limit smaller
// than one byte is treated as one. Only hard-cut pieces may land exactly
// on the limit; packed chunks stay strictly under it.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}

	if limit < 1 {
		limit = 1
	}

	if len(text) < limit {
		return []string{text}
	}

	var (
		chunks  []string
		current string
	)

	for _, sentence := range sentences(text) {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}

		if len(candidate) < limit {
			current = candidate

			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		if len(sentence) < limit {
			current = sentence

			continue
		}

		// The sentence alone exceeds the limit: slice it down, then
		// let the final remainder seed the next running chunk.
		pieces, rest := sliceOversized(sentence, limit)
		chunks = append(chunks, pieces...)
		current = rest
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// sentences splits text into trimmed sentence strings. A sentence ends
// after a run of '.', '!' or '?' followed by whitespace or end of text,
// or at a newline. Terminal punctuation stays with its sentence.
func sentences(text string) []string {
	var out []string

	runes := []rune(text)

	emit := func(start, end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			out = append(out, s)
		}
	}

	start := 0
	i := 0

	for i < len(runes) {
		r := runes[i]

		if r == '\n' {
			emit(start, i)

			i++
			start = i

			continue
		}

		if r != '.' && r != '!' && r != '?' {
			i++

			continue
		}

		end := i + 1
		for end < len(runes) && isTerminal(runes[end]) {
			end++
		}

		if end >= len(runes) || unicode.IsSpace(runes[end]) {
			emit(start, end)

			start = end
		}

		i = end
	}

	emit(start, len(runes))

	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// sliceOversized repeatedly cuts byte-bounded pieces off the front of a
// sentence until the remainder fits under the limit. The remainder is
// returned separately so the caller can pack further sentences onto it.
func sliceOversized(sentence string, limit int) (pieces []string, rest string) {
	runes := []rune(sentence)

	for len(string(runes)) >= limit {
		cut := maxBytePrefix(runes, limit)
		cut = preferBoundary(runes, cut)

		piece := strings.TrimSpace(string(runes[:cut]))
		if piece != "" {
			pieces = append(pieces, piece)
		}

		runes = trimLeadingSpace(runes[cut:])
	}

	return pieces, string(runes)
}

// maxBytePrefix returns the largest rune count whose UTF-8 encoding fits
// in limit bytes, found by binary search. At least one rune is always
// taken so a rune wider than the limit is never split.
func maxBytePrefix(runes []rune, limit int) int {
	low, high := 1, len(runes)

	for low < high {
		mid := (low + high + 1) / 2
		if len(string(runes[:mid])) <= limit {
			low = mid
		} else {
			high = mid - 1
		}
	}

	return low
}

// preferBoundary moves a hard cut backward onto a clause-punctuation
// mark or a space when one exists inside the trailing lookback window.
// Clause punctuation wins over a later space.
func preferBoundary(runes []rune, cut int) int {
	if cut >= len(runes) {
		return cut
	}

	window := int(float64(cut) * lookbackFraction)
	if window < 1 {
		return cut
	}

	for i := cut - 1; i >= cut-window && i > 0; i-- {
		if strings.ContainsRune(clausePunctuation, runes[i]) &&
			i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}

	for i := cut - 1; i >= cut-window && i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}

	return cut
}

func trimLeadingSpace(runes []rune) []rune {
	for len(runes) > 0 && unicode.IsSpace(runes[0]) {
		runes = runes[1:]
	}

	return runes
}
