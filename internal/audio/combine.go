// Package audio reassembles independently synthesized audio fragments
// into one playable buffer or file.
//
// Compressed formats (MP3, Ogg Opus) remain valid under plain byte
// concatenation, so fragments are simply chained in order. Uncompressed
// WAV carries a 44-byte header with two global size fields, so fragments
// are spliced: the first fragment's header is kept, every other header
// is discarded, and the size fields are patched to cover the combined
// payload.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// WAV container layout constants.
const (
	// HeaderSize is the size of a standard WAV file header in bytes.
	HeaderSize = 44

	// riffSizeOffset is the byte offset of the RIFF chunk size field,
	// which holds the total container size minus 8.
	riffSizeOffset = 4

	// dataSizeOffset is the byte offset of the data subchunk size
	// field, which holds the payload size in bytes.
	dataSizeOffset = 40

	// riffSizeBias is the constant added to the payload length to
	// produce the RIFF chunk size field (header minus the 8-byte RIFF
	// preamble).
	riffSizeBias = 36
)

// ErrUnsupportedFormat is returned when an audio format is not one of
// the supported values. It is reported before any bytes are produced.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format identifies the audio container produced by the TTS service.
type Format string

// Supported audio formats.
const (
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
	FormatWAV Format = "wav"
)

// ParseFormat maps a user-facing format name ("MP3", "WAV", "OGG", any
// case) onto a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatMP3:
		return FormatMP3, nil
	case FormatOGG:
		return FormatOGG, nil
	case FormatWAV:
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// compressed reports whether fragments of this format can be chained by
// plain concatenation.
func (f Format) compressed() bool {
	return f == FormatMP3 || f == FormatOGG
}

// Combine merges ordered audio fragments into one buffer. Fragment order
// must match chunk submission order. An empty input yields an empty
// buffer and a single fragment is returned unchanged, header untouched.
func Combine(fragments [][]byte, format Format) ([]byte, error) {
	switch format {
	case FormatMP3, FormatOGG, FormatWAV:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if len(fragments) == 0 {
		return []byte{}, nil
	}

	if len(fragments) == 1 {
		return fragments[0], nil
	}

	if format.compressed() {
		return concatenate(fragments), nil
	}

	return spliceWAV(fragments), nil
}

func concatenate(fragments [][]byte) []byte {
	total := 0
	for _, fragment := range fragments {
		total += len(fragment)
	}

	out := make([]byte, 0, total)
	for _, fragment := range fragments {
		out = append(out, fragment...)
	}

	return out
}

// spliceWAV keeps the first fragment's header, appends every fragment's
// payload, and patches the two size fields. A fragment shorter than the
// header is treated as raw payload rather than rejected, so a truncated
// synthesis result degrades instead of failing the whole request.
func spliceWAV(fragments [][]byte) []byte {
	var header []byte

	payloadLen := 0

	for i, fragment := range fragments {
		body := fragment
		if len(fragment) >= HeaderSize {
			if i == 0 {
				header = fragment[:HeaderSize]
			}

			body = fragment[HeaderSize:]
		}

		payloadLen += len(body)
	}

	out := make([]byte, 0, len(header)+payloadLen)
	out = append(out, header...)

	for _, fragment := range fragments {
		body := fragment
		if len(fragment) >= HeaderSize {
			body = fragment[HeaderSize:]
		}

		out = append(out, body...)
	}

	if len(header) == HeaderSize {
		patchSizeFields(out[:HeaderSize], payloadLen)
	}

	return out
}

// patchSizeFields rewrites the RIFF and data size fields in a WAV header
// for the given payload length.
func patchSizeFields(header []byte, payloadLen int) {
	binary.LittleEndian.PutUint32(
		header[riffSizeOffset:riffSizeOffset+4],
		uint32(riffSizeBias+payloadLen),
	)
	binary.LittleEndian.PutUint32(
		header[dataSizeOffset:dataSizeOffset+4],
		uint32(payloadLen),
	)
}
