package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrWriterFinalized is returned when a StreamWriter is used after
// Finalize has completed.
var ErrWriterFinalized = errors.New("stream writer already finalized")

// streamState tracks the writer's position in its lifecycle: waiting for
// the first fragment, streaming subsequent fragments, or finalized.
type streamState int

const (
	stateAwaitingFirst streamState = iota
	stateStreaming
	stateFinalized
)

// StreamWriter reassembles audio fragments incrementally, writing each
// one to a sink as it arrives instead of buffering the whole output.
//
// For WAV output the sink must be seekable: the header's size fields are
// backpatched during Finalize once the total payload length is known.
// Fragments must be written in chunk submission order; the caller is
// responsible for reordering concurrent synthesis completions.
type StreamWriter struct {
	sink       io.WriteSeeker
	format     Format
	state      streamState
	payloadLen int
	hasHeader  bool
}

// NewStreamWriter creates a writer for the given format. An unsupported
// format is rejected here, before any bytes are written.
func NewStreamWriter(sink io.WriteSeeker, format Format) (*StreamWriter, error) {
	switch format {
	case FormatMP3, FormatOGG, FormatWAV:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return &StreamWriter{
		sink:       sink,
		format:     format,
		state:      stateAwaitingFirst,
		payloadLen: 0,
		hasHeader:  false,
	}, nil
}

// WriteFragment appends one synthesized fragment to the sink. The first
// WAV fragment is written whole, capturing its header in place; later
// WAV fragments have their headers stripped. Compressed fragments are
// always written verbatim. A WAV fragment shorter than the header size
// is written as raw payload.
func (w *StreamWriter) WriteFragment(fragment []byte) error {
	if w.state == stateFinalized {
		return ErrWriterFinalized
	}

	body := fragment

	if w.format == FormatWAV {
		switch {
		case w.state == stateAwaitingFirst && len(fragment) >= HeaderSize:
			w.hasHeader = true
			w.payloadLen += len(fragment) - HeaderSize
		case w.state == stateStreaming && len(fragment) >= HeaderSize:
			body = fragment[HeaderSize:]
			w.payloadLen += len(body)
		default:
			w.payloadLen += len(fragment)
		}
	}

	_, err := w.sink.Write(body)
	if err != nil {
		return fmt.Errorf("failed to write audio fragment: %w", err)
	}

	w.state = stateStreaming

	return nil
}

// Finalize completes the stream. For WAV it seeks back into the written
// header and patches the RIFF and data size fields, then returns the
// sink position to the end of the data. The writer accepts no further
// fragments afterwards.
func (w *StreamWriter) Finalize() error {
	if w.state == stateFinalized {
		return ErrWriterFinalized
	}

	defer func() { w.state = stateFinalized }()

	if w.format != FormatWAV || !w.hasHeader {
		return nil
	}

	err := w.patchField(riffSizeOffset, uint32(riffSizeBias+w.payloadLen))
	if err != nil {
		return err
	}

	err = w.patchField(dataSizeOffset, uint32(w.payloadLen))
	if err != nil {
		return err
	}

	_, err = w.sink.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek to end of stream: %w", err)
	}

	return nil
}

func (w *StreamWriter) patchField(offset int64, value uint32) error {
	_, err := w.sink.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to seek to header offset %d: %w", offset, err)
	}

	var field [4]byte

	binary.LittleEndian.PutUint32(field[:], value)

	_, err = w.sink.Write(field[:])
	if err != nil {
		return fmt.Errorf("failed to patch header offset %d: %w", offset, err)
	}

	return nil
}
