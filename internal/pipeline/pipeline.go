// Package pipeline orchestrates the text-to-speech flow: split text into
// byte-bounded chunks, synthesize each chunk independently over a bounded
// worker pool, and reassemble the resulting audio fragments in chunk
// order.
//
// Chunking and reassembly are pure, synchronous transformations; the
// only suspension point is the remote synthesis call. A failure on any
// chunk aborts the whole request with no partial output left behind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/book-expert/logger"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
	"github.com/charles-forsyth/generate-gemini-voice/internal/chunk"
	"github.com/charles-forsyth/generate-gemini-voice/internal/core"
)

// Defaults applied when Options fields are zero.
const (
	// DefaultChunkLimitBytes stays under the remote service's 5000-byte
	// per-request input limit with room for request overhead.
	DefaultChunkLimitBytes = 4500

	// DefaultWorkers bounds concurrent synthesis calls.
	DefaultWorkers = 5
)

// snippetMaxLen caps the chunk text excerpt carried in synthesis errors.
const snippetMaxLen = 50

// ErrSynthesisFailed wraps a synthesis collaborator error. The wrapped
// message carries a short excerpt of the offending chunk for diagnostics.
var ErrSynthesisFailed = errors.New("speech synthesis failed")

// Options tunes a Generator. Zero values select the defaults.
type Options struct {
	// ChunkLimitBytes is the per-chunk UTF-8 byte budget.
	ChunkLimitBytes int

	// Workers is the maximum number of concurrent synthesis calls.
	Workers int
}

// Generator drives the chunk/synthesize/reassemble pipeline for a fixed
// audio format.
type Generator struct {
	synthesizer core.Synthesizer
	format      audio.Format
	chunkLimit  int
	workers     int
	log         *logger.Logger
}

// NewGenerator creates a Generator. An unrecognized format is rejected
// here, before any synthesis call is made.
func NewGenerator(
	synthesizer core.Synthesizer,
	format audio.Format,
	opts Options,
	log *logger.Logger,
) (*Generator, error) {
	parsed, err := audio.ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	if opts.ChunkLimitBytes <= 0 {
		opts.ChunkLimitBytes = DefaultChunkLimitBytes
	}

	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	return &Generator{
		synthesizer: synthesizer,
		format:      parsed,
		chunkLimit:  opts.ChunkLimitBytes,
		workers:     opts.Workers,
		log:         log,
	}, nil
}

// Generate synthesizes text into one audio buffer held in memory.
func (g *Generator) Generate(ctx context.Context, text string) ([]byte, error) {
	chunks := chunk.Split(text, g.chunkLimit)

	g.log.Info("Synthesizing %d chunks (%s, limit %d bytes)",
		len(chunks), g.format, g.chunkLimit)

	fragments, err := g.synthesizeAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	combined, err := audio.Combine(fragments, g.format)
	if err != nil {
		return nil, fmt.Errorf("failed to combine audio fragments: %w", err)
	}

	return combined, nil
}

// GenerateToFile synthesizes text and streams the audio to a file.
// Fragments are written as synthesis completes, reordered to chunk
// submission order; for WAV the header is backpatched once all fragments
// are written. Output goes to a temporary file in the target directory
// and is renamed into place only on full success, so a failed request
// never leaves a partial file behind.
func (g *Generator) GenerateToFile(ctx context.Context, text, path string) error {
	chunks := chunk.Split(text, g.chunkLimit)

	g.log.Info("Synthesizing %d chunks to %s (%s, limit %d bytes)",
		len(chunks), path, g.format, g.chunkLimit)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".speech-*"+g.format.Ext())
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %w", err)
	}

	streamErr := g.streamAll(ctx, chunks, tmp)

	closeErr := tmp.Close()

	if streamErr != nil || closeErr != nil {
		removeErr := os.Remove(tmp.Name())
		if removeErr != nil {
			g.log.Warn("Failed to remove partial output '%s': %v",
				tmp.Name(), removeErr)
		}

		if streamErr != nil {
			return streamErr
		}

		return fmt.Errorf("failed to close output file: %w", closeErr)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		removeErr := os.Remove(tmp.Name())
		if removeErr != nil {
			g.log.Warn("Failed to remove temporary output '%s': %v",
				tmp.Name(), removeErr)
		}

		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// synthesizeAll runs the bounded worker pool and returns fragments in
// chunk submission order. The first failure cancels in-flight work and
// aborts the request.
func (g *Generator) synthesizeAll(
	ctx context.Context,
	chunks []string,
) ([][]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		firstErr  error
	)

	fragments := make([][]byte, len(chunks))
	workerPool := make(chan struct{}, g.workers)

	for chunkIndex, chunkText := range chunks {
		waitGroup.Add(1)

		go func(index int, text string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			if ctx.Err() != nil {
				return
			}

			data, synthErr := g.synthesizer.Synthesize(ctx, text)
			if synthErr != nil {
				mutex.Lock()

				if firstErr == nil {
					firstErr = newChunkError(index, text, synthErr)
				}

				mutex.Unlock()
				cancel()

				return
			}

			fragments[index] = data
		}(chunkIndex, chunkText)
	}

	waitGroup.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return fragments, nil
}

// streamAll synthesizes chunks concurrently and writes fragments to the
// sink in submission order. Completions arriving early are parked in a
// reorder buffer; the single writer goroutine below keeps sink access
// serialized.
func (g *Generator) streamAll(
	ctx context.Context,
	chunks []string,
	sink *os.File,
) error {
	writer, err := audio.NewStreamWriter(sink, g.format)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type indexedFragment struct {
		index int
		data  []byte
	}

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		synthErr  error
	)

	results := make(chan indexedFragment)
	workerPool := make(chan struct{}, g.workers)

	for chunkIndex, chunkText := range chunks {
		waitGroup.Add(1)

		go func(index int, text string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			if ctx.Err() != nil {
				return
			}

			data, genErr := g.synthesizer.Synthesize(ctx, text)
			if genErr != nil {
				mutex.Lock()

				if synthErr == nil {
					synthErr = newChunkError(index, text, genErr)
				}

				mutex.Unlock()
				cancel()

				return
			}

			select {
			case results <- indexedFragment{index: index, data: data}:
			case <-ctx.Done():
			}
		}(chunkIndex, chunkText)
	}

	go func() {
		waitGroup.Wait()
		close(results)
	}()

	var writeErr error

	pending := make(map[int][]byte)
	next := 0

	for result := range results {
		if writeErr != nil {
			continue
		}

		pending[result.index] = result.data

		for {
			data, ready := pending[next]
			if !ready {
				break
			}

			delete(pending, next)

			writeErr = writer.WriteFragment(data)
			if writeErr != nil {
				cancel()

				break
			}

			next++
		}
	}

	mutex.Lock()
	failed := synthErr
	mutex.Unlock()

	if failed != nil {
		return failed
	}

	if writeErr != nil {
		return fmt.Errorf("failed to stream audio fragment: %w", writeErr)
	}

	err = writer.Finalize()
	if err != nil {
		return fmt.Errorf("failed to finalize audio stream: %w", err)
	}

	return nil
}

// newChunkError attaches the chunk position and a short text excerpt to
// a synthesis failure.
func newChunkError(index int, text string, err error) error {
	return fmt.Errorf("%w for chunk %d (%q): %w",
		ErrSynthesisFailed, index+1, snippet(text), err)
}

// snippet truncates chunk text for error messages, rune-safe.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetMaxLen {
		return text
	}

	return string(runes[:snippetMaxLen]) + "..."
}
