// Package core defines the interfaces shared between the speech pipeline,
// the CLI, and the NATS worker.
package core

import "context"

// Synthesizer converts one chunk of text into raw audio bytes. The voice,
// language, and audio format are fixed when the Synthesizer is built; a
// single request never mixes formats across chunks.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SpeechGenerator turns arbitrary-length text into one finished audio
// buffer, handling chunking and reassembly internally.
type SpeechGenerator interface {
	Generate(ctx context.Context, text string) ([]byte, error)
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
