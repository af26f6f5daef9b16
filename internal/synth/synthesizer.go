package synth

import (
	"context"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
)

// ChunkSynthesizer binds a Client to a fixed voice, language, and audio
// format so the pipeline can synthesize chunks without carrying voice
// parameters through every call. It satisfies core.Synthesizer.
type ChunkSynthesizer struct {
	client       *Client
	voice        string
	languageCode string
	format       audio.Format
}

// NewChunkSynthesizer creates a per-request synthesizer. The format is
// fixed for the whole request; mixed formats across chunks are not
// supported.
func NewChunkSynthesizer(
	client *Client,
	voice, languageCode string,
	format audio.Format,
) *ChunkSynthesizer {
	return &ChunkSynthesizer{
		client:       client,
		voice:        voice,
		languageCode: languageCode,
		format:       format,
	}
}

// Synthesize converts one chunk of text into audio bytes.
func (s *ChunkSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.client.GenerateSpeech(ctx, Request{
		Text:         text,
		Voice:        s.voice,
		LanguageCode: s.languageCode,
		AudioFormat:  s.format,
	})
}
