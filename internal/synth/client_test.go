package synth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
	"github.com/charles-forsyth/generate-gemini-voice/internal/synth"
)

const testTimeout = 5 * time.Second

func TestGenerateSpeechSuccess(t *testing.T) {
	t.Parallel()

	expectedAudio := []byte("fake-mp3-bytes")

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/generate/speech", r.URL.Path)
			assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

			var req synth.Request

			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)

			assert.Equal(t, "Hello world", req.Text)
			assert.Equal(t, "en-US-Chirp3-HD-Zephyr", req.Voice)
			assert.Equal(t, "en-US", req.LanguageCode)
			assert.Equal(t, audio.FormatMP3, req.AudioFormat)

			w.Header().Set("Content-Type", "audio/mpeg")

			_, err = w.Write(expectedAudio)
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "secret-key", testTimeout)

	audioData, err := client.GenerateSpeech(context.Background(), synth.Request{
		Text:         "Hello world",
		Voice:        "en-US-Chirp3-HD-Zephyr",
		LanguageCode: "en-US",
		AudioFormat:  audio.FormatMP3,
	})

	require.NoError(t, err)
	assert.Equal(t, expectedAudio, audioData)
}

func TestGenerateSpeechDefaultsLanguageCode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req synth.Request

			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)

			assert.Equal(t, "en-US", req.LanguageCode)

			w.Header().Set("Content-Type", "audio/wav")

			_, err = w.Write([]byte("wav-bytes"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "", testTimeout)

	_, err := client.GenerateSpeech(context.Background(), synth.Request{
		Text:        "Hello",
		Voice:       "some-voice",
		AudioFormat: audio.FormatWAV,
	})

	require.NoError(t, err)
}

func TestGenerateSpeechEmptyText(t *testing.T) {
	t.Parallel()

	client := synth.NewClient("http://localhost:0", "", testTimeout)

	_, err := client.GenerateSpeech(context.Background(), synth.Request{
		Text:        "",
		AudioFormat: audio.FormatMP3,
	})

	require.ErrorIs(t, err, synth.ErrTextEmpty)
}

func TestGenerateSpeechStructuredError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)

			_, err := w.Write([]byte(
				`{"detail":"text too long","error_code":"TEXT_TOO_LONG"}`,
			))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "", testTimeout)

	_, err := client.GenerateSpeech(context.Background(), synth.Request{
		Text:        "Hello",
		AudioFormat: audio.FormatMP3,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "text too long")
	assert.Contains(t, err.Error(), "TEXT_TOO_LONG")
}

func TestGenerateSpeechUnexpectedContentType(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")

			_, err := w.Write([]byte("<html>not audio</html>"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "", testTimeout)

	_, err := client.GenerateSpeech(context.Background(), synth.Request{
		Text:        "Hello",
		AudioFormat: audio.FormatMP3,
	})

	require.ErrorIs(t, err, synth.ErrUnexpectedMimeType)
}

func TestGenerateSpeechEmptyAudio(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "audio/ogg")
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "", testTimeout)

	_, err := client.GenerateSpeech(context.Background(), synth.Request{
		Text:        "Hello",
		AudioFormat: audio.FormatOGG,
	})

	require.ErrorIs(t, err, synth.ErrEmptyAudio)
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/voices", r.URL.Path)
			assert.Equal(t, "en-GB", r.URL.Query().Get("language_code"))

			w.Header().Set("Content-Type", "application/json")

			_, err := w.Write([]byte(
				`[{"name":"en-GB-Voice-A","gender":"FEMALE"},` +
					`{"name":"en-GB-Voice-B","gender":"MALE"}]`,
			))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "", testTimeout)

	voices, err := client.ListVoices(context.Background(), "en-GB")

	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "en-GB-Voice-A", voices[0].Name)
	assert.Equal(t, "FEMALE", voices[0].Gender)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{name: "healthy", statusCode: http.StatusOK, wantErr: false},
		{name: "unavailable", statusCode: http.StatusServiceUnavailable, wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/health", r.URL.Path)
					w.WriteHeader(testCase.statusCode)
				},
			))
			defer server.Close()

			client := synth.NewClient(server.URL, "", testTimeout)

			err := client.HealthCheck(context.Background())

			if testCase.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestChunkSynthesizerForwardsSettings(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req synth.Request

			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)

			assert.Equal(t, "chunk text", req.Text)
			assert.Equal(t, "de-DE-Voice", req.Voice)
			assert.Equal(t, "de-DE", req.LanguageCode)
			assert.Equal(t, audio.FormatOGG, req.AudioFormat)

			w.Header().Set("Content-Type", "audio/ogg")

			_, err = w.Write([]byte("ogg-bytes"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	client := synth.NewClient(server.URL, "", testTimeout)
	synthesizer := synth.NewChunkSynthesizer(client, "de-DE-Voice", "de-DE", audio.FormatOGG)

	data, err := synthesizer.Synthesize(context.Background(), "chunk text")

	require.NoError(t, err)
	assert.Equal(t, []byte("ogg-bytes"), data)
}
