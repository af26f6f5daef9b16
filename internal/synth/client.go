// Package synth provides the HTTP client for the remote text-to-speech
// service. The service is a black box to the rest of the repository:
// chunk text goes in, audio bytes come out.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiListVoices     = "/v1/voices"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
)

// Accepted response content types per audio format.
const (
	contentTypeMP3 = "audio/mpeg"
	contentTypeOGG = "audio/ogg"
	contentTypeWAV = "audio/wav"
)

// Default request values.
const (
	defaultLanguageCode = "en-US"
)

// Static errors.
var (
	ErrTextEmpty          = errors.New("text cannot be empty")
	ErrEmptyAudio         = errors.New("received empty audio data")
	ErrUnexpectedMimeType = errors.New("unexpected response content type")
)

// Client talks to the remote TTS service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Request defines the JSON payload for one speech generation call. The
// voice, language, and format are fixed for a whole multi-chunk request;
// only the text varies between chunks.
type Request struct {
	// Text contains the chunk text to convert to speech. Must be
	// non-empty and fit the service's per-request size limit.
	Text string `json:"text"`

	// Voice selects the service voice name (e.g. "en-US-Chirp3-HD-Zephyr").
	Voice string `json:"voice"`

	// LanguageCode is the BCP-47 language code for the voice.
	LanguageCode string `json:"language_code"`

	// AudioFormat selects the container for the returned audio.
	AudioFormat audio.Format `json:"audio_format"`
}

// Voice describes one voice offered by the service.
type Voice struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// errorResponse is the service's structured error body.
type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewClient creates a client for the TTS service. The baseURL includes
// protocol and port (e.g. "http://localhost:8000"); the API key may be
// empty when the service does not require authentication. Credential
// handling lives entirely here, outside chunking and reassembly.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech synthesizes one chunk of text and returns the raw audio
// bytes. The response content type is validated against the requested
// format so a misconfigured service fails loudly instead of producing an
// unplayable file.
func (c *Client) GenerateSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if req.LanguageCode == "" {
		req.LanguageCode = defaultLanguageCode
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, acceptedContentType(req.AudioFormat))
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to TTS service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != acceptedContentType(req.AudioFormat) {
		return nil, fmt.Errorf(
			"%w: expected %s, got %s",
			ErrUnexpectedMimeType,
			acceptedContentType(req.AudioFormat),
			contentType,
		)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// ListVoices fetches the voices available for a language code.
func (c *Client) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	if languageCode == "" {
		languageCode = defaultLanguageCode
	}

	endpoint := c.baseURL + apiListVoices +
		"?language_code=" + url.QueryEscape(languageCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice list request: %w", err)
	}

	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voice list from %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var voices []Voice

	err = json.NewDecoder(resp.Body).Decode(&voices)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voice list: %w", err)
	}

	return voices, nil
}

// HealthCheck verifies that the TTS service is reachable and healthy.
// Run before large workloads to fail fast with a clear diagnostic.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	}
}

// parseErrorResponse decodes a structured JSON error from the service,
// falling back to the raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp errorResponse

	err := json.NewDecoder(resp.Body).Decode(&errResp)
	if err == nil && errResp.Detail != "" {
		return fmt.Errorf("TTS service error (%s): %s (code: %s)",
			resp.Status, errResp.Detail, errResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(
		"TTS service returned non-OK status: %s, body: %s",
		resp.Status,
		string(body),
	)
}

func acceptedContentType(format audio.Format) string {
	switch format {
	case audio.FormatMP3:
		return contentTypeMP3
	case audio.FormatOGG:
		return contentTypeOGG
	case audio.FormatWAV:
		return contentTypeWAV
	default:
		return contentTypeWAV
	}
}
