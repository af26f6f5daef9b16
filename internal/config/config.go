// Package config provides the configuration structure for generate-gemini-voice.
package config

import (
	"fmt"
	"os"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied to fields left empty in the TOML file.
const (
	defaultServiceURL     = "http://localhost:8000"
	defaultTimeoutSeconds = 300
	defaultVoice          = "en-US-Chirp3-HD-Zephyr"
	defaultLanguageCode   = "en-US"
	defaultFormat         = "MP3"

	dirPermissions = 0o750
)

// TTSConfig holds the connection and voice settings for the remote TTS
// service.
type TTSConfig struct {
	ServiceURL      string `toml:"service_url"`
	APIKey          string `toml:"api_key"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	Workers         int    `toml:"workers"`
	ChunkLimitBytes int    `toml:"chunk_limit_bytes"`
	Voice           string `toml:"voice"`
	LanguageCode    string `toml:"language_code"`
	Format          string `toml:"format"`
}

// NATSConfig holds the configuration for the worker mode.
type NATSConfig struct {
	URL                      string `toml:"url"`
	TextProcessedSubject     string `toml:"text_processed_subject"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	OutputDir   string `toml:"output_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	TTS   TTSConfig   `toml:"tts_service"`
	NATS  NATSConfig  `toml:"nats"`
	Paths PathsConfig `toml:"paths"`
}

// Load loads the configuration via the central configurator and applies
// defaults for unset fields.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// GetServiceURL returns the TTS service base URL.
func (t *TTSConfig) GetServiceURL() string {
	if t.ServiceURL == "" {
		return defaultServiceURL
	}

	return t.ServiceURL
}

// EnsureDirectories creates the output and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.BaseLogsDir} {
		if dir == "" {
			continue
		}

		err := os.MkdirAll(dir, dirPermissions)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTimeoutSeconds
	}

	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultVoice
	}

	if c.TTS.LanguageCode == "" {
		c.TTS.LanguageCode = defaultLanguageCode
	}

	if c.TTS.Format == "" {
		c.TTS.Format = defaultFormat
	}
}
