// Command generate-voice converts text into synthesized speech using a
// remote TTS service, handling the service's per-request size limit by
// chunking long input and reassembling the audio into one file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
	"github.com/charles-forsyth/generate-gemini-voice/internal/config"
	"github.com/charles-forsyth/generate-gemini-voice/internal/fileutil"
	"github.com/charles-forsyth/generate-gemini-voice/internal/pipeline"
	"github.com/charles-forsyth/generate-gemini-voice/internal/playback"
	"github.com/charles-forsyth/generate-gemini-voice/internal/synth"
)

// Flag names.
const (
	flagText       = "text"
	flagInput      = "input"
	flagOutput     = "output"
	flagFormat     = "format"
	flagVoice      = "voice"
	flagLanguage   = "language"
	flagListVoices = "list-voices"
	flagNoPlay     = "no-play"
	flagTemp       = "temp"
	flagHealth     = "health"
	flagVerbose    = "verbose"
)

// Flag descriptions.
const (
	flagTextDesc       = "Text to synthesize (or use -input / pipe via stdin)"
	flagInputDesc      = "Read the text to synthesize from a file"
	flagOutputDesc     = "Save the generated audio to this file"
	flagFormatDesc     = "Audio format: MP3, WAV, or OGG"
	flagVoiceDesc      = "Voice name (see -list-voices)"
	flagLanguageDesc   = "BCP-47 language code for the voice"
	flagListVoicesDesc = "List available voices and exit"
	flagNoPlayDesc     = "Do not play the generated audio"
	flagTempDesc       = "Generate to a temporary file, play it, then delete it"
	flagHealthDesc     = "Check TTS service health and exit"
	flagVerboseDesc    = "Enable verbose logging"
)

// Log file names.
const (
	logFileNameDefault = "generate-voice.log"
	logFileNameVerbose = "generate-voice-verbose.log"
)

// Static errors.
var (
	ErrNoInput        = errors.New(
		"no input provided: pass text as -text, use -input, or pipe via stdin")
	ErrTempWithNoPlay = errors.New("-temp cannot be combined with -no-play")
	ErrUnknownVoice   = errors.New("unknown voice name, use -list-voices to see options")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text       string
	input      string
	output     string
	format     string
	voice      string
	language   string
	listVoices bool
	noPlay     bool
	temp       bool
	health     bool
	verbose    bool
}

func main() {
	err := run()
	if err != nil {
		// The logger may not be initialized yet, so use the standard
		// log package.
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	cfg, logg, err := setup(flags.verbose)
	if err != nil {
		return err
	}
	defer logg.Close()

	client := synth.NewClient(
		cfg.TTS.GetServiceURL(),
		cfg.TTS.APIKey,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)

	ctx := context.Background()

	if flags.health {
		return handleHealthCheck(ctx, client)
	}

	if flags.listVoices {
		return handleListVoices(ctx, client, language(flags, cfg))
	}

	return handleGenerate(ctx, client, cfg, logg, flags)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.input, flagInput, "", flagInputDesc)
	flag.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flag.StringVar(&flags.format, flagFormat, "", flagFormatDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.language, flagLanguage, "", flagLanguageDesc)
	flag.BoolVar(&flags.listVoices, flagListVoices, false, flagListVoicesDesc)
	flag.BoolVar(&flags.noPlay, flagNoPlay, false, flagNoPlayDesc)
	flag.BoolVar(&flags.temp, flagTemp, false, flagTempDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flag.Parse()

	return flags
}

// setup loads configuration and initializes the logger.
func setup(verbose bool) (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := logger.New(os.TempDir(), "generate-voice-bootstrap.log")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	err = cfg.EnsureDirectories()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logFileName := logFileNameDefault
	if verbose {
		logFileName = logFileNameVerbose
	}

	logg, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logg, nil
}

func handleHealthCheck(ctx context.Context, client *synth.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := client.HealthCheck(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "TTS service is not healthy: %v\n", err)

		return err
	}

	fmt.Println("TTS service is healthy")

	return nil
}

func handleListVoices(ctx context.Context, client *synth.Client, languageCode string) error {
	voices, err := client.ListVoices(ctx, languageCode)
	if err != nil {
		return fmt.Errorf("failed to fetch voice list: %w", err)
	}

	printVoiceTable(voices, languageCode)

	return nil
}

// printVoiceTable prints the available voices in a formatted table.
func printVoiceTable(voices []synth.Voice, languageCode string) {
	if len(voices) == 0 {
		fmt.Fprintf(os.Stderr, "No voices found for language %q.\n", languageCode)

		return
	}

	nameWidth := len("Name")
	for _, voice := range voices {
		if len(voice.Name) > nameWidth {
			nameWidth = len(voice.Name)
		}
	}

	fmt.Printf("Available %q voices:\n", languageCode)
	fmt.Printf("%-*s  %s\n", nameWidth, "Name", "Gender")

	for _, voice := range voices {
		fmt.Printf("%-*s  %s\n", nameWidth, voice.Name, voice.Gender)
	}
}

// handleGenerate resolves the input text and output location, runs the
// pipeline, and optionally plays the result.
func handleGenerate(
	ctx context.Context,
	client *synth.Client,
	cfg *config.Config,
	logg *logger.Logger,
	flags appFlags,
) error {
	if flags.temp && flags.noPlay {
		return ErrTempWithNoPlay
	}

	text, err := resolveInputText(flags)
	if err != nil {
		return err
	}

	format, err := audio.ParseFormat(formatName(flags, cfg))
	if err != nil {
		return err
	}

	voice, err := resolveVoice(ctx, client, flags, cfg)
	if err != nil {
		return err
	}

	synthesizer := synth.NewChunkSynthesizer(client, voice, language(flags, cfg), format)

	generator, err := pipeline.NewGenerator(synthesizer, format, pipeline.Options{
		ChunkLimitBytes: cfg.TTS.ChunkLimitBytes,
		Workers:         cfg.TTS.Workers,
	}, logg)
	if err != nil {
		return err
	}

	if flags.temp {
		return generateTemporary(ctx, generator, logg, text, format)
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = filepath.Join(
			cfg.Paths.OutputDir,
			fileutil.OutputFilename(text, format.Ext()),
		)
	}

	err = generator.GenerateToFile(ctx, text, outputPath)
	if err != nil {
		return fmt.Errorf("failed to generate speech: %w", err)
	}

	reportGenerated(logg, outputPath)

	if !flags.noPlay {
		playAudio(ctx, logg, outputPath)
	}

	return nil
}

// generateTemporary writes the audio to a temporary file, plays it, and
// deletes it afterwards.
func generateTemporary(
	ctx context.Context,
	generator *pipeline.Generator,
	logg *logger.Logger,
	text string,
	format audio.Format,
) error {
	tmpPath := filepath.Join(
		os.TempDir(),
		fileutil.OutputFilename(text, format.Ext()),
	)

	err := generator.GenerateToFile(ctx, text, tmpPath)
	if err != nil {
		return fmt.Errorf("failed to generate speech: %w", err)
	}

	defer func() {
		removeErr := os.Remove(tmpPath)
		if removeErr != nil {
			logg.Warn("Failed to remove temporary audio '%s': %v", tmpPath, removeErr)
		}
	}()

	fmt.Fprintln(os.Stderr, "Playing temporary audio file...")
	playAudio(ctx, logg, tmpPath)

	return nil
}

// resolveInputText picks the input in order of precedence: -input file,
// -text, then piped stdin.
func resolveInputText(flags appFlags) (string, error) {
	if flags.input != "" {
		data, err := os.ReadFile(flags.input)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}

		return string(data), nil
	}

	if flags.text != "" {
		return flags.text, nil
	}

	if stdinIsPiped() {
		fmt.Fprintln(os.Stderr, "Reading from pipe (stdin)...")

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}

		if len(data) > 0 {
			return string(data), nil
		}
	}

	return "", ErrNoInput
}

func stdinIsPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice == 0
}

// resolveVoice validates the chosen voice against the service's list.
func resolveVoice(
	ctx context.Context,
	client *synth.Client,
	flags appFlags,
	cfg *config.Config,
) (string, error) {
	voice := flags.voice
	if voice == "" {
		voice = cfg.TTS.Voice
	}

	voices, err := client.ListVoices(ctx, language(flags, cfg))
	if err != nil {
		return "", fmt.Errorf("failed to fetch voice list: %w", err)
	}

	for _, known := range voices {
		if known.Name == voice {
			return voice, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownVoice, voice)
}

func formatName(flags appFlags, cfg *config.Config) string {
	if flags.format != "" {
		return flags.format
	}

	return cfg.TTS.Format
}

func language(flags appFlags, cfg *config.Config) string {
	if flags.language != "" {
		return flags.language
	}

	return cfg.TTS.LanguageCode
}

func reportGenerated(logg *logger.Logger, path string) {
	size := "unknown size"

	info, err := os.Stat(path)
	if err == nil {
		size = fileutil.FormatFileSize(info.Size())
	}

	logg.Info("Successfully generated speech: %s (%s)", path, size)
	fmt.Printf("Generated: %s (%s)\n", path, size)
}

// playAudio plays the file if a player is installed. Playback problems
// are reported but never fail the generation that already succeeded.
func playAudio(ctx context.Context, logg *logger.Logger, path string) {
	player, err := playback.Find()
	if err != nil {
		logg.Warn("Skipping playback: %v", err)
		fmt.Fprintf(os.Stderr, "Skipping playback: %v\n", err)

		return
	}

	err = player.Play(ctx, path)
	if err != nil {
		logg.Warn("Playback failed: %v", err)
		fmt.Fprintf(os.Stderr, "Playback failed: %v\n", err)
	}
}
