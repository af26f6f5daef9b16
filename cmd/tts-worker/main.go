// Command tts-worker runs the speech generation pipeline as a NATS
// worker: it consumes text-processed events, synthesizes audio through
// the configured TTS service, and stores the result in a JetStream
// object bucket.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
	"github.com/charles-forsyth/generate-gemini-voice/internal/config"
	"github.com/charles-forsyth/generate-gemini-voice/internal/objectstore"
	"github.com/charles-forsyth/generate-gemini-voice/internal/pipeline"
	"github.com/charles-forsyth/generate-gemini-voice/internal/synth"
	"github.com/charles-forsyth/generate-gemini-voice/internal/worker"
)

const logFileName = "tts-worker.log"

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Close()

	format, err := audio.ParseFormat(cfg.TTS.Format)
	if err != nil {
		return err
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to set up object store: %w", err)
	}

	client := synth.NewClient(
		cfg.TTS.GetServiceURL(),
		cfg.TTS.APIKey,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)

	synthesizer := synth.NewChunkSynthesizer(
		client, cfg.TTS.Voice, cfg.TTS.LanguageCode, format,
	)

	generator, err := pipeline.NewGenerator(synthesizer, format, pipeline.Options{
		ChunkLimitBytes: cfg.TTS.ChunkLimitBytes,
		Workers:         cfg.TTS.Workers,
	}, logg)
	if err != nil {
		return err
	}

	natsWorker := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.TextProcessedSubject,
		store,
		generator,
		format,
		logg,
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	logg.System("TTS worker listening on subject %s", cfg.NATS.TextProcessedSubject)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}

	logg.System("TTS worker shut down cleanly")

	return nil
}

// setup loads configuration and initializes the worker logger.
func setup() (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := logger.New(os.TempDir(), "tts-worker-bootstrap.log")
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

	logg, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logg, nil
}
