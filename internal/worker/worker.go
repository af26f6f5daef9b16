// Package worker provides a NATS worker that turns text-processed events
// into finished audio objects.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/charles-forsyth/generate-gemini-voice/internal/audio"
	"github.com/charles-forsyth/generate-gemini-voice/internal/core"
)

const handleMessageTimeout = 10 * time.Minute

// ErrTextKeyEmpty indicates an event without an input text reference.
var ErrTextKeyEmpty = errors.New("text key cannot be empty")

// NatsWorker listens for speech jobs on a NATS subject, runs the full
// chunk/synthesize/reassemble pipeline, and stores the result.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	generator      core.SpeechGenerator
	format         audio.Format
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	generator core.SpeechGenerator,
	format audio.Format,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		generator:      generator,
		format:         format,
		log:            log,
	}
}

// Run starts the worker and blocks until the context is canceled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse event: %v", err)

		return
	}

	audioKey, processErr := w.processJob(ctx, event)
	if processErr != nil {
		w.log.Error("Failed to process speech job for workflow %s: %v",
			event.Header.WorkflowID, processErr)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = w.publishReply(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID, err)
	}
}

// processJob downloads the input text, generates the audio, and uploads
// the result under a fresh key.
func (w *NatsWorker) processJob(
	ctx context.Context,
	event *events.TextProcessedEvent,
) (string, error) {
	if event.TextKey == "" {
		return "", ErrTextKeyEmpty
	}

	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf(
			"failed to download text data for key '%s': %w", event.TextKey, err,
		)
	}

	audioData, err := w.generator.Generate(ctx, string(textData))
	if err != nil {
		return "", fmt.Errorf("failed to generate speech: %w", err)
	}

	audioKey := uuid.NewString() + w.format.Ext()

	err = w.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", fmt.Errorf(
			"failed to upload audio data for key '%s': %w", audioKey, err,
		)
	}

	w.log.Info("Generated %d bytes of audio for workflow %s as %s",
		len(audioData), event.Header.WorkflowID, audioKey)

	return audioKey, nil
}

func (w *NatsWorker) publishReply(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(msg *nats.Msg) (*events.TextProcessedEvent, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return &event, nil
}
