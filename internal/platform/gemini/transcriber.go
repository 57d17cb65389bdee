// Package gemini provides audio transcription using Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/phrazzld/voicebrief/internal/config"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
)

// ProviderName identifies this transcriber in persisted transcript rows.
const ProviderName = "gemini"

// transcriptionPrompt instructs the model to return a plain transcript with
// no commentary, so the response text can be stored verbatim.
const transcriptionPrompt = "Transcribe this audio recording. " +
	"Return only the spoken words as plain text, with no preamble, " +
	"labels, or commentary."

// Transcriber converts audio bytes into transcript text via the Gemini API.
type Transcriber struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// NewTranscriber creates a Transcriber from the given configuration.
// Returns an error if the API key is missing or client creation fails.
func NewTranscriber(ctx context.Context, log *slog.Logger, cfg config.TranscriberConfig) (*Transcriber, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("gemini model name is required")
	}

	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Transcriber{
		client:    client,
		modelName: cfg.ModelName,
		logger:    log.With(slog.String("component", "gemini_transcriber")),
	}, nil
}

// Provider returns the identifier recorded on persisted transcripts.
func (t *Transcriber) Provider() string {
	return ProviderName
}

// Transcribe sends the audio bytes to Gemini and returns the transcript
// text. Returns domain.ErrTranscriptionFailed (wrapped) on API errors and
// domain.ErrEmptyTranscript if the model produced no usable text.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, contentType string) (string, error) {
	log := logger.FromContextOrDefault(ctx, t.logger)

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty audio payload", domain.ErrTranscriptionFailed)
	}
	if contentType == "" {
		contentType = "audio/ogg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcriptionPrompt),
			genai.NewPartFromBytes(data, contentType),
		}, genai.RoleUser),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.modelName, contents, nil)
	if err != nil {
		log.Error("gemini transcription request failed",
			slog.String("error", err.Error()),
			slog.String("model", t.modelName),
			slog.Int("audio_bytes", len(data)))
		return "", fmt.Errorf("%w: %v", domain.ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		log.Warn("gemini returned an empty transcription",
			slog.String("model", t.modelName))
		return "", domain.ErrEmptyTranscript
	}

	log.Debug("transcription completed",
		slog.String("model", t.modelName),
		slog.Int("audio_bytes", len(data)),
		slog.Int("transcript_chars", len(text)))

	return text, nil
}
