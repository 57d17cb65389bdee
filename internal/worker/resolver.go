package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/platform/metrics"
	"github.com/phrazzld/voicebrief/internal/store"
)

// Transcriber converts audio bytes into transcript text.
type Transcriber interface {
	// Transcribe returns the transcript for the given audio payload.
	Transcribe(ctx context.Context, data []byte, contentType string) (string, error)

	// Provider returns the identifier recorded on persisted transcripts.
	Provider() string
}

// TranscriptSaver persists a freshly produced transcript and backfills the
// owning request atomically.
type TranscriptSaver interface {
	SaveResolvedTranscript(ctx context.Context, requestID, lockToken, audioID uuid.UUID, provider, text string) (uuid.UUID, error)
}

// Resolver produces transcript text for a claimed request, checking the
// cheapest source first: the cached text from a previous attempt, inline
// raw text, an existing transcript row, and finally audio transcription.
// Whatever it resolves is cached back onto the request so a retried claim
// skips the expensive path.
type Resolver struct {
	transcripts store.TranscriptStore
	assets      store.AudioAssetStore
	requests    store.SummaryRequestStore
	transcriber Transcriber
	saver       TranscriptSaver
	logger      *slog.Logger
}

// NewResolver creates a Resolver.
// If log is nil, a default logger will be used.
func NewResolver(
	transcripts store.TranscriptStore,
	assets store.AudioAssetStore,
	requests store.SummaryRequestStore,
	transcriber Transcriber,
	saver TranscriptSaver,
	log *slog.Logger,
) *Resolver {
	if log == nil {
		log = slog.Default()
	}

	return &Resolver{
		transcripts: transcripts,
		assets:      assets,
		requests:    requests,
		transcriber: transcriber,
		saver:       saver,
		logger:      log.With(slog.String("component", "transcript_resolver")),
	}
}

// Resolve returns the transcript text for the claimed request.
// Failure kinds: domain.ErrNoTranscriptSource when no source is present,
// domain.ErrAudioUnavailable when the referenced asset cannot be read,
// domain.ErrTranscriptionFailed and domain.ErrEmptyTranscript from the
// transcription capability, and store.ErrStaleClaim when the claim was
// lost before the cache write.
func (r *Resolver) Resolve(ctx context.Context, claim *domain.SummaryRequest) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if claim.LockToken == nil {
		return "", fmt.Errorf("request %s is not claimed", claim.ID)
	}
	lockToken := *claim.LockToken

	// A previous attempt may have resolved and cached the text already.
	if claim.TranscriptText != nil && strings.TrimSpace(*claim.TranscriptText) != "" {
		log.Debug("using cached transcript text")
		return strings.TrimSpace(*claim.TranscriptText), nil
	}

	if claim.RawTranscript != nil && strings.TrimSpace(*claim.RawTranscript) != "" {
		text := strings.TrimSpace(*claim.RawTranscript)
		log.Debug("using inline raw transcript")
		if err := r.requests.CacheTranscript(ctx, claim.ID, lockToken, nil, text); err != nil {
			return "", err
		}
		return text, nil
	}

	if claim.TranscriptID != nil && *claim.TranscriptID != uuid.Nil {
		text, err := r.transcripts.GetText(ctx, *claim.TranscriptID)
		switch {
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return "", err
		case err == nil && strings.TrimSpace(text) != "":
			text = strings.TrimSpace(text)
			log.Debug("using existing transcript",
				slog.String("transcript_id", claim.TranscriptID.String()))
			if err := r.requests.CacheTranscript(ctx, claim.ID, lockToken, nil, text); err != nil {
				return "", err
			}
			return text, nil
		default:
			// Missing or blank transcript row: fall through to the audio
			// reference if one exists.
			log.Warn("transcript reference unusable, falling back to audio",
				slog.String("transcript_id", claim.TranscriptID.String()))
		}
	}

	if claim.AudioID == nil || *claim.AudioID == uuid.Nil {
		return "", domain.ErrNoTranscriptSource
	}

	return r.resolveFromAudio(ctx, claim, lockToken)
}

func (r *Resolver) resolveFromAudio(ctx context.Context, claim *domain.SummaryRequest, lockToken uuid.UUID) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)
	audioID := *claim.AudioID

	asset, err := r.assets.GetByID(ctx, audioID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: asset %s: %v", domain.ErrAudioUnavailable, audioID, err)
		}
		return "", err
	}

	start := time.Now()
	text, err := r.transcriber.Transcribe(ctx, asset.Data, asset.ContentType)
	metrics.ObserveTranscription(start, err)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyTranscript
	}

	transcriptID, err := r.saver.SaveResolvedTranscript(
		ctx, claim.ID, lockToken, audioID, r.transcriber.Provider(), text,
	)
	if err != nil {
		return "", err
	}

	log.Info("audio transcribed",
		slog.String("audio_id", audioID.String()),
		slog.String("transcript_id", transcriptID.String()),
		slog.String("provider", r.transcriber.Provider()),
		slog.Int("transcript_chars", len(text)))

	return text, nil
}
