package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/store"
)

// TranscriptSaver persists a freshly transcribed audio transcript and
// backfills the owning request in a single transaction, so a crash between
// the two writes can never leave a transcript row without the request
// reference that makes resumes idempotent.
type TranscriptSaver struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTranscriptSaver creates a TranscriptSaver over the given database
// handle. If logger is nil, a default logger will be used.
func NewTranscriptSaver(db *sql.DB, log *slog.Logger) *TranscriptSaver {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &TranscriptSaver{
		db:     db,
		logger: log.With(slog.String("component", "transcript_saver")),
	}
}

// SaveResolvedTranscript inserts a transcript produced from the given
// audio asset and caches the text (plus the new transcript reference) onto
// the claimed request, token-gated. Returns the new transcript's ID.
// Returns store.ErrStaleClaim if the claim was lost before the cache write.
func (s *TranscriptSaver) SaveResolvedTranscript(
	ctx context.Context,
	requestID, lockToken, audioID uuid.UUID,
	provider, text string,
) (uuid.UUID, error) {
	transcript, err := domain.NewTranscript(audioID, text, provider)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		transcripts := NewPostgresTranscriptStore(tx, s.logger)
		if err := transcripts.Create(ctx, transcript); err != nil {
			return err
		}

		requests := NewPostgresSummaryRequestStore(tx, s.logger)
		return requests.CacheTranscript(ctx, requestID, lockToken, &transcript.ID, text)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return transcript.ID, nil
}
