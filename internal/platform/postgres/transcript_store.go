package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/store"
)

// PostgresTranscriptStore implements the store.TranscriptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTranscriptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTranscriptStore creates a new PostgreSQL implementation of the
// TranscriptStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTranscriptStore(db store.DBTX, log *slog.Logger) *PostgresTranscriptStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresTranscriptStore{
		db:     db,
		logger: log.With(slog.String("component", "transcript_store")),
	}
}

// Ensure PostgresTranscriptStore implements store.TranscriptStore
var _ store.TranscriptStore = (*PostgresTranscriptStore)(nil)

// WithTx implements store.TranscriptStore.WithTx
func (s *PostgresTranscriptStore) WithTx(tx *sql.Tx) store.TranscriptStore {
	return &PostgresTranscriptStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TranscriptStore.Create
// Returns validation errors from the domain Transcript if data is invalid.
func (s *PostgresTranscriptStore) Create(ctx context.Context, transcript *domain.Transcript) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := transcript.Validate(); err != nil {
		log.Warn("transcript validation failed during create",
			slog.String("error", err.Error()),
			slog.String("transcript_id", transcript.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO transcripts (id, audio_id, text, provider, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		transcript.ID,
		uuidOrNil(transcript.AudioID),
		transcript.Text,
		transcript.Provider,
		transcript.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create transcript",
			slog.String("error", err.Error()),
			slog.String("transcript_id", transcript.ID.String()))
		return MapError(err)
	}

	return nil
}

// GetText implements store.TranscriptStore.GetText
// Returns store.ErrTranscriptNotFound if the transcript does not exist.
func (s *PostgresTranscriptStore) GetText(ctx context.Context, id uuid.UUID) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT text FROM transcripts WHERE id = $1`

	var text string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&text)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", store.ErrTranscriptNotFound
		}
		log.Error("failed to get transcript text",
			slog.String("error", err.Error()),
			slog.String("transcript_id", id.String()))
		return "", MapError(err)
	}

	return text, nil
}
