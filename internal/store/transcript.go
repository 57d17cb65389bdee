package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
)

// TranscriptStore defines the interface for transcript persistence.
type TranscriptStore interface {
	// Create saves a new transcript to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, transcript *domain.Transcript) error

	// GetText retrieves the text of a transcript by its ID.
	// Returns ErrTranscriptNotFound if the transcript does not exist.
	GetText(ctx context.Context, id uuid.UUID) (string, error)

	// WithTx returns a new TranscriptStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TranscriptStore
}

// AudioAssetStore defines the read interface for stored audio recordings.
// Assets are written by the upload API; the worker only consumes them.
type AudioAssetStore interface {
	// GetByID retrieves an audio asset, including its raw bytes.
	// Returns ErrAssetNotFound if the asset does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AudioAsset, error)
}
