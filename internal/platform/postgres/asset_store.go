package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/store"
)

// PostgresAudioAssetStore implements the store.AudioAssetStore interface.
// The worker only ever reads assets; writes happen in the upload API.
type PostgresAudioAssetStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAudioAssetStore creates a new PostgreSQL implementation of the
// AudioAssetStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAudioAssetStore(db store.DBTX, log *slog.Logger) *PostgresAudioAssetStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresAudioAssetStore{
		db:     db,
		logger: log.With(slog.String("component", "audio_asset_store")),
	}
}

// Ensure PostgresAudioAssetStore implements store.AudioAssetStore
var _ store.AudioAssetStore = (*PostgresAudioAssetStore)(nil)

// GetByID implements store.AudioAssetStore.GetByID
// Returns store.ErrAssetNotFound if the asset does not exist or has no data.
func (s *PostgresAudioAssetStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AudioAsset, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, storage_path, content_type, data, created_at
		FROM audio_assets
		WHERE id = $1
	`

	var asset domain.AudioAsset
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&asset.ID,
		&asset.StoragePath,
		&asset.ContentType,
		&asset.Data,
		&asset.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrAssetNotFound
		}
		log.Error("failed to get audio asset",
			slog.String("error", err.Error()),
			slog.String("audio_id", id.String()))
		return nil, MapError(err)
	}

	if len(asset.Data) == 0 {
		return nil, store.ErrAssetNotFound
	}

	return &asset, nil
}
