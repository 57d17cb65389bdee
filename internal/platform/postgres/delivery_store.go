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

// PostgresEmailDeliveryStore implements the store.EmailDeliveryStore
// interface using a PostgreSQL database as the storage backend.
type PostgresEmailDeliveryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEmailDeliveryStore creates a new PostgreSQL implementation of
// the EmailDeliveryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresEmailDeliveryStore(db store.DBTX, log *slog.Logger) *PostgresEmailDeliveryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresEmailDeliveryStore{
		db:     db,
		logger: log.With(slog.String("component", "email_delivery_store")),
	}
}

// Ensure PostgresEmailDeliveryStore implements store.EmailDeliveryStore
var _ store.EmailDeliveryStore = (*PostgresEmailDeliveryStore)(nil)

// WithTx implements store.EmailDeliveryStore.WithTx
func (s *PostgresEmailDeliveryStore) WithTx(tx *sql.Tx) store.EmailDeliveryStore {
	return &PostgresEmailDeliveryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.EmailDeliveryStore.Create
// Returns validation errors from the domain EmailDelivery if data is invalid.
func (s *PostgresEmailDeliveryStore) Create(ctx context.Context, delivery *domain.EmailDelivery) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := delivery.Validate(); err != nil {
		log.Warn("email delivery validation failed during create",
			slog.String("error", err.Error()),
			slog.String("delivery_id", delivery.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO email_deliveries (id, request_id, provider, message_id, status, error, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		delivery.ID,
		delivery.RequestID,
		delivery.Provider,
		delivery.MessageID,
		delivery.Status,
		delivery.Error,
		delivery.SentAt,
		delivery.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create email delivery",
			slog.String("error", err.Error()),
			slog.String("delivery_id", delivery.ID.String()),
			slog.String("request_id", delivery.RequestID.String()))
		return MapError(err)
	}

	return nil
}

// ListByRequest implements store.EmailDeliveryStore.ListByRequest
func (s *PostgresEmailDeliveryStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.EmailDelivery, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, request_id, provider, message_id, status, error, sent_at, created_at
		FROM email_deliveries
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		log.Error("failed to query email deliveries",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	deliveries := []*domain.EmailDelivery{}
	for rows.Next() {
		var (
			delivery  domain.EmailDelivery
			messageID sql.NullString
			errMsg    sql.NullString
			sentAt    sql.NullTime
		)
		if err := rows.Scan(
			&delivery.ID,
			&delivery.RequestID,
			&delivery.Provider,
			&messageID,
			&delivery.Status,
			&errMsg,
			&sentAt,
			&delivery.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan email delivery row: %w", err)
		}

		if messageID.Valid {
			delivery.MessageID = &messageID.String
		}
		if errMsg.Valid {
			delivery.Error = &errMsg.String
		}
		if sentAt.Valid {
			t := sentAt.Time
			delivery.SentAt = &t
		}

		deliveries = append(deliveries, &delivery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email delivery rows: %w", err)
	}

	return deliveries, nil
}
