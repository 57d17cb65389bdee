package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/store"
)

// requestColumns is the column list shared by every query that hydrates a
// full SummaryRequest row.
const requestColumns = `id, email, audio_id, transcript_id, raw_transcript, send_at, status,
	attempts, last_error, lock_token, locked_at, transcript_text, summary_json,
	created_at, updated_at`

// PostgresSummaryRequestStore implements the store.SummaryRequestStore
// interface using a PostgreSQL database as the storage backend.
type PostgresSummaryRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSummaryRequestStore creates a new PostgreSQL implementation of
// the SummaryRequestStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSummaryRequestStore(db store.DBTX, log *slog.Logger) *PostgresSummaryRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresSummaryRequestStore{
		db:     db,
		logger: log.With(slog.String("component", "summary_request_store")),
	}
}

// Ensure PostgresSummaryRequestStore implements store.SummaryRequestStore
var _ store.SummaryRequestStore = (*PostgresSummaryRequestStore)(nil)

// WithTx implements store.SummaryRequestStore.WithTx
func (s *PostgresSummaryRequestStore) WithTx(tx *sql.Tx) store.SummaryRequestStore {
	return &PostgresSummaryRequestStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.SummaryRequestStore.Create
// Returns validation errors from the domain SummaryRequest if data is invalid.
func (s *PostgresSummaryRequestStore) Create(ctx context.Context, req *domain.SummaryRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		log.Warn("summary request validation failed during create",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	summaryJSON, err := marshalSummary(req.Summary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO summary_requests (id, email, audio_id, transcript_id, raw_transcript,
			send_at, status, attempts, last_error, lock_token, locked_at,
			transcript_text, summary_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		req.ID,
		req.Email,
		uuidOrNil(req.AudioID),
		uuidOrNil(req.TranscriptID),
		req.RawTranscript,
		req.SendAt,
		req.Status,
		req.Attempts,
		req.LastError,
		uuidOrNil(req.LockToken),
		req.LockedAt,
		req.TranscriptText,
		summaryJSON,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create summary request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.SummaryRequestStore.GetByID
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresSummaryRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + requestColumns + ` FROM summary_requests WHERE id = $1`

	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrRequestNotFound
		}
		log.Error("failed to get summary request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return nil, MapError(err)
	}

	return req, nil
}

// ClaimDue implements store.SummaryRequestStore.ClaimDue
//
// Selection and transition happen in one statement: the inner SELECT takes
// row locks with SKIP LOCKED so concurrent claimants never block on or
// double-claim the same rows, and the UPDATE moves the matched rows to
// processing before any other claimant can see them as pending. The outer
// SELECT restores send_at ordering, which UPDATE ... RETURNING does not
// guarantee.
func (s *PostgresSummaryRequestStore) ClaimDue(ctx context.Context, batchSize int) ([]*domain.SummaryRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if batchSize <= 0 {
		return nil, nil
	}

	lockToken := uuid.New()
	now := time.Now().UTC()

	query := `
		WITH claimed AS (
			UPDATE summary_requests
			SET status = $1, lock_token = $2, locked_at = $3,
				attempts = attempts + 1, updated_at = $3
			WHERE id IN (
				SELECT id FROM summary_requests
				WHERE status = $4 AND send_at <= $3
				ORDER BY send_at ASC
				LIMIT $5
				FOR UPDATE SKIP LOCKED
			)
			RETURNING ` + requestColumns + `
		)
		SELECT ` + requestColumns + ` FROM claimed ORDER BY send_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		domain.RequestStatusProcessing,
		lockToken,
		now,
		domain.RequestStatusPending,
		batchSize,
	)
	if err != nil {
		log.Error("failed to claim due requests",
			slog.String("error", err.Error()),
			slog.Int("batch_size", batchSize))
		return nil, store.NewStoreError("summary_request", "claim", "claim query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var claimed []*domain.SummaryRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, store.NewStoreError("summary_request", "claim", "failed to scan claimed row", err)
		}
		claimed = append(claimed, req)
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("summary_request", "claim", "error iterating claimed rows", err)
	}

	return claimed, nil
}

// CacheTranscript implements store.SummaryRequestStore.CacheTranscript
// Returns store.ErrStaleClaim if the lock token no longer matches.
func (s *PostgresSummaryRequestStore) CacheTranscript(
	ctx context.Context,
	id, lockToken uuid.UUID,
	transcriptID *uuid.UUID,
	text string,
) error {
	query := `
		UPDATE summary_requests
		SET transcript_text = $1,
			transcript_id = COALESCE($2, transcript_id),
			updated_at = $3
		WHERE id = $4 AND lock_token = $5 AND status = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		text,
		uuidOrNil(transcriptID),
		time.Now().UTC(),
		id,
		lockToken,
		domain.RequestStatusProcessing,
	)
	if err != nil {
		return store.NewStoreError("summary_request", "cache_transcript", "update failed", err)
	}

	return checkClaimStillHeld(result)
}

// MarkSent implements store.SummaryRequestStore.MarkSent
// Returns store.ErrStaleClaim if the lock token no longer matches.
func (s *PostgresSummaryRequestStore) MarkSent(ctx context.Context, id, lockToken uuid.UUID, summary *domain.Summary) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	summaryJSON, err := marshalSummary(summary)
	if err != nil {
		return err
	}

	query := `
		UPDATE summary_requests
		SET status = $1, summary_json = $2, last_error = NULL,
			lock_token = NULL, locked_at = NULL, updated_at = $3
		WHERE id = $4 AND lock_token = $5 AND status = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.RequestStatusSent,
		summaryJSON,
		time.Now().UTC(),
		id,
		lockToken,
		domain.RequestStatusProcessing,
	)
	if err != nil {
		log.Error("failed to mark summary request sent",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("summary_request", "mark_sent", "update failed", err)
	}

	return checkClaimStillHeld(result)
}

// MarkFailed implements store.SummaryRequestStore.MarkFailed
// Returns store.ErrStaleClaim if the lock token no longer matches.
func (s *PostgresSummaryRequestStore) MarkFailed(ctx context.Context, id, lockToken uuid.UUID, errMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE summary_requests
		SET status = $1, last_error = $2,
			lock_token = NULL, locked_at = NULL, updated_at = $3
		WHERE id = $4 AND lock_token = $5 AND status = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.RequestStatusFailed,
		truncateError(errMsg),
		time.Now().UTC(),
		id,
		lockToken,
		domain.RequestStatusProcessing,
	)
	if err != nil {
		log.Error("failed to mark summary request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("summary_request", "mark_failed", "update failed", err)
	}

	return checkClaimStillHeld(result)
}

// RescheduleRetry implements store.SummaryRequestStore.RescheduleRetry
// Returns store.ErrStaleClaim if the lock token no longer matches.
func (s *PostgresSummaryRequestStore) RescheduleRetry(
	ctx context.Context,
	id, lockToken uuid.UUID,
	errMsg string,
	nextSendAt time.Time,
) error {
	query := `
		UPDATE summary_requests
		SET status = $1, send_at = $2, last_error = $3,
			lock_token = NULL, locked_at = NULL, updated_at = $4
		WHERE id = $5 AND lock_token = $6 AND status = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.RequestStatusPending,
		nextSendAt.UTC(),
		truncateError(errMsg),
		time.Now().UTC(),
		id,
		lockToken,
		domain.RequestStatusProcessing,
	)
	if err != nil {
		return store.NewStoreError("summary_request", "reschedule_retry", "update failed", err)
	}

	return checkClaimStillHeld(result)
}

// ReclaimExpired implements store.SummaryRequestStore.ReclaimExpired
func (s *PostgresSummaryRequestStore) ReclaimExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		UPDATE summary_requests
		SET status = $1, lock_token = NULL, locked_at = NULL, updated_at = $2
		WHERE status = $3 AND locked_at < $4
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.RequestStatusPending,
		now,
		domain.RequestStatusProcessing,
		now.Add(-olderThan),
	)
	if err != nil {
		log.Error("failed to reclaim expired claims",
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("summary_request", "reclaim", "update failed", err)
	}

	reclaimed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return reclaimed, nil
}

// RequeueFailed implements store.SummaryRequestStore.RequeueFailed
// Returns store.ErrUpdateFailed if the request is not currently failed.
func (s *PostgresSummaryRequestStore) RequeueFailed(ctx context.Context, id uuid.UUID, sendAt time.Time) error {
	query := `
		UPDATE summary_requests
		SET status = $1, send_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.RequestStatusPending,
		sendAt.UTC(),
		time.Now().UTC(),
		id,
		domain.RequestStatusFailed,
	)
	if err != nil {
		return store.NewStoreError("summary_request", "requeue_failed", "update failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: request %s is not in failed state", store.ErrUpdateFailed, id)
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRequest hydrates one SummaryRequest from a row using the
// requestColumns order.
func scanRequest(row rowScanner) (*domain.SummaryRequest, error) {
	var (
		req            domain.SummaryRequest
		audioID        uuid.NullUUID
		transcriptID   uuid.NullUUID
		rawTranscript  sql.NullString
		lastError      sql.NullString
		lockToken      uuid.NullUUID
		lockedAt       sql.NullTime
		transcriptText sql.NullString
		summaryJSON    []byte
	)

	err := row.Scan(
		&req.ID,
		&req.Email,
		&audioID,
		&transcriptID,
		&rawTranscript,
		&req.SendAt,
		&req.Status,
		&req.Attempts,
		&lastError,
		&lockToken,
		&lockedAt,
		&transcriptText,
		&summaryJSON,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if audioID.Valid {
		req.AudioID = &audioID.UUID
	}
	if transcriptID.Valid {
		req.TranscriptID = &transcriptID.UUID
	}
	if rawTranscript.Valid {
		req.RawTranscript = &rawTranscript.String
	}
	if lastError.Valid {
		req.LastError = &lastError.String
	}
	if lockToken.Valid {
		req.LockToken = &lockToken.UUID
	}
	if lockedAt.Valid {
		t := lockedAt.Time
		req.LockedAt = &t
	}
	if transcriptText.Valid {
		req.TranscriptText = &transcriptText.String
	}
	if len(summaryJSON) > 0 {
		var summary domain.Summary
		if err := json.Unmarshal(summaryJSON, &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary payload: %w", err)
		}
		req.Summary = &summary
	}

	return &req, nil
}

// checkClaimStillHeld converts a zero-row token-gated update into
// store.ErrStaleClaim.
func checkClaimStillHeld(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrStaleClaim
	}
	return nil
}

// marshalSummary serializes an optional summary payload for the
// summary_json column.
func marshalSummary(summary *domain.Summary) ([]byte, error) {
	if summary == nil {
		return nil, nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary payload: %w", err)
	}
	return data, nil
}

// uuidOrNil adapts an optional UUID to a driver-friendly nullable value.
func uuidOrNil(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// maxErrorLength bounds stored error messages so provider responses cannot
// bloat the table.
const maxErrorLength = 2000

func truncateError(msg string) string {
	if len(msg) > maxErrorLength {
		return msg[:maxErrorLength]
	}
	return msg
}
