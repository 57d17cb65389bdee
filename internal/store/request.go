package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
)

// SummaryRequestStore defines the interface for summary request
// persistence, including the atomic claim operation the worker loop is
// built on.
//
// Every method that transitions a record out of the processing state takes
// the lock token issued at claim time and must apply the write only if the
// stored token still matches (compare-and-swap). A mismatch returns
// ErrStaleClaim, which callers are expected to drop silently: it means
// another owner already completed or reclaimed the record.
type SummaryRequestStore interface {
	// Create saves a new summary request to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, req *domain.SummaryRequest) error

	// GetByID retrieves a summary request by its unique ID.
	// Returns ErrRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryRequest, error)

	// ClaimDue atomically selects up to batchSize pending requests whose
	// send time has passed (ordered by send time ascending), transitions
	// them to processing with a freshly generated lock token and an
	// incremented attempt count, and returns the post-transition rows.
	// Rows locked by a concurrent claimant are skipped, never waited on,
	// so concurrent calls return disjoint sets and the call returns
	// promptly even under contention.
	ClaimDue(ctx context.Context, batchSize int) ([]*domain.SummaryRequest, error)

	// CacheTranscript persists resolved transcript text (and, for
	// audio-sourced resolutions, the backfilled transcript reference)
	// onto a processing request so a later claim of the same record skips
	// re-transcription. Token-gated; returns ErrStaleClaim on mismatch.
	CacheTranscript(ctx context.Context, id, lockToken uuid.UUID, transcriptID *uuid.UUID, text string) error

	// MarkSent transitions a processing request to the terminal sent
	// state, storing the summary payload, clearing the lock fields and
	// any previous error. Token-gated; returns ErrStaleClaim on mismatch.
	MarkSent(ctx context.Context, id, lockToken uuid.UUID, summary *domain.Summary) error

	// MarkFailed transitions a processing request to the terminal failed
	// state with the given error message, clearing the lock fields.
	// Token-gated; returns ErrStaleClaim on mismatch.
	MarkFailed(ctx context.Context, id, lockToken uuid.UUID, errMsg string) error

	// RescheduleRetry returns a processing request to pending with a new
	// send time, recording the error message while keeping attempts and
	// any cached transcript intact. Token-gated; returns ErrStaleClaim on
	// mismatch.
	RescheduleRetry(ctx context.Context, id, lockToken uuid.UUID, errMsg string, nextSendAt time.Time) error

	// ReclaimExpired returns processing requests whose lock is older than
	// olderThan back to pending, clearing the lock fields so they become
	// eligible for a fresh claim. Attempts are not touched here; they
	// increment on the next claim. Returns the number of reclaimed rows.
	ReclaimExpired(ctx context.Context, olderThan time.Duration) (int64, error)

	// RequeueFailed explicitly resubmits a terminal failed request by
	// transitioning it back to pending with the given send time. Only the
	// failed -> pending transition is permitted; any other current status
	// returns ErrUpdateFailed.
	RequeueFailed(ctx context.Context, id uuid.UUID, sendAt time.Time) error

	// WithTx returns a new SummaryRequestStore instance that uses the
	// provided transaction. The transaction is created and managed by the
	// caller.
	WithTx(tx *sql.Tx) SummaryRequestStore
}
