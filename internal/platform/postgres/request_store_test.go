package postgres

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/store"
	"github.com/phrazzld/voicebrief/migrations"
)

func TestTruncateError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short error", truncateError("short error"))

	long := strings.Repeat("x", maxErrorLength+500)
	truncated := truncateError(long)
	assert.Len(t, truncated, maxErrorLength)
	assert.Equal(t, long[:maxErrorLength], truncated)
}

// newTestDB opens the integration database named by DATABASE_URL, applies
// migrations, and empties the tables. Tests that need it are skipped when
// the variable is unset.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Ping())

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."))

	_, err = db.Exec(`TRUNCATE email_deliveries, summary_requests, transcripts, audio_assets`)
	require.NoError(t, err)

	return db
}

func insertPendingRequest(t *testing.T, s store.SummaryRequestStore, sendAt time.Time) *domain.SummaryRequest {
	t.Helper()

	req, err := domain.NewSummaryRequest("user@example.com", domain.RawTextSource("Plan the rollout. Review the docs. Ship it."), sendAt)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), req))
	return req
}

func TestClaimDueConcurrentClaimants(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	insertPendingRequest(t, s, time.Now().UTC().Add(-time.Minute))

	// Two claimants race for a single due record: exactly one wins.
	var wg sync.WaitGroup
	results := make([][]*domain.SummaryRequest, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.ClaimDue(ctx, 1)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, len(results[0])+len(results[1]))

	var winner *domain.SummaryRequest
	if len(results[0]) == 1 {
		winner = results[0][0]
	} else {
		winner = results[1][0]
	}
	assert.Equal(t, domain.RequestStatusProcessing, winner.Status)
	assert.Equal(t, 1, winner.Attempts)
	require.NotNil(t, winner.LockToken)
	require.NotNil(t, winner.LockedAt)
}

func TestClaimDueSkipsFutureAndTerminalRequests(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	due := insertPendingRequest(t, s, time.Now().UTC().Add(-time.Minute))
	insertPendingRequest(t, s, time.Now().UTC().Add(time.Hour))

	claims, err := s.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, due.ID, claims[0].ID)
}

func TestMarkSentLifecycle(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	req := insertPendingRequest(t, s, time.Now().UTC().Add(-time.Minute))

	claims, err := s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	claim := claims[0]

	require.NoError(t, s.CacheTranscript(ctx, claim.ID, *claim.LockToken, nil, "resolved text"))

	summary := &domain.Summary{
		Bullets:  []string{"Plan the rollout.", "Review the docs.", "Ship it."},
		NextStep: "Plan the rollout.",
	}
	require.NoError(t, s.MarkSent(ctx, claim.ID, *claim.LockToken, summary))

	stored, err := s.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusSent, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Nil(t, stored.LockToken)
	assert.Nil(t, stored.LockedAt)
	assert.Nil(t, stored.LastError)
	require.NotNil(t, stored.TranscriptText)
	assert.Equal(t, "resolved text", *stored.TranscriptText)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, summary.Bullets, stored.Summary.Bullets)
	assert.Equal(t, summary.NextStep, stored.Summary.NextStep)
}

func TestTerminalWriteWithStaleTokenIsRejected(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	req := insertPendingRequest(t, s, time.Now().UTC().Add(-time.Minute))

	claims, err := s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	staleToken := *claims[0].LockToken

	// The lease expires and the record is reclaimed, then re-claimed by
	// another worker.
	count, err := s.ReclaimExpired(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	reclaims, err := s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reclaims, 1)
	assert.Equal(t, 2, reclaims[0].Attempts)

	// The original claimant's terminal write must be rejected.
	summary := &domain.Summary{
		Bullets:  []string{"a point", "b point", "c point"},
		NextStep: "do it",
	}
	err = s.MarkSent(ctx, req.ID, staleToken, summary)
	assert.ErrorIs(t, err, store.ErrStaleClaim)

	err = s.MarkFailed(ctx, req.ID, staleToken, "boom")
	assert.ErrorIs(t, err, store.ErrStaleClaim)

	err = s.RescheduleRetry(ctx, req.ID, staleToken, "boom", time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrStaleClaim)

	// The new claimant still holds a valid claim.
	require.NoError(t, s.MarkSent(ctx, req.ID, *reclaims[0].LockToken, summary))
}

func TestRescheduleRetryReturnsRequestToPending(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	req := insertPendingRequest(t, s, time.Now().UTC().Add(-time.Minute))

	claims, err := s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claims, 1)

	nextSendAt := time.Now().UTC().Add(2 * time.Minute)
	require.NoError(t, s.RescheduleRetry(ctx, req.ID, *claims[0].LockToken, "transient failure", nextSendAt))

	stored, err := s.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Nil(t, stored.LockToken)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "transient failure", *stored.LastError)
	assert.WithinDuration(t, nextSendAt, stored.SendAt, time.Second)

	// Not due yet, so a fresh claim finds nothing.
	claims, err = s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestRequeueFailedOnlyFromFailedState(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	req := insertPendingRequest(t, s, time.Now().UTC().Add(-time.Minute))

	// Only failed requests may be resubmitted.
	err := s.RequeueFailed(ctx, req.ID, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrUpdateFailed)

	claims, err := s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	require.NoError(t, s.MarkFailed(ctx, req.ID, *claims[0].LockToken, "exhausted attempts"))

	require.NoError(t, s.RequeueFailed(ctx, req.ID, time.Now().UTC().Add(-time.Second)))

	stored, err := s.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)
}

func TestTranscriptSaverBackfillsRequest(t *testing.T) {
	db := newTestDB(t)
	s := NewPostgresSummaryRequestStore(db, nil)
	ctx := context.Background()

	// Seed an audio asset and a request pointing at it.
	audio := &domain.AudioAsset{
		ID:          uuid.New(),
		StoragePath: "notes/recording.ogg",
		ContentType: "audio/ogg",
		Data:        []byte{0x4f, 0x67, 0x67},
		CreatedAt:   time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO audio_assets (id, storage_path, content_type, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		audio.ID, audio.StoragePath, audio.ContentType, audio.Data, audio.CreatedAt,
	)
	require.NoError(t, err)

	req, err := domain.NewSummaryRequest("user@example.com", domain.AudioRefSource(audio.ID), time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, req))

	claims, err := s.ClaimDue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	claim := claims[0]

	saver := NewTranscriptSaver(db, nil)
	transcriptID, err := saver.SaveResolvedTranscript(ctx, claim.ID, *claim.LockToken, audio.ID, "gemini", "spoken words")
	require.NoError(t, err)

	stored, err := s.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TranscriptID)
	assert.Equal(t, transcriptID, *stored.TranscriptID)
	require.NotNil(t, stored.TranscriptText)
	assert.Equal(t, "spoken words", *stored.TranscriptText)

	transcripts := NewPostgresTranscriptStore(db, nil)
	text, err := transcripts.GetText(ctx, transcriptID)
	require.NoError(t, err)
	assert.Equal(t, "spoken words", text)
}
