package worker

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/store"
)

// mockRequestStore is a function-field mock of store.SummaryRequestStore.
// Unset methods fail loudly so tests only exercise what they stub.
type mockRequestStore struct {
	createFn          func(ctx context.Context, req *domain.SummaryRequest) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.SummaryRequest, error)
	claimDueFn        func(ctx context.Context, batchSize int) ([]*domain.SummaryRequest, error)
	cacheTranscriptFn func(ctx context.Context, id, lockToken uuid.UUID, transcriptID *uuid.UUID, text string) error
	markSentFn        func(ctx context.Context, id, lockToken uuid.UUID, summary *domain.Summary) error
	markFailedFn      func(ctx context.Context, id, lockToken uuid.UUID, errMsg string) error
	rescheduleFn      func(ctx context.Context, id, lockToken uuid.UUID, errMsg string, nextSendAt time.Time) error
	reclaimExpiredFn  func(ctx context.Context, olderThan time.Duration) (int64, error)
	requeueFailedFn   func(ctx context.Context, id uuid.UUID, sendAt time.Time) error
}

var _ store.SummaryRequestStore = (*mockRequestStore)(nil)

func (m *mockRequestStore) Create(ctx context.Context, req *domain.SummaryRequest) error {
	if m.createFn == nil {
		panic("unexpected call to Create")
	}
	return m.createFn(ctx, req)
}

func (m *mockRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryRequest, error) {
	if m.getByIDFn == nil {
		panic("unexpected call to GetByID")
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockRequestStore) ClaimDue(ctx context.Context, batchSize int) ([]*domain.SummaryRequest, error) {
	if m.claimDueFn == nil {
		panic("unexpected call to ClaimDue")
	}
	return m.claimDueFn(ctx, batchSize)
}

func (m *mockRequestStore) CacheTranscript(
	ctx context.Context,
	id, lockToken uuid.UUID,
	transcriptID *uuid.UUID,
	text string,
) error {
	if m.cacheTranscriptFn == nil {
		panic("unexpected call to CacheTranscript")
	}
	return m.cacheTranscriptFn(ctx, id, lockToken, transcriptID, text)
}

func (m *mockRequestStore) MarkSent(ctx context.Context, id, lockToken uuid.UUID, summary *domain.Summary) error {
	if m.markSentFn == nil {
		panic("unexpected call to MarkSent")
	}
	return m.markSentFn(ctx, id, lockToken, summary)
}

func (m *mockRequestStore) MarkFailed(ctx context.Context, id, lockToken uuid.UUID, errMsg string) error {
	if m.markFailedFn == nil {
		panic("unexpected call to MarkFailed")
	}
	return m.markFailedFn(ctx, id, lockToken, errMsg)
}

func (m *mockRequestStore) RescheduleRetry(
	ctx context.Context,
	id, lockToken uuid.UUID,
	errMsg string,
	nextSendAt time.Time,
) error {
	if m.rescheduleFn == nil {
		panic("unexpected call to RescheduleRetry")
	}
	return m.rescheduleFn(ctx, id, lockToken, errMsg, nextSendAt)
}

func (m *mockRequestStore) ReclaimExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	if m.reclaimExpiredFn == nil {
		panic("unexpected call to ReclaimExpired")
	}
	return m.reclaimExpiredFn(ctx, olderThan)
}

func (m *mockRequestStore) RequeueFailed(ctx context.Context, id uuid.UUID, sendAt time.Time) error {
	if m.requeueFailedFn == nil {
		panic("unexpected call to RequeueFailed")
	}
	return m.requeueFailedFn(ctx, id, sendAt)
}

func (m *mockRequestStore) WithTx(_ *sql.Tx) store.SummaryRequestStore {
	return m
}

// mockTranscriptStore is a function-field mock of store.TranscriptStore.
type mockTranscriptStore struct {
	createFn  func(ctx context.Context, transcript *domain.Transcript) error
	getTextFn func(ctx context.Context, id uuid.UUID) (string, error)
}

var _ store.TranscriptStore = (*mockTranscriptStore)(nil)

func (m *mockTranscriptStore) Create(ctx context.Context, transcript *domain.Transcript) error {
	if m.createFn == nil {
		panic("unexpected call to Create")
	}
	return m.createFn(ctx, transcript)
}

func (m *mockTranscriptStore) GetText(ctx context.Context, id uuid.UUID) (string, error) {
	if m.getTextFn == nil {
		panic("unexpected call to GetText")
	}
	return m.getTextFn(ctx, id)
}

func (m *mockTranscriptStore) WithTx(_ *sql.Tx) store.TranscriptStore {
	return m
}

// mockAssetStore is a function-field mock of store.AudioAssetStore.
type mockAssetStore struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*domain.AudioAsset, error)
}

var _ store.AudioAssetStore = (*mockAssetStore)(nil)

func (m *mockAssetStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AudioAsset, error) {
	if m.getByIDFn == nil {
		panic("unexpected call to GetByID")
	}
	return m.getByIDFn(ctx, id)
}

// mockTranscriber is a function-field mock of Transcriber.
type mockTranscriber struct {
	transcribeFn func(ctx context.Context, data []byte, contentType string) (string, error)
}

var _ Transcriber = (*mockTranscriber)(nil)

func (m *mockTranscriber) Transcribe(ctx context.Context, data []byte, contentType string) (string, error) {
	if m.transcribeFn == nil {
		panic("unexpected call to Transcribe")
	}
	return m.transcribeFn(ctx, data, contentType)
}

func (m *mockTranscriber) Provider() string {
	return "mock"
}

// mockSaver is a function-field mock of TranscriptSaver.
type mockSaver struct {
	saveFn func(ctx context.Context, requestID, lockToken, audioID uuid.UUID, provider, text string) (uuid.UUID, error)
}

var _ TranscriptSaver = (*mockSaver)(nil)

func (m *mockSaver) SaveResolvedTranscript(
	ctx context.Context,
	requestID, lockToken, audioID uuid.UUID,
	provider, text string,
) (uuid.UUID, error) {
	if m.saveFn == nil {
		panic("unexpected call to SaveResolvedTranscript")
	}
	return m.saveFn(ctx, requestID, lockToken, audioID, provider, text)
}

// mockResolver is a function-field mock of TranscriptResolver.
type mockResolver struct {
	resolveFn func(ctx context.Context, claim *domain.SummaryRequest) (string, error)
}

var _ TranscriptResolver = (*mockResolver)(nil)

func (m *mockResolver) Resolve(ctx context.Context, claim *domain.SummaryRequest) (string, error) {
	if m.resolveFn == nil {
		panic("unexpected call to Resolve")
	}
	return m.resolveFn(ctx, claim)
}

// mockSummarizer is a function-field mock of Summarizer.
type mockSummarizer struct {
	summarizeFn func(transcript string) (*domain.Summary, error)
}

var _ Summarizer = (*mockSummarizer)(nil)

func (m *mockSummarizer) Summarize(transcript string) (*domain.Summary, error) {
	if m.summarizeFn == nil {
		panic("unexpected call to Summarize")
	}
	return m.summarizeFn(transcript)
}

// mockDispatcher is a function-field mock of EmailDispatcher.
type mockDispatcher struct {
	dispatchFn func(ctx context.Context, request *domain.SummaryRequest, summary *domain.Summary) error
}

var _ EmailDispatcher = (*mockDispatcher)(nil)

func (m *mockDispatcher) Dispatch(ctx context.Context, request *domain.SummaryRequest, summary *domain.Summary) error {
	if m.dispatchFn == nil {
		panic("unexpected call to Dispatch")
	}
	return m.dispatchFn(ctx, request, summary)
}

// claimedRequest builds a processing request holding a fresh lock token.
func claimedRequest(attempts int) *domain.SummaryRequest {
	token := uuid.New()
	now := time.Now().UTC()
	return &domain.SummaryRequest{
		ID:        uuid.New(),
		Email:     "user@example.com",
		SendAt:    now.Add(-time.Minute),
		Status:    domain.RequestStatusProcessing,
		Attempts:  attempts,
		LockToken: &token,
		LockedAt:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func strPtr(s string) *string { return &s }

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func validSummary() *domain.Summary {
	return &domain.Summary{
		Bullets:  []string{"first point", "second point", "third point"},
		NextStep: "follow up with the team",
	}
}
