package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/voicebrief/internal/domain"
)

func TestNewSummaryRequest(t *testing.T) {
	t.Parallel()

	sendAt := time.Now().Add(time.Hour)

	t.Run("creates pending request with raw text source", func(t *testing.T) {
		t.Parallel()

		req, err := domain.NewSummaryRequest("user@example.com", domain.RawTextSource("hello world"), sendAt)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, req.ID)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		assert.Equal(t, 0, req.Attempts)
		require.NotNil(t, req.RawTranscript)
		assert.Equal(t, "hello world", *req.RawTranscript)
		assert.Nil(t, req.TranscriptID)
		assert.Nil(t, req.AudioID)
	})

	t.Run("creates request with audio source", func(t *testing.T) {
		t.Parallel()

		audioID := uuid.New()
		req, err := domain.NewSummaryRequest("user@example.com", domain.AudioRefSource(audioID), sendAt)
		require.NoError(t, err)

		require.NotNil(t, req.AudioID)
		assert.Equal(t, audioID, *req.AudioID)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewSummaryRequest("  ", domain.RawTextSource("hello"), sendAt)
		assert.ErrorIs(t, err, domain.ErrEmptyRequestEmail)
	})

	t.Run("rejects zero send time", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewSummaryRequest("user@example.com", domain.RawTextSource("hello"), time.Time{})
		assert.ErrorIs(t, err, domain.ErrZeroRequestSendAt)
	})
}

func TestSummaryRequestResolveSource(t *testing.T) {
	t.Parallel()

	base := func() *domain.SummaryRequest {
		return &domain.SummaryRequest{
			ID:     uuid.New(),
			Email:  "user@example.com",
			SendAt: time.Now(),
			Status: domain.RequestStatusProcessing,
		}
	}

	strPtr := func(s string) *string { return &s }
	idPtr := func(id uuid.UUID) *uuid.UUID { return &id }

	t.Run("raw text wins over other sources", func(t *testing.T) {
		t.Parallel()

		req := base()
		req.RawTranscript = strPtr("inline text")
		req.TranscriptID = idPtr(uuid.New())
		req.AudioID = idPtr(uuid.New())

		source, err := req.ResolveSource()
		require.NoError(t, err)
		assert.Equal(t, domain.SourceRawText, source.Kind)
		assert.Equal(t, "inline text", source.RawText)
	})

	t.Run("blank raw text falls through to transcript reference", func(t *testing.T) {
		t.Parallel()

		transcriptID := uuid.New()
		req := base()
		req.RawTranscript = strPtr("   ")
		req.TranscriptID = idPtr(transcriptID)

		source, err := req.ResolveSource()
		require.NoError(t, err)
		assert.Equal(t, domain.SourceTranscriptRef, source.Kind)
		assert.Equal(t, transcriptID, source.TranscriptID)
	})

	t.Run("audio reference is the last resort", func(t *testing.T) {
		t.Parallel()

		audioID := uuid.New()
		req := base()
		req.AudioID = idPtr(audioID)

		source, err := req.ResolveSource()
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAudioRef, source.Kind)
		assert.Equal(t, audioID, source.AudioID)
	})

	t.Run("no source is an error", func(t *testing.T) {
		t.Parallel()

		_, err := base().ResolveSource()
		assert.ErrorIs(t, err, domain.ErrNoTranscriptSource)
	})
}

func TestSummaryRequestIsTerminal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status   domain.RequestStatus
		terminal bool
	}{
		{domain.RequestStatusPending, false},
		{domain.RequestStatusProcessing, false},
		{domain.RequestStatusSent, true},
		{domain.RequestStatusFailed, true},
	}

	for _, tc := range cases {
		req := &domain.SummaryRequest{Status: tc.status}
		assert.Equal(t, tc.terminal, req.IsTerminal(), "status %s", tc.status)
	}
}

func TestSummaryValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts three to five bullets", func(t *testing.T) {
		t.Parallel()

		summary := &domain.Summary{
			Bullets:  []string{"one", "two", "three"},
			NextStep: "do something",
		}
		assert.NoError(t, summary.Validate())
	})

	t.Run("rejects too few bullets", func(t *testing.T) {
		t.Parallel()

		summary := &domain.Summary{
			Bullets:  []string{"one", "two"},
			NextStep: "do something",
		}
		assert.Error(t, summary.Validate())
	})

	t.Run("rejects too many bullets", func(t *testing.T) {
		t.Parallel()

		summary := &domain.Summary{
			Bullets:  []string{"1", "2", "3", "4", "5", "6"},
			NextStep: "do something",
		}
		assert.Error(t, summary.Validate())
	})

	t.Run("rejects empty next step", func(t *testing.T) {
		t.Parallel()

		summary := &domain.Summary{
			Bullets:  []string{"one", "two", "three"},
			NextStep: " ",
		}
		assert.Error(t, summary.Validate())
	})
}
