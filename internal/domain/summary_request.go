package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the processing state of a summary request
type RequestStatus string

// Possible request status values
const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusSent       RequestStatus = "sent"
	RequestStatusFailed     RequestStatus = "failed"
)

// Common validation errors for SummaryRequest
var (
	ErrEmptyRequestID       = errors.New("summary request ID cannot be empty")
	ErrEmptyRequestEmail    = errors.New("summary request email cannot be empty")
	ErrZeroRequestSendAt    = errors.New("summary request send time cannot be zero")
	ErrInvalidRequestStatus = errors.New("invalid summary request status")
)

// SummaryRequest is the central entity of the pipeline: a recorded voice
// note that should be summarized and emailed at (or after) SendAt. It is
// created in pending state by the API, claimed into processing by a worker,
// and finished in a terminal sent or failed state. Records are never
// deleted; they double as an audit trail.
//
// While a record is in processing it holds a non-nil LockToken identifying
// the claiming worker; every write that leaves the processing state is
// conditioned on that token still matching.
type SummaryRequest struct {
	ID             uuid.UUID     `json:"id"`
	Email          string        `json:"email"`
	AudioID        *uuid.UUID    `json:"audio_id,omitempty"`
	TranscriptID   *uuid.UUID    `json:"transcript_id,omitempty"`
	RawTranscript  *string       `json:"raw_transcript,omitempty"`
	SendAt         time.Time     `json:"send_at"`
	Status         RequestStatus `json:"status"`
	Attempts       int           `json:"attempts"`
	LastError      *string       `json:"last_error,omitempty"`
	LockToken      *uuid.UUID    `json:"lock_token,omitempty"`
	LockedAt       *time.Time    `json:"locked_at,omitempty"`
	TranscriptText *string       `json:"transcript_text,omitempty"`
	Summary        *Summary      `json:"summary,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewSummaryRequest creates a new SummaryRequest in pending state with the
// given recipient, transcript source, and scheduled send time.
// Returns an error if validation fails.
func NewSummaryRequest(email string, source TranscriptSource, sendAt time.Time) (*SummaryRequest, error) {
	req := &SummaryRequest{
		ID:        uuid.New(),
		Email:     email,
		SendAt:    sendAt.UTC(),
		Status:    RequestStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	switch source.Kind {
	case SourceRawText:
		raw := source.RawText
		req.RawTranscript = &raw
	case SourceTranscriptRef:
		id := source.TranscriptID
		req.TranscriptID = &id
	case SourceAudioRef:
		id := source.AudioID
		req.AudioID = &id
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the SummaryRequest has valid data.
// Returns an error if any field fails validation.
func (r *SummaryRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRequestID
	}

	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyRequestEmail
	}

	if r.SendAt.IsZero() {
		return ErrZeroRequestSendAt
	}

	if !isValidRequestStatus(r.Status) {
		return ErrInvalidRequestStatus
	}

	return nil
}

// IsTerminal reports whether the request has reached a terminal state.
// Terminal records are never transitioned again without an explicit
// external resubmission.
func (r *SummaryRequest) IsTerminal() bool {
	return r.Status == RequestStatusSent || r.Status == RequestStatusFailed
}

// ResolveSource maps the three optional transcript references onto an
// explicit tagged source, checked in priority order: inline raw text,
// existing transcript reference, audio reference.
// Returns ErrNoTranscriptSource when none of the three is present.
func (r *SummaryRequest) ResolveSource() (TranscriptSource, error) {
	switch {
	case r.RawTranscript != nil && strings.TrimSpace(*r.RawTranscript) != "":
		return TranscriptSource{Kind: SourceRawText, RawText: strings.TrimSpace(*r.RawTranscript)}, nil
	case r.TranscriptID != nil && *r.TranscriptID != uuid.Nil:
		return TranscriptSource{Kind: SourceTranscriptRef, TranscriptID: *r.TranscriptID}, nil
	case r.AudioID != nil && *r.AudioID != uuid.Nil:
		return TranscriptSource{Kind: SourceAudioRef, AudioID: *r.AudioID}, nil
	default:
		return TranscriptSource{}, ErrNoTranscriptSource
	}
}

// isValidRequestStatus checks if the given status is a valid RequestStatus.
func isValidRequestStatus(status RequestStatus) bool {
	switch status {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusSent, RequestStatusFailed:
		return true
	default:
		return false
	}
}
