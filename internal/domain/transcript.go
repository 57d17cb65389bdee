package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Transcript
var (
	ErrEmptyTranscriptID   = errors.New("transcript ID cannot be empty")
	ErrEmptyTranscriptText = errors.New("transcript text cannot be empty")
)

// Transcript is the persisted text form of a voice note. It is either
// written by the transcription stage of the worker (with AudioID set to
// the source asset) or created upstream by the API.
type Transcript struct {
	ID        uuid.UUID  `json:"id"`
	AudioID   *uuid.UUID `json:"audio_id,omitempty"`
	Text      string     `json:"text"`
	Provider  string     `json:"provider"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewTranscript creates a Transcript produced by the given provider from
// the given audio asset. Returns an error if validation fails.
func NewTranscript(audioID uuid.UUID, text, provider string) (*Transcript, error) {
	transcript := &Transcript{
		ID:        uuid.New(),
		AudioID:   &audioID,
		Text:      text,
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}

	if err := transcript.Validate(); err != nil {
		return nil, err
	}

	return transcript, nil
}

// Validate checks if the Transcript has valid data.
func (t *Transcript) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTranscriptID
	}

	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyTranscriptText
	}

	return nil
}
