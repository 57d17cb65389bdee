// Package domain defines the core business entities and errors.
package domain

import "errors"

// Pipeline failure kinds. These classify why a claimed request could not
// be driven to a sent state; the worker records them (wrapped with stage
// detail) as the request's last_error.
var (
	// ErrNoTranscriptSource is returned when the request carries none of
	// the three transcript sources (raw text, transcript reference, audio
	// reference). Retrying cannot fix it.
	ErrNoTranscriptSource = errors.New("no transcript or audio reference available")

	// ErrAudioUnavailable is returned when the referenced audio asset is
	// missing or unreadable.
	ErrAudioUnavailable = errors.New("audio asset unavailable")

	// ErrTranscriptionFailed is returned when the transcription capability
	// fails or produces no usable text.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrEmptyTranscript is returned when the resolved transcript is blank
	// or whitespace-only and cannot be summarized.
	ErrEmptyTranscript = errors.New("transcript is empty")
)
