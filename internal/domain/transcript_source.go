package domain

import "github.com/google/uuid"

// SourceKind identifies which of the three transcript sources a request
// carries.
type SourceKind string

// Possible transcript source kinds
const (
	SourceRawText       SourceKind = "raw_text"
	SourceTranscriptRef SourceKind = "transcript_ref"
	SourceAudioRef      SourceKind = "audio_ref"
)

// TranscriptSource is an explicit tagged variant of the three ways a
// request can provide transcript material. Exactly one of the payload
// fields is meaningful, selected by Kind.
type TranscriptSource struct {
	Kind         SourceKind
	RawText      string
	TranscriptID uuid.UUID
	AudioID      uuid.UUID
}

// RawTextSource builds a source from inline transcript text.
func RawTextSource(text string) TranscriptSource {
	return TranscriptSource{Kind: SourceRawText, RawText: text}
}

// TranscriptRefSource builds a source referencing an existing transcript.
func TranscriptRefSource(id uuid.UUID) TranscriptSource {
	return TranscriptSource{Kind: SourceTranscriptRef, TranscriptID: id}
}

// AudioRefSource builds a source referencing a stored audio asset.
func AudioRefSource(id uuid.UUID) TranscriptSource {
	return TranscriptSource{Kind: SourceAudioRef, AudioID: id}
}
