// Package email renders summary emails and sends them through an ESP,
// recording one delivery row per attempt.
package email

import (
	"context"
	"errors"
)

// ErrSendFailed indicates the provider rejected or failed to accept a
// message. Wrapped errors carry the provider detail.
var ErrSendFailed = errors.New("email send failed")

// Message is a fully rendered email ready for the provider.
type Message struct {
	To       string
	Subject  string
	TextPart string
	HTMLPart string
	CustomID string
}

// SendResult captures the provider's acknowledgement of an accepted message.
type SendResult struct {
	MessageID    string
	Status       string
	MessageHref  string
	MessageState string
}

// Sender sends rendered messages through a specific email provider.
type Sender interface {
	// Send delivers the message. Returns ErrSendFailed (wrapped) when the
	// provider rejects it.
	Send(ctx context.Context, msg Message) (*SendResult, error)

	// Provider returns the identifier recorded on delivery rows.
	Provider() string
}
