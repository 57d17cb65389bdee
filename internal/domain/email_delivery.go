package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus represents the outcome of a single email send attempt
type DeliveryStatus string

// Possible delivery status values
const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Common validation errors for EmailDelivery
var (
	ErrEmptyDeliveryID        = errors.New("email delivery ID cannot be empty")
	ErrEmptyDeliveryRequestID = errors.New("email delivery request ID cannot be empty")
	ErrEmptyDeliveryProvider  = errors.New("email delivery provider cannot be empty")
	ErrInvalidDeliveryStatus  = errors.New("invalid email delivery status")
)

// EmailDelivery is an append-only record of one email send attempt for a
// summary request. Multiple deliveries may exist per request (one per
// attempt); they are never updated after insertion.
type EmailDelivery struct {
	ID        uuid.UUID      `json:"id"`
	RequestID uuid.UUID      `json:"request_id"`
	Provider  string         `json:"provider"`
	MessageID *string        `json:"message_id,omitempty"`
	Status    DeliveryStatus `json:"status"`
	Error     *string        `json:"error,omitempty"`
	SentAt    *time.Time     `json:"sent_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewSentDelivery creates a delivery record for a successful send.
func NewSentDelivery(requestID uuid.UUID, provider, messageID string) (*EmailDelivery, error) {
	now := time.Now().UTC()
	delivery := &EmailDelivery{
		ID:        uuid.New(),
		RequestID: requestID,
		Provider:  provider,
		MessageID: &messageID,
		Status:    DeliveryStatusSent,
		SentAt:    &now,
		CreatedAt: now,
	}

	if err := delivery.Validate(); err != nil {
		return nil, err
	}

	return delivery, nil
}

// NewFailedDelivery creates a delivery record for a failed send attempt.
func NewFailedDelivery(requestID uuid.UUID, provider, errMsg string) (*EmailDelivery, error) {
	delivery := &EmailDelivery{
		ID:        uuid.New(),
		RequestID: requestID,
		Provider:  provider,
		Status:    DeliveryStatusFailed,
		Error:     &errMsg,
		CreatedAt: time.Now().UTC(),
	}

	if err := delivery.Validate(); err != nil {
		return nil, err
	}

	return delivery, nil
}

// Validate checks if the EmailDelivery has valid data.
// Returns an error if any field fails validation.
func (d *EmailDelivery) Validate() error {
	if d.ID == uuid.Nil {
		return ErrEmptyDeliveryID
	}

	if d.RequestID == uuid.Nil {
		return ErrEmptyDeliveryRequestID
	}

	if d.Provider == "" {
		return ErrEmptyDeliveryProvider
	}

	switch d.Status {
	case DeliveryStatusSent, DeliveryStatusFailed:
	default:
		return ErrInvalidDeliveryStatus
	}

	return nil
}
