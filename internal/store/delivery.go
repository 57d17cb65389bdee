package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/voicebrief/internal/domain"
)

// EmailDeliveryStore defines the interface for the append-only email
// delivery log. Rows are inserted once per send attempt and never updated.
type EmailDeliveryStore interface {
	// Create appends a delivery record.
	// It handles domain validation internally.
	Create(ctx context.Context, delivery *domain.EmailDelivery) error

	// ListByRequest retrieves all delivery records for a request, oldest
	// first. Returns an empty slice if none exist.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.EmailDelivery, error)

	// WithTx returns a new EmailDeliveryStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) EmailDeliveryStore
}
