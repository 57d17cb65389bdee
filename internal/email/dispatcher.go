package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/platform/metrics"
	"github.com/phrazzld/voicebrief/internal/store"
)

// Dispatcher renders a summary into the message template, sends it, and
// records one EmailDelivery row per attempt. It never retries internally;
// a failure is reported once to the caller.
type Dispatcher struct {
	sender     Sender
	deliveries store.EmailDeliveryStore
	subject    string
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher.
// If log is nil, a default logger will be used.
func NewDispatcher(sender Sender, deliveries store.EmailDeliveryStore, subject string, log *slog.Logger) *Dispatcher {
	if sender == nil {
		panic("sender cannot be nil")
	}
	if deliveries == nil {
		panic("delivery store cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		sender:     sender,
		deliveries: deliveries,
		subject:    subject,
		logger:     log.With(slog.String("component", "email_dispatcher")),
	}
}

// Dispatch sends the summary email for the given request and appends a
// delivery row reflecting the outcome. The send error, if any, is returned
// after bookkeeping so the caller decides the request's terminal state.
func (d *Dispatcher) Dispatch(ctx context.Context, request *domain.SummaryRequest, summary *domain.Summary) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	msg := Message{
		To:       request.Email,
		Subject:  d.subject,
		TextPart: RenderText(summary),
		HTMLPart: RenderHTML(summary),
		CustomID: request.ID.String(),
	}

	start := time.Now()
	result, sendErr := d.sender.Send(ctx, msg)
	metrics.ObserveEmailSend(start, sendErr)

	var delivery *domain.EmailDelivery
	var deliveryErr error
	if sendErr != nil {
		delivery, deliveryErr = domain.NewFailedDelivery(request.ID, d.sender.Provider(), sendErr.Error())
	} else {
		delivery, deliveryErr = domain.NewSentDelivery(request.ID, d.sender.Provider(), result.MessageID)
	}

	if deliveryErr == nil {
		deliveryErr = d.deliveries.Create(ctx, delivery)
	}
	if deliveryErr != nil {
		// The email outcome is already decided; a bookkeeping failure must
		// not flip a delivered message into a retried request.
		log.Error("failed to record email delivery",
			slog.String("error", deliveryErr.Error()),
			slog.String("request_id", request.ID.String()))
	}

	if sendErr != nil {
		log.Warn("summary email send failed",
			slog.String("error", sendErr.Error()),
			slog.String("request_id", request.ID.String()))
		return sendErr
	}

	log.Info("summary email sent",
		slog.String("request_id", request.ID.String()),
		slog.String("provider", d.sender.Provider()),
		slog.String("message_id", result.MessageID))

	return nil
}
