package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/platform/metrics"
	"github.com/phrazzld/voicebrief/internal/store"
)

// TranscriptResolver produces transcript text for a claimed request.
type TranscriptResolver interface {
	Resolve(ctx context.Context, claim *domain.SummaryRequest) (string, error)
}

// Summarizer turns transcript text into a summary payload.
type Summarizer interface {
	Summarize(transcript string) (*domain.Summary, error)
}

// EmailDispatcher sends the rendered summary and records the delivery
// outcome.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, request *domain.SummaryRequest, summary *domain.Summary) error
}

// Processor runs the pipeline for a single claimed request: resolve the
// transcript, summarize it, dispatch the email, and write the terminal
// state. Every terminal write is gated on the claim's lock token; a stale
// claim result is dropped silently because another owner already finished
// or reclaimed the record.
type Processor struct {
	requests   store.SummaryRequestStore
	resolver   TranscriptResolver
	summarizer Summarizer
	dispatcher EmailDispatcher
	policy     RetryPolicy
	logger     *slog.Logger
}

// NewProcessor creates a Processor.
// If log is nil, a default logger will be used.
func NewProcessor(
	requests store.SummaryRequestStore,
	resolver TranscriptResolver,
	summarizer Summarizer,
	dispatcher EmailDispatcher,
	policy RetryPolicy,
	log *slog.Logger,
) *Processor {
	if requests == nil {
		panic("request store cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Processor{
		requests:   requests,
		resolver:   resolver,
		summarizer: summarizer,
		dispatcher: dispatcher,
		policy:     policy,
		logger:     log.With(slog.String("component", "processor")),
	}
}

// Process runs the pipeline for one claimed request. It never returns an
// error: every outcome is absorbed into a store transition (or a silent
// drop for stale claims) so one bad record cannot stall the batch.
func (p *Processor) Process(ctx context.Context, claim *domain.SummaryRequest) {
	log := p.logger.With(
		slog.String("request_id", claim.ID.String()),
		slog.Int("attempts", claim.Attempts),
	)
	ctx = logger.WithLogger(ctx, log)

	if claim.LockToken == nil {
		log.Error("claimed request is missing its lock token, skipping")
		return
	}
	lockToken := *claim.LockToken

	start := time.Now()
	defer func() {
		metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	}()

	text, err := p.resolver.Resolve(ctx, claim)
	if err != nil {
		p.fail(ctx, claim, err)
		return
	}

	summary, err := p.summarizer.Summarize(text)
	if err != nil {
		p.fail(ctx, claim, err)
		return
	}
	log.Debug("summary generated", slog.Int("bullet_count", len(summary.Bullets)))

	if err := p.dispatcher.Dispatch(ctx, claim, summary); err != nil {
		p.fail(ctx, claim, err)
		return
	}

	if err := p.requests.MarkSent(ctx, claim.ID, lockToken, summary); err != nil {
		if errors.Is(err, store.ErrStaleClaim) {
			p.dropStale(log)
			return
		}
		// Transient store failure: the record stays in processing until
		// the lease expires and the reclaim sweep returns it to pending.
		log.Error("failed to mark request sent",
			slog.String("error", err.Error()))
		return
	}

	metrics.RequestsSent.Inc()
	log.Info("request completed",
		slog.String("status", string(domain.RequestStatusSent)),
		slog.Duration("duration", time.Since(start)))
}

// fail routes a pipeline error to a retry reschedule or a terminal failed
// write, depending on the retry policy.
func (p *Processor) fail(ctx context.Context, claim *domain.SummaryRequest, cause error) {
	log := logger.FromContextOrDefault(ctx, p.logger)
	lockToken := *claim.LockToken

	if errors.Is(cause, store.ErrStaleClaim) {
		p.dropStale(log)
		return
	}

	if p.policy.ShouldRetry(claim.Attempts) {
		nextSendAt := time.Now().UTC().Add(p.policy.NextAttemptDelay(claim.Attempts))
		err := p.requests.RescheduleRetry(ctx, claim.ID, lockToken, cause.Error(), nextSendAt)
		if err != nil {
			if errors.Is(err, store.ErrStaleClaim) {
				p.dropStale(log)
				return
			}
			log.Error("failed to reschedule request",
				slog.String("error", err.Error()),
				slog.String("cause", cause.Error()))
			return
		}

		metrics.RequestsRetried.Inc()
		log.Warn("request rescheduled for retry",
			slog.String("error", cause.Error()),
			slog.Time("next_send_at", nextSendAt))
		return
	}

	if err := p.requests.MarkFailed(ctx, claim.ID, lockToken, cause.Error()); err != nil {
		if errors.Is(err, store.ErrStaleClaim) {
			p.dropStale(log)
			return
		}
		log.Error("failed to mark request failed",
			slog.String("error", err.Error()),
			slog.String("cause", cause.Error()))
		return
	}

	metrics.RequestsFailed.Inc()
	log.Error("request failed terminally",
		slog.String("error", cause.Error()))
}

func (p *Processor) dropStale(log *slog.Logger) {
	metrics.StaleClaimsDropped.Inc()
	log.Debug("dropping result for stale claim")
}
