// Package worker implements the polling loop that drives summary requests
// from pending through the resolve/summarize/dispatch pipeline to a
// terminal state.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
	"github.com/phrazzld/voicebrief/internal/platform/metrics"
	"github.com/phrazzld/voicebrief/internal/store"
)

// Config holds the worker loop configuration.
type Config struct {
	// PollInterval is the delay between claim attempts.
	PollInterval time.Duration

	// BatchSize is the maximum number of requests claimed per poll.
	BatchSize int

	// Concurrency bounds how many claimed requests are processed at once
	// within a single batch.
	Concurrency int

	// LeaseTimeout is the age beyond which a processing lock is treated
	// as abandoned by a crashed worker.
	LeaseTimeout time.Duration

	// ReclaimInterval is the delay between reclaim sweeps.
	ReclaimInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Second,
		BatchSize:       10,
		Concurrency:     4,
		LeaseTimeout:    10 * time.Minute,
		ReclaimInterval: time.Minute,
	}
}

// Worker polls the store for due requests and feeds claimed batches to the
// processor. Multiple Worker instances may run against one shared store;
// correctness under contention is delegated entirely to the store-level
// atomic claim.
type Worker struct {
	cfg        Config
	requests   store.SummaryRequestStore
	processor  *Processor
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// New creates a Worker.
// If log is nil, a default logger will be used.
func New(cfg Config, requests store.SummaryRequestStore, processor *Processor, log *slog.Logger) *Worker {
	if requests == nil {
		panic("request store cannot be nil")
	}
	if processor == nil {
		panic("processor cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = DefaultConfig().LeaseTimeout
	}
	if cfg.ReclaimInterval <= 0 {
		cfg.ReclaimInterval = DefaultConfig().ReclaimInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	log = log.With(slog.String("component", "worker"))

	return &Worker{
		cfg:        cfg,
		requests:   requests,
		processor:  processor,
		ctx:        logger.WithLogger(ctx, log),
		cancelFunc: cancel,
		logger:     log,
	}
}

// Start launches the poll and reclaim loops.
func (w *Worker) Start() {
	w.logger.Info("worker started",
		slog.Duration("poll_interval", w.cfg.PollInterval),
		slog.Int("batch_size", w.cfg.BatchSize),
		slog.Int("concurrency", w.cfg.Concurrency),
		slog.Duration("lease_timeout", w.cfg.LeaseTimeout))

	w.wg.Add(2)
	go w.pollLoop()
	go w.reclaimLoop()
}

// Stop shuts the worker down gracefully: polling stops immediately and the
// call blocks until every in-flight record has reached a terminal write.
func (w *Worker) Stop() {
	w.logger.Info("worker stopping")
	w.cancelFunc()
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// pollLoop claims due requests on every tick and processes the batch.
func (w *Worker) pollLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

// pollOnce runs a single claim-and-process cycle. In-flight records are
// processed with a detached context so shutdown never abandons a
// half-written terminal state.
func (w *Worker) pollOnce() {
	claims, err := w.requests.ClaimDue(w.ctx, w.cfg.BatchSize)
	if err != nil {
		// Transient store error: nothing was mutated, retry next tick.
		w.logger.Error("failed to claim due requests",
			slog.String("error", err.Error()))
		return
	}
	if len(claims) == 0 {
		return
	}

	metrics.RequestsClaimed.Add(float64(len(claims)))
	w.logger.Debug("claimed due requests", slog.Int("count", len(claims)))

	w.processBatch(context.WithoutCancel(w.ctx), claims)
}

// processBatch processes the claimed records concurrently up to the
// configured bound and waits for all of them to finish.
func (w *Worker) processBatch(ctx context.Context, claims []*domain.SummaryRequest) {
	semaphore := make(chan struct{}, w.cfg.Concurrency)
	var batch sync.WaitGroup

	for _, claim := range claims {
		semaphore <- struct{}{}
		batch.Add(1)
		go func(claim *domain.SummaryRequest) {
			defer func() {
				<-semaphore
				batch.Done()
			}()
			w.processor.Process(ctx, claim)
		}(claim)
	}

	batch.Wait()
}

// reclaimLoop periodically returns expired processing leases to pending so
// records stuck by a crashed worker become claimable again.
func (w *Worker) reclaimLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			count, err := w.requests.ReclaimExpired(w.ctx, w.cfg.LeaseTimeout)
			if err != nil {
				w.logger.Error("reclaim sweep failed",
					slog.String("error", err.Error()))
				continue
			}
			if count > 0 {
				metrics.RequestsReclaimed.Add(float64(count))
				w.logger.Warn("reclaimed expired leases",
					slog.Int64("count", count))
			}
		}
	}
}
