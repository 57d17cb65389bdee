package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/phrazzld/voicebrief/internal/config"
	"github.com/phrazzld/voicebrief/internal/domain"
	"github.com/phrazzld/voicebrief/internal/email"
	"github.com/phrazzld/voicebrief/internal/platform/gemini"
	"github.com/phrazzld/voicebrief/internal/platform/metrics"
	"github.com/phrazzld/voicebrief/internal/platform/postgres"
	"github.com/phrazzld/voicebrief/internal/summarizer"
	"github.com/phrazzld/voicebrief/internal/worker"
)

// application holds the wired components of the worker process.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	worker *worker.Worker
	ops    *http.Server
}

// newApplication wires the stores, external clients, pipeline, and ops
// listener from configuration.
func newApplication(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	requestStore := postgres.NewPostgresSummaryRequestStore(db, appLogger)
	transcriptStore := postgres.NewPostgresTranscriptStore(db, appLogger)
	assetStore := postgres.NewPostgresAudioAssetStore(db, appLogger)
	deliveryStore := postgres.NewPostgresEmailDeliveryStore(db, appLogger)
	transcriptSaver := postgres.NewTranscriptSaver(db, appLogger)

	transcriber, err := gemini.NewTranscriber(ctx, appLogger, cfg.Transcriber)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	sender := email.NewMailjetSender(cfg.Email, appLogger)
	dispatcher := email.NewDispatcher(sender, deliveryStore, cfg.Email.Subject, appLogger)

	resolver := worker.NewResolver(
		transcriptStore,
		assetStore,
		requestStore,
		transcriber,
		transcriptSaver,
		appLogger,
	)

	policy := worker.RetryPolicy{
		MaxAttempts: cfg.Worker.MaxAttempts,
		BackoffBase: time.Duration(cfg.Worker.BackoffBaseSeconds) * time.Second,
	}
	processor := worker.NewProcessor(
		requestStore,
		resolver,
		summarizer.New(domain.MaxSummaryBullets),
		dispatcher,
		policy,
		appLogger,
	)

	w := worker.New(worker.Config{
		PollInterval:    time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second,
		BatchSize:       cfg.Worker.BatchSize,
		Concurrency:     cfg.Worker.Concurrency,
		LeaseTimeout:    time.Duration(cfg.Worker.LeaseTimeoutSeconds) * time.Second,
		ReclaimInterval: time.Duration(cfg.Worker.ReclaimIntervalSeconds) * time.Second,
	}, requestStore, processor, appLogger)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ops := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newOpsRouter(db),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &application{
		cfg:    cfg,
		logger: appLogger,
		db:     db,
		worker: w,
		ops:    ops,
	}, nil
}

// run starts the worker and the ops listener, then blocks until the
// context is cancelled or the listener fails. Shutdown is graceful:
// in-flight records finish before the process exits.
func (a *application) run(ctx context.Context) error {
	a.worker.Start()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("ops listener started", slog.String("addr", a.ops.Addr))
		if err := a.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serverErr:
		a.worker.Stop()
		return fmt.Errorf("ops listener failed: %w", err)
	}

	a.worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("ops listener shutdown failed", slog.String("error", err.Error()))
	}

	return nil
}

// cleanup releases resources held by the application.
func (a *application) cleanup() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
