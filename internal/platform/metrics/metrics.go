// Package metrics defines the Prometheus instrumentation for the worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsClaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_requests_claimed_total",
		Help: "Number of summary requests claimed from the queue",
	})

	RequestsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_requests_sent_total",
		Help: "Number of summary requests completed with a delivered email",
	})

	RequestsRetried = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_requests_retried_total",
		Help: "Number of summary requests rescheduled for another attempt",
	})

	RequestsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_requests_failed_total",
		Help: "Number of summary requests that exhausted their attempts",
	})

	StaleClaimsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_stale_claims_dropped_total",
		Help: "Number of results discarded because the claim was reclaimed mid-flight",
	})

	RequestsReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_requests_reclaimed_total",
		Help: "Number of expired processing leases returned to pending",
	})

	ProcessDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "worker_process_duration_seconds",
		Help:    "Time spent processing a single claimed request end to end",
		Buckets: prometheus.DefBuckets,
	})

	TranscriptionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_transcription_duration_seconds",
		Help:    "Time spent transcribing audio, labeled by outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	EmailSendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_email_send_duration_seconds",
		Help:    "Time spent sending summary emails, labeled by outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
)

// MustRegister registers all worker metrics with the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RequestsClaimed,
		RequestsSent,
		RequestsRetried,
		RequestsFailed,
		StaleClaimsDropped,
		RequestsReclaimed,
		ProcessDuration,
		TranscriptionDuration,
		EmailSendDuration,
	)
}

// ObserveTranscription records the duration and outcome of a transcription call.
func ObserveTranscription(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TranscriptionDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// ObserveEmailSend records the duration and outcome of an email send.
func ObserveEmailSend(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EmailSendDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
