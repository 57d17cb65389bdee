package worker

import "time"

// maxBackoffShift caps the exponential backoff exponent so the delay
// cannot overflow for records with pathological attempt counts.
const maxBackoffShift = 16

// RetryPolicy decides whether a failed request gets another attempt and
// how long to wait before it becomes due again.
type RetryPolicy struct {
	// MaxAttempts is the total number of claims a request may consume
	// before a failure becomes terminal.
	MaxAttempts int

	// BackoffBase is the delay before the second attempt; each further
	// attempt doubles it.
	BackoffBase time.Duration
}

// ShouldRetry reports whether a request that has consumed the given number
// of attempts may be rescheduled instead of terminally failed.
func (p RetryPolicy) ShouldRetry(attempts int) bool {
	return attempts < p.MaxAttempts
}

// NextAttemptDelay returns the backoff delay after the given number of
// consumed attempts: BackoffBase doubled per attempt.
func (p RetryPolicy) NextAttemptDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > maxBackoffShift {
		attempts = maxBackoffShift
	}
	return p.BackoffBase * time.Duration(1<<uint(attempts))
}
