// Package retryqueue keeps a durable record of failed translation attempts
// and drives their bounded, scheduled retries. The queue outlives the
// process: state is serialized after every transition, so a crash loses at
// most the request that was in flight.
package retryqueue

import "time"

// Status is a translation request's lifecycle state.
type Status string

const (
	// StatusPending is the initial state before the first attempt completes.
	StatusPending Status = "pending"
	// StatusFailed means the last attempt failed and a retry is scheduled.
	StatusFailed Status = "failed"
	// StatusRetryReady is a derived view over failed requests whose retry
	// time has elapsed. It is never persisted.
	StatusRetryReady Status = "retry_ready"
	// StatusSuccess is terminal.
	StatusSuccess Status = "success"
	// StatusSkipped is terminal: the attempt budget is spent and the request
	// needs manual intervention.
	StatusSkipped Status = "skipped"
)

// Request is one queued translation. Owned exclusively by the Store; nothing
// else mutates it.
type Request struct {
	ID             string    `json:"request_id"`
	OriginalText   string    `json:"original_text"`
	TargetLanguage string    `json:"target_language"`
	Status         Status    `json:"status"`
	AttemptCount   int       `json:"attempt_count"`
	NextRetryAt    time.Time `json:"next_retry_at"`
	LastError      string    `json:"last_error,omitempty"`
	Result         string    `json:"result,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Terminal reports whether no transition can leave the request's state.
func (r Request) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusSkipped
}

// EligibleForRetry reports whether a request may be retried at the given
// time. Pure function of the request and the clock, so scheduling is
// testable without real time passing.
func EligibleForRetry(r Request, now time.Time) bool {
	return r.Status == StatusFailed && !now.Before(r.NextRetryAt)
}

// EffectiveStatus resolves the derived retry_ready view: a failed request
// whose retry time has elapsed reports as retry_ready.
func EffectiveStatus(r Request, now time.Time) Status {
	if EligibleForRetry(r, now) {
		return StatusRetryReady
	}
	return r.Status
}
