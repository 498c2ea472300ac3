package genai

import "time"

// RetryPolicy decides whether a failed command request should be
// retried. It is a pure function of the attempt count and error kind,
// so it is testable without any transport.
type RetryPolicy struct {
	// MaxRetries is how many retries follow the initial attempt.
	MaxRetries int

	// BaseDelay is the backoff before the first retry; it doubles on
	// each subsequent one.
	BaseDelay time.Duration
}

// DefaultRetryPolicy matches the stock tuning: two retries, 400ms base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: 400 * time.Millisecond}
}

// Next returns the backoff delay before retry number attempt+1, and
// whether to retry at all. Only transient (server-side) errors are
// retried; everything else gives up immediately so the control loop
// can fall back to the safe default.
func (p RetryPolicy) Next(attempt int, err error) (time.Duration, bool) {
	if attempt >= p.MaxRetries || !IsTransient(err) {
		return 0, false
	}
	return p.BaseDelay << uint(attempt), true
}
