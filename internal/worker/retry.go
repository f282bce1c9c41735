package worker

import (
	"math"
	"time"
)

const (
	defaultMaxRetries    = 3
	defaultInitialDelay  = 2 * time.Second
	defaultMaxDelay      = 30 * time.Second
	defaultBackoffFactor = 2.0
)

// RetryPolicy drives the backoff between export attempts. Zero fields take
// the package defaults, so the zero value is a usable policy.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// normalized fills zero fields with the defaults.
func (r RetryPolicy) normalized() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = defaultMaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = defaultInitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = defaultMaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = defaultBackoffFactor
	}
	return r
}

// NextDelay returns the wait before the given 1-based attempt, growing
// geometrically from InitialDelay and clamped to MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.normalized()
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if delay > r.MaxDelay || delay <= 0 {
		delay = r.MaxDelay
	}
	return delay
}
