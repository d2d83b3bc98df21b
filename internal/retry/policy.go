// Package retry computes backoff delays for the node-level retry
// suspension path (spec.md §4.7). It does not loop or sleep itself — the
// Graph Executor suspends with a resume_at time, and the outside scheduler
// decides when to re-enter; this package only does the arithmetic.
package retry

import (
	"math"
	"time"

	"github.com/prana-run/prana/internal/domain"
)

// Policy mirrors domain.RetrySettings but in time.Duration form, with the
// exponential-backoff tuning the teacher's RetryExecutor used.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// FromSettings builds a Policy from a node's declared RetrySettings,
// applying the engine-wide defaults for the backoff shape (the workflow
// format only lets a node declare max_retries and a flat retry_delay_ms;
// the exponential curve itself is an engine policy, not per-node).
func FromSettings(s domain.RetrySettings) Policy {
	return Policy{
		MaxAttempts:  s.MaxRetries,
		InitialDelay: time.Duration(s.RetryDelayMs) * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// DelayForAttempt returns the wait before the given 1-based attempt number,
// exponential with a cap and +/-10% jitter, matching the teacher's
// calculateRetryDelay.
func (p Policy) DelayForAttempt(attempt int, nowNano int64) time.Duration {
	if p.InitialDelay <= 0 {
		return 0
	}
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		jitterAmount := delay * 0.1
		jitter := (2*float64(nowNano%1000)/1000 - 1) * jitterAmount
		delay += jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
