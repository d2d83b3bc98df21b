package retry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/retry"
)

func TestFromSettings_ShouldCarryMaxRetriesAndDelay_WhenSettingsPopulated(t *testing.T) {
	policy := retry.FromSettings(domain.RetrySettings{
		RetryOnFailed: true,
		MaxRetries:    3,
		RetryDelayMs:  100,
	})

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, policy.InitialDelay)
	assert.True(t, policy.Jitter)
}

func TestDelayForAttempt_ShouldReturnZero_WhenInitialDelayIsZero(t *testing.T) {
	policy := retry.FromSettings(domain.RetrySettings{MaxRetries: 2, RetryDelayMs: 0})

	assert.Equal(t, time.Duration(0), policy.DelayForAttempt(1, 0))
}

func TestDelayForAttempt_ShouldGrowExponentially_AcrossAttempts(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: 30 * time.Second, Multiplier: 2.0}

	first := policy.DelayForAttempt(1, 0)
	second := policy.DelayForAttempt(2, 0)
	third := policy.DelayForAttempt(3, 0)

	assert.Equal(t, 100*time.Millisecond, first)
	assert.Equal(t, 200*time.Millisecond, second)
	assert.Equal(t, 400*time.Millisecond, third)
}

func TestDelayForAttempt_ShouldCapAtMaxDelay_WhenExponentialExceedsIt(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 20, InitialDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2.0}

	delay := policy.DelayForAttempt(10, 0)

	assert.LessOrEqual(t, delay, 5*time.Second)
}

func TestDelayForAttempt_ShouldApplyJitterWithinTenPercent_WhenJitterEnabled(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 1.0, Jitter: true}

	delay := policy.DelayForAttempt(1, 500)

	assert.InDelta(t, float64(time.Second), float64(delay), float64(100*time.Millisecond))
}
