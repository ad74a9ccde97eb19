package datasource

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestBreaker(cfg BreakerConfig) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(cfg)
	now := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute})

	require.Equal(t, BreakerClosed, b.State())
	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, BreakerClosed, b.State())
	require.True(t, b.Allow())

	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())
	require.False(t, b.Allow())
}

func TestBreakerHalfOpenSingleProbe(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})

	b.RecordFailure()
	require.False(t, b.Allow())

	*now = now.Add(61 * time.Second)
	require.True(t, b.Allow(), "first caller after cooldown gets the probe")
	require.False(t, b.Allow(), "second caller is denied while probe is in flight")
	require.Equal(t, BreakerHalfOpen, b.State())
}

func TestBreakerProbeSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	*now = now.Add(time.Minute)
	require.True(t, b.Allow())
	b.RecordSuccess()

	require.Equal(t, BreakerClosed, b.State())
	require.Equal(t, 0, b.Failures())
	require.True(t, b.Allow())
}

func TestBreakerProbeFailureReopensWithGrowth(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		CooldownFactor:   2,
		MaxCooldown:      3 * time.Minute,
	})

	b.RecordFailure()
	*now = now.Add(time.Minute)
	require.True(t, b.Allow())
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	// Cooldown doubled: one minute is no longer enough.
	*now = now.Add(time.Minute)
	require.False(t, b.Allow())
	*now = now.Add(time.Minute)
	require.True(t, b.Allow())

	// Another failed probe hits the cap.
	b.RecordFailure()
	*now = now.Add(3 * time.Minute)
	require.True(t, b.Allow())
}

func TestBreakerConcurrentProbe(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})

	b.RecordFailure()
	*now = now.Add(2 * time.Second)

	const callers = 32
	var wg sync.WaitGroup
	allowed := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Allow() {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	var count int
	for range allowed {
		count++
	}
	require.Equal(t, 1, count, "exactly one caller may probe a half-open breaker")
}

func TestBreakerDefaults(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{})
	require.Equal(t, 3, b.cfg.FailureThreshold)
	require.Equal(t, time.Minute, b.cfg.Cooldown)
}
