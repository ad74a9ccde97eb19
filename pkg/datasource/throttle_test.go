package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestThrottle(cfg ThrottleConfig) (*Throttle, *time.Time, *[]time.Duration) {
	th := NewThrottle(cfg)
	now := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	th.now = func() time.Time { return now }
	th.randF = func() float64 { return 0.5 }
	slept := make([]time.Duration, 0, 4)
	th.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return th, &now, &slept
}

func TestThrottleJitterWindow(t *testing.T) {
	th, _, slept := newTestThrottle(ThrottleConfig{
		MinDelay: 100 * time.Millisecond,
		MaxDelay: 300 * time.Millisecond,
	})

	require.NoError(t, th.BeforeCall(context.Background(), "eastmoney"))
	require.Len(t, *slept, 1)
	// randF pinned to 0.5: min + half the window.
	require.Equal(t, 200*time.Millisecond, (*slept)[0])
}

func TestThrottleBackoffGrowthAndCap(t *testing.T) {
	th, _, _ := newTestThrottle(ThrottleConfig{
		BackoffBase:   time.Second,
		BackoffFactor: 2,
		MaxBackoff:    3 * time.Second,
	})

	require.Equal(t, time.Duration(0), th.Penalty("tushare"))
	th.OnRateLimitSignal("tushare")
	require.Equal(t, time.Second, th.Penalty("tushare"))
	th.OnRateLimitSignal("tushare")
	require.Equal(t, 2*time.Second, th.Penalty("tushare"))
	th.OnRateLimitSignal("tushare")
	require.Equal(t, 3*time.Second, th.Penalty("tushare"), "penalty is capped")

	// Penalty is per adapter.
	require.Equal(t, time.Duration(0), th.Penalty("eastmoney"))
}

func TestThrottleBackoffDecay(t *testing.T) {
	th, now, slept := newTestThrottle(ThrottleConfig{
		MinDelay:     100 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		BackoffBase:  time.Second,
		BackoffDecay: time.Minute,
	})

	th.OnRateLimitSignal("sina")
	require.NoError(t, th.BeforeCall(context.Background(), "sina"))
	require.Equal(t, 1100*time.Millisecond, (*slept)[0], "penalty added while active")

	*now = now.Add(2 * time.Minute)
	require.NoError(t, th.BeforeCall(context.Background(), "sina"))
	require.Equal(t, 100*time.Millisecond, (*slept)[1], "penalty decays after a quiet period")
}

func TestThrottleCancellation(t *testing.T) {
	th := NewThrottle(ThrottleConfig{MinDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := th.BeforeCall(ctx, "eastmoney")
	require.ErrorIs(t, err, context.Canceled)
}
