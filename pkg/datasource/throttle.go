package datasource

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleConfig tunes anti-ban pacing for upstream calls. The jitter window
// defeats burst detection on providers that fingerprint uniformly spaced
// clients; the backoff reacts to explicit rate-limit signals.
type ThrottleConfig struct {
	MinDelay time.Duration // lower bound of the randomized pre-call delay
	MaxDelay time.Duration // upper bound of the randomized pre-call delay

	BackoffBase   time.Duration // penalty applied on the first rate-limit signal
	BackoffFactor float64       // multiplicative growth per further signal
	MaxBackoff    time.Duration // penalty cap
	BackoffDecay  time.Duration // quiet period after which the penalty resets

	QPS   float64 // hard per-adapter ceiling, 0 disables
	Burst int
}

func (c ThrottleConfig) withDefaults() ThrottleConfig {
	if c.MinDelay <= 0 {
		c.MinDelay = 500 * time.Millisecond
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 2
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.BackoffDecay <= 0 {
		c.BackoffDecay = 5 * time.Minute
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

type adapterThrottle struct {
	penalty    time.Duration
	lastSignal time.Time
	limiter    *rate.Limiter
}

// Throttle paces calls per adapter. Shared by all workers; state updates are
// serialized so concurrent rate-limit signals never double-count.
type Throttle struct {
	mu     sync.Mutex
	cfg    ThrottleConfig
	states map[string]*adapterThrottle

	now   func() time.Time
	randF func() float64                          // uniform [0,1)
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottle constructs a throttle controller.
func NewThrottle(cfg ThrottleConfig) *Throttle {
	return &Throttle{
		cfg:    cfg.withDefaults(),
		states: make(map[string]*adapterThrottle),
		now:    time.Now,
		randF:  rand.Float64,
		sleep:  sleepContext,
	}
}

// BeforeCall blocks the calling worker for the randomized delay plus any
// active backoff penalty for the adapter, then waits on the hard rate
// ceiling. Returns early with the context error on cancellation.
func (t *Throttle) BeforeCall(ctx context.Context, adapter string) error {
	t.mu.Lock()
	st := t.state(adapter)
	if st.penalty > 0 && t.now().Sub(st.lastSignal) >= t.cfg.BackoffDecay {
		st.penalty = 0
	}
	delay := t.cfg.MinDelay
	if window := t.cfg.MaxDelay - t.cfg.MinDelay; window > 0 {
		delay += time.Duration(t.randF() * float64(window))
	}
	delay += st.penalty
	limiter := st.limiter
	t.mu.Unlock()

	if err := t.sleep(ctx, delay); err != nil {
		return err
	}
	if limiter != nil {
		return limiter.Wait(ctx)
	}
	return nil
}

// OnRateLimitSignal grows the adapter's backoff penalty multiplicatively,
// capped at MaxBackoff.
func (t *Throttle) OnRateLimitSignal(adapter string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(adapter)
	if st.penalty <= 0 {
		st.penalty = t.cfg.BackoffBase
	} else {
		st.penalty = time.Duration(float64(st.penalty) * t.cfg.BackoffFactor)
	}
	if st.penalty > t.cfg.MaxBackoff {
		st.penalty = t.cfg.MaxBackoff
	}
	st.lastSignal = t.now()
}

// Penalty returns the adapter's current backoff penalty.
func (t *Throttle) Penalty(adapter string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(adapter)
	if st.penalty > 0 && t.now().Sub(st.lastSignal) >= t.cfg.BackoffDecay {
		st.penalty = 0
	}
	return st.penalty
}

func (t *Throttle) state(adapter string) *adapterThrottle {
	st, ok := t.states[adapter]
	if !ok {
		st = &adapterThrottle{}
		if t.cfg.QPS > 0 {
			st.limiter = rate.NewLimiter(rate.Limit(t.cfg.QPS), t.cfg.Burst)
		}
		t.states[adapter] = st
	}
	return st
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
