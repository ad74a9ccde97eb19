package datasource

import (
	"sync"
	"time"
)

// BreakerState enumerates circuit breaker states.
type BreakerState int

const (
	// BreakerClosed lets calls pass through.
	BreakerClosed BreakerState = iota
	// BreakerOpen short-circuits calls until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen admits exactly one probe call.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a single adapter's circuit breaker. Thresholds are
// per adapter: a flaky low-priority source and a stable primary must be
// tunable independently.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	Cooldown         time.Duration // wait before admitting a probe
	CooldownFactor   float64       // multiplicative growth per failed probe, <=1 disables
	MaxCooldown      time.Duration // cap for grown cooldowns
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.CooldownFactor < 1 {
		c.CooldownFactor = 1
	}
	if c.MaxCooldown <= 0 {
		c.MaxCooldown = 10 * time.Minute
	}
	return c
}

// CircuitBreaker gates calls against one adapter. Safe for concurrent use;
// while a half-open probe is in flight every other caller sees Allow()==false.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg      BreakerConfig
	state    BreakerState
	failures int
	openedAt time.Time
	cooldown time.Duration
	probing  bool

	now func() time.Time
}

// NewCircuitBreaker constructs a closed breaker with the supplied config.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	cfg = cfg.withDefaults()
	return &CircuitBreaker{
		cfg:      cfg,
		state:    BreakerClosed,
		cooldown: cfg.Cooldown,
		now:      time.Now,
	}
}

// Allow reports whether a call may proceed. An Open breaker whose cooldown
// has elapsed transitions to HalfOpen and returns true exactly once.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerHalfOpen:
		// A probe is already in flight.
		return false
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = BreakerHalfOpen
		b.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess resets the breaker after a successful call.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	b.state = BreakerClosed
	b.cooldown = b.cfg.Cooldown
}

// RecordFailure counts a failed call, opening the breaker at the threshold.
// A failed half-open probe reopens immediately and grows the cooldown.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.probing = false
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.cooldown = b.grownCooldown()
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *CircuitBreaker) grownCooldown() time.Duration {
	grown := time.Duration(float64(b.cooldown) * b.cfg.CooldownFactor)
	if grown > b.cfg.MaxCooldown {
		grown = b.cfg.MaxCooldown
	}
	if grown < b.cfg.Cooldown {
		grown = b.cfg.Cooldown
	}
	return grown
}
