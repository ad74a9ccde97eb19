package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// scopeCanonical is the cache scope for normalized manager output.
const scopeCanonical = "canonical"

// AdapterSpec binds an adapter to its failover policy knobs.
type AdapterSpec struct {
	Adapter       Adapter
	Priority      int  // fixed base priority, higher wins
	Dynamic       bool // eligible for credential-based promotion
	HasCredential bool
	Breaker       BreakerConfig
}

type rankedAdapter struct {
	adapter  Adapter
	name     string
	priority int
	elevated bool
}

// Manager owns all failover policy for the acquisition layer: adapter
// ordering, breaker gating, throttling, caching and normalization. Adapters
// only throw; the manager decides what happens next.
type Manager struct {
	adapters []rankedAdapter
	breakers map[string]*CircuitBreaker
	throttle *Throttle
	cache    *ResultCache
	ttl      map[Kind]time.Duration
	disabled map[Kind]bool

	now func() time.Time
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithThrottle replaces the default throttle controller.
func WithThrottle(t *Throttle) ManagerOption {
	return func(m *Manager) {
		if t != nil {
			m.throttle = t
		}
	}
}

// WithCache replaces the default result cache.
func WithCache(c *ResultCache) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.cache = c
		}
	}
}

// WithTTL sets the cache TTL for a data kind.
func WithTTL(kind Kind, ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl[kind] = ttl
	}
}

// WithKindDisabled switches a data kind off entirely.
func WithKindDisabled(kind Kind) ManagerOption {
	return func(m *Manager) {
		m.disabled[kind] = true
	}
}

// NewManager ranks the supplied adapters and assembles the acquisition
// manager. Ranking is evaluated here, once per construction: an adapter
// marked dynamic with a configured credential is promoted above every
// non-elevated adapter; within a tier, base priority descending, then name
// ascending for a stable order.
func NewManager(specs []AdapterSpec, opts ...ManagerOption) *Manager {
	m := &Manager{
		breakers: make(map[string]*CircuitBreaker),
		throttle: NewThrottle(ThrottleConfig{}),
		cache:    NewResultCache(),
		ttl: map[Kind]time.Duration{
			KindDaily: 4 * time.Hour,
			KindQuote: 5 * time.Second,
			KindChip:  4 * time.Hour,
		},
		disabled: make(map[Kind]bool),
		now:      time.Now,
	}

	for _, spec := range specs {
		if spec.Adapter == nil {
			continue
		}
		name := spec.Adapter.Name()
		m.adapters = append(m.adapters, rankedAdapter{
			adapter:  spec.Adapter,
			name:     name,
			priority: spec.Priority,
			elevated: spec.Dynamic && spec.HasCredential,
		})
		m.breakers[name] = NewCircuitBreaker(spec.Breaker)
	}
	sort.SliceStable(m.adapters, func(i, j int) bool {
		a, b := m.adapters[i], m.adapters[j]
		if a.elevated != b.elevated {
			return a.elevated
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.name < b.name
	})

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AdapterOrder exposes the resolved failover order, primarily for logging
// and tests.
func (m *Manager) AdapterOrder(kind Kind) []string {
	names := make([]string, 0, len(m.adapters))
	for _, ra := range m.adapters {
		if Supports(ra.adapter, kind) {
			names = append(names, ra.name)
		}
	}
	return names
}

// Breaker returns the breaker guarding the named adapter, or nil.
func (m *Manager) Breaker(name string) *CircuitBreaker {
	return m.breakers[name]
}

// Fetch returns one canonical record for (symbol, kind) or a typed failure.
// The adapter walk skips breaker-denied adapters without charging them a
// failure, throttles before every live call, and stops at the first success.
func (m *Manager) Fetch(ctx context.Context, symbol string, kind Kind) (*Record, error) {
	if m.disabled[kind] {
		return nil, fmt.Errorf("%w: %s", ErrKindDisabled, kind)
	}
	if rec := m.cache.Get(symbol, kind, scopeCanonical); rec != nil {
		return rec, nil
	}

	attempts := make([]Attempt, 0, len(m.adapters))
	for _, ra := range m.adapters {
		if !Supports(ra.adapter, kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		breaker := m.breakers[ra.name]
		if !breaker.Allow() {
			attempts = append(attempts, Attempt{Adapter: ra.name, Skipped: true})
			continue
		}

		if err := m.throttle.BeforeCall(ctx, ra.name); err != nil {
			return nil, err
		}

		rec, err := m.call(ctx, ra.adapter, symbol, kind)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			breaker.RecordFailure()
			if IsRateLimited(err) {
				m.throttle.OnRateLimitSignal(ra.name)
			}
			logx.Errorf("datasource: adapter %s failed for %s/%s: %v", ra.name, symbol, kind, err)
			attempts = append(attempts, Attempt{Adapter: ra.name, Err: err})
			continue
		}

		breaker.RecordSuccess()
		rec.Symbol = symbol
		rec.Kind = kind
		rec.Source = ra.name
		rec.FetchedAt = m.now()
		m.cache.Put(symbol, kind, scopeCanonical, rec, m.ttl[kind])
		return rec, nil
	}

	return nil, &ExhaustedError{Symbol: symbol, Kind: kind, Attempts: attempts}
}

func (m *Manager) call(ctx context.Context, adapter Adapter, symbol string, kind Kind) (*Record, error) {
	switch kind {
	case KindDaily:
		bars, err := adapter.FetchDaily(ctx, symbol)
		if err != nil {
			return nil, err
		}
		normalized, err := NormalizeDaily(bars)
		if err != nil {
			return nil, err
		}
		return &Record{Bars: normalized}, nil
	case KindQuote:
		quote, err := adapter.FetchQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if quote == nil || quote.Last <= 0 {
			return nil, fmt.Errorf("datasource: empty quote: %w", ErrNoData)
		}
		return &Record{Quote: quote}, nil
	case KindChip:
		chip, err := adapter.FetchChip(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if chip == nil {
			return nil, fmt.Errorf("datasource: empty chip distribution: %w", ErrNoData)
		}
		return &Record{Chip: chip}, nil
	default:
		return nil, errors.New("datasource: unknown data kind " + string(kind))
	}
}
