package datasource

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllSourcesExhausted reports that every capable adapter was either
	// denied by its breaker or failed. Terminal for the symbol/kind; the
	// manager never substitutes stale or synthetic data.
	ErrAllSourcesExhausted = errors.New("datasource: all sources exhausted")

	// ErrKindDisabled reports that the requested data kind is switched off
	// by configuration.
	ErrKindDisabled = errors.New("datasource: data kind disabled")

	// ErrRateLimited marks an upstream response that looks like throttling
	// or abuse detection. Adapters wrap it so the manager can feed the
	// throttle controller.
	ErrRateLimited = errors.New("datasource: rate limited by upstream")

	// ErrNoData reports an upstream reply that contained no usable rows.
	ErrNoData = errors.New("datasource: upstream returned no data")
)

// Attempt records a single failed adapter call inside one fetch.
type Attempt struct {
	Adapter string
	Skipped bool // breaker denied, adapter never called
	Err     error
}

// ExhaustedError carries the per-adapter outcomes behind an
// ErrAllSourcesExhausted result.
type ExhaustedError struct {
	Symbol   string
	Kind     Kind
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Skipped {
			parts = append(parts, fmt.Sprintf("%s: breaker open", a.Adapter))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", a.Adapter, a.Err))
	}
	return fmt.Sprintf("datasource: all sources exhausted for %s/%s [%s]",
		e.Symbol, e.Kind, strings.Join(parts, "; "))
}

// Is lets callers match the sentinel with errors.Is.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllSourcesExhausted
}

// IsRateLimited reports whether the error chain carries a rate-limit signal.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
