package cache

import (
	"strings"
	"time"

	"github.com/HinaTK/daily-stock-analysis/internal/config"
)

// Namespace is the Redis key prefix for the application.
const Namespace = "stockd"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// ResumeRecordKey stores the committed acquisition record for a symbol on a
// trade date. Its presence is the resume fast-path mark.
func ResumeRecordKey(tradeDate, symbol string) string {
	return formatKey("resume", tradeDate, symbol)
}

// QuoteKey stores the latest realtime snapshot for a symbol.
func QuoteKey(symbol string) string {
	return formatKey("quote", symbol)
}

// ReportKey stores the latest finished batch report for a trade date.
func ReportKey(tradeDate string) string {
	return formatKey("report", tradeDate)
}

// ResumeTTL keeps resume marks alive comfortably past one trading day so a
// rerun the same evening still skips, while stale marks age out on their own.
func ResumeTTL() time.Duration {
	return 36 * time.Hour
}

// QuoteTTL returns the short TTL for realtime snapshots.
func QuoteTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// ReportTTL returns the TTL for cached batch reports.
func ReportTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}
