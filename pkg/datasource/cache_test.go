package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResultCacheHitAndExpiry(t *testing.T) {
	cache := NewResultCache()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	rec := &Record{Symbol: "600519", Kind: KindDaily, Source: "eastmoney"}
	cache.Put("600519", KindDaily, "canonical", rec, time.Minute)

	got := cache.Get("600519", KindDaily, "canonical")
	require.NotNil(t, got)
	require.Equal(t, "eastmoney", got.Source)

	// A get after the ttl has elapsed is a miss, never a stale hit.
	now = now.Add(61 * time.Second)
	require.Nil(t, cache.Get("600519", KindDaily, "canonical"))
	require.Equal(t, 0, cache.Len(), "expired entry lazily evicted")
}

func TestResultCacheKeyScoping(t *testing.T) {
	cache := NewResultCache()

	daily := &Record{Symbol: "600519", Kind: KindDaily}
	quote := &Record{Symbol: "600519", Kind: KindQuote}
	cache.Put("600519", KindDaily, "canonical", daily, time.Minute)
	cache.Put("600519", KindQuote, "canonical", quote, time.Minute)

	require.Same(t, daily, cache.Get("600519", KindDaily, "canonical"))
	require.Same(t, quote, cache.Get("600519", KindQuote, "canonical"))
	require.Nil(t, cache.Get("600519", KindChip, "canonical"))
	require.Nil(t, cache.Get("000001", KindDaily, "canonical"))
	require.Nil(t, cache.Get("600519", KindDaily, "tushare"))
}

func TestResultCacheIgnoresUnstorable(t *testing.T) {
	cache := NewResultCache()
	cache.Put("600519", KindDaily, "canonical", nil, time.Minute)
	cache.Put("600519", KindDaily, "canonical", &Record{}, 0)
	require.Equal(t, 0, cache.Len())
}
