package datasource

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name    string
	kinds   []Kind
	bars    []DailyBar
	quote   *Quote
	err     error
	calls   int
	quoteCalls int
}

func (f *fakeAdapter) Name() string         { return f.name }
func (f *fakeAdapter) Capabilities() []Kind { return f.kinds }

func (f *fakeAdapter) FetchDaily(ctx context.Context, symbol string) ([]DailyBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeAdapter) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	f.quoteCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func (f *fakeAdapter) FetchChip(ctx context.Context, symbol string) (*ChipDistribution, error) {
	return nil, errors.New("not supported")
}

func testBars(n int) []DailyBar {
	bars := make([]DailyBar, n)
	for i := range bars {
		bars[i] = DailyBar{
			Date:   fmt.Sprintf("2025-06-%02d", i+1),
			Open:   10 + float64(i),
			High:   11 + float64(i),
			Low:    9 + float64(i),
			Close:  10.5 + float64(i),
			Volume: 1000,
			Amount: 10500,
		}
	}
	return bars
}

func fastThrottle() *Throttle {
	return NewThrottle(ThrottleConfig{MinDelay: time.Nanosecond, MaxDelay: time.Nanosecond})
}

func TestManagerPriorityOrder(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily}}
	b := &fakeAdapter{name: "b", kinds: []Kind{KindDaily}}
	c := &fakeAdapter{name: "c", kinds: []Kind{KindDaily, KindQuote}}

	m := NewManager([]AdapterSpec{
		{Adapter: b, Priority: 5},
		{Adapter: a, Priority: 10},
		{Adapter: c, Priority: 1},
	}, WithThrottle(fastThrottle()))

	require.Equal(t, []string{"a", "b", "c"}, m.AdapterOrder(KindDaily))
	require.Equal(t, []string{"c"}, m.AdapterOrder(KindQuote))
}

func TestManagerDynamicPromotion(t *testing.T) {
	free := &fakeAdapter{name: "free", kinds: []Kind{KindDaily}}
	premium := &fakeAdapter{name: "premium", kinds: []Kind{KindDaily}}

	// Dynamic without credential: static order holds.
	m := NewManager([]AdapterSpec{
		{Adapter: free, Priority: 10},
		{Adapter: premium, Priority: 5, Dynamic: true},
	})
	require.Equal(t, []string{"free", "premium"}, m.AdapterOrder(KindDaily))

	// Credential configured: the dynamic adapter is promoted.
	m = NewManager([]AdapterSpec{
		{Adapter: free, Priority: 10},
		{Adapter: premium, Priority: 5, Dynamic: true, HasCredential: true},
	})
	require.Equal(t, []string{"premium", "free"}, m.AdapterOrder(KindDaily))
}

func TestManagerFailoverSkipsOpenBreaker(t *testing.T) {
	// Scenario: A=10 open breaker, B=5 healthy, C=1 untouched.
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily}, err: errors.New("down")}
	b := &fakeAdapter{name: "b", kinds: []Kind{KindDaily}, bars: testBars(25)}
	c := &fakeAdapter{name: "c", kinds: []Kind{KindDaily}, bars: testBars(25)}

	m := NewManager([]AdapterSpec{
		{Adapter: a, Priority: 10, Breaker: BreakerConfig{FailureThreshold: 1, Cooldown: time.Hour}},
		{Adapter: b, Priority: 5},
		{Adapter: c, Priority: 1},
	}, WithThrottle(fastThrottle()), WithTTL(KindDaily, 0))

	// First fetch: A fails once and opens, B serves.
	rec, err := m.Fetch(context.Background(), "600519", KindDaily)
	require.NoError(t, err)
	require.Equal(t, "b", rec.Source)
	require.Equal(t, BreakerOpen, m.Breaker("a").State())

	// Second fetch: A is denied without being called or charged.
	aCalls := a.calls
	rec, err = m.Fetch(context.Background(), "600519", KindDaily)
	require.NoError(t, err)
	require.Equal(t, "b", rec.Source)
	require.Equal(t, aCalls, a.calls, "denied adapter is not invoked")
	require.Equal(t, 0, c.calls, "lower priority adapter untouched")
}

func TestManagerAllSourcesExhausted(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily}, err: errors.New("boom")}
	b := &fakeAdapter{name: "b", kinds: []Kind{KindDaily}, err: errors.New("bust")}

	m := NewManager([]AdapterSpec{
		{Adapter: a, Priority: 10},
		{Adapter: b, Priority: 5},
	}, WithThrottle(fastThrottle()))

	_, err := m.Fetch(context.Background(), "000001", KindDaily)
	require.ErrorIs(t, err, ErrAllSourcesExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, "000001", exhausted.Symbol)
	require.Len(t, exhausted.Attempts, 2)
	require.Equal(t, "a", exhausted.Attempts[0].Adapter)
	require.False(t, exhausted.Attempts[0].Skipped)
}

func TestManagerCacheAbsorbsRepeatFetches(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily}, bars: testBars(25)}

	m := NewManager([]AdapterSpec{{Adapter: a, Priority: 1}},
		WithThrottle(fastThrottle()), WithTTL(KindDaily, time.Hour))

	_, err := m.Fetch(context.Background(), "600519", KindDaily)
	require.NoError(t, err)
	_, err = m.Fetch(context.Background(), "600519", KindDaily)
	require.NoError(t, err)
	require.Equal(t, 1, a.calls, "second fetch served from cache")
}

func TestManagerRateLimitSignalsThrottle(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily},
		err: fmt.Errorf("http 429: %w", ErrRateLimited)}
	b := &fakeAdapter{name: "b", kinds: []Kind{KindDaily}, bars: testBars(25)}

	throttle := fastThrottle()
	m := NewManager([]AdapterSpec{
		{Adapter: a, Priority: 10},
		{Adapter: b, Priority: 5},
	}, WithThrottle(throttle))

	rec, err := m.Fetch(context.Background(), "600519", KindDaily)
	require.NoError(t, err)
	require.Equal(t, "b", rec.Source)
	require.Greater(t, throttle.Penalty("a"), time.Duration(0))
	require.Equal(t, time.Duration(0), throttle.Penalty("b"))
}

func TestManagerDisabledKind(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindChip}}
	m := NewManager([]AdapterSpec{{Adapter: a, Priority: 1}}, WithKindDisabled(KindChip))

	_, err := m.Fetch(context.Background(), "600519", KindChip)
	require.ErrorIs(t, err, ErrKindDisabled)
}

func TestManagerCancellation(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily}, bars: testBars(25)}
	m := NewManager([]AdapterSpec{{Adapter: a, Priority: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Fetch(ctx, "600519", KindDaily)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, a.calls)
}

func TestManagerDerivesIndicators(t *testing.T) {
	a := &fakeAdapter{name: "a", kinds: []Kind{KindDaily}, bars: testBars(25)}
	m := NewManager([]AdapterSpec{{Adapter: a, Priority: 1}}, WithThrottle(fastThrottle()))

	rec, err := m.Fetch(context.Background(), "600519", KindDaily)
	require.NoError(t, err)

	latest := rec.Latest()
	require.NotNil(t, latest)
	require.Greater(t, latest.MA5, 0.0)
	require.Greater(t, latest.MA10, 0.0)
	require.Greater(t, latest.MA20, 0.0)
	// Flat 1000-share volume: today's volume equals the 5-day average.
	require.InDelta(t, 1.0, latest.VolumeRatio, 1e-9)
	// MA5 over the last five closes of a +1/day series.
	require.InDelta(t, latest.Close-2, latest.MA5, 1e-9)
}
