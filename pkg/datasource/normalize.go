package datasource

import (
	"fmt"
	"math"
	"sort"

	"github.com/HinaTK/daily-stock-analysis/pkg/indicators"
)

const volumeRatioLookback = 5

// NormalizeDaily validates an adapter's bar series and computes the derived
// indicator columns. Called exactly once per fetch, after the adapter's raw
// payload has been mapped to the canonical shape; adapters never fill the
// derived fields themselves.
func NormalizeDaily(bars []DailyBar) ([]DailyBar, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	out := make([]DailyBar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	// Upstream glitches occasionally repeat a date; keep the last row for
	// each so the indicator windows stay one-bar-per-day.
	deduped := out[:0]
	for i := range out {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date == out[i].Date {
			deduped[len(deduped)-1] = out[i]
			continue
		}
		deduped = append(deduped, out[i])
	}
	out = deduped

	for i := range out {
		b := &out[i]
		if b.Date == "" {
			return nil, fmt.Errorf("datasource: bar %d has no date: %w", i, ErrNoData)
		}
		if b.Close <= 0 || b.High < b.Low {
			return nil, fmt.Errorf("datasource: bar %s is malformed (close=%v high=%v low=%v)",
				b.Date, b.Close, b.High, b.Low)
		}
	}

	closes := make([]float64, len(out))
	volumes := make([]float64, len(out))
	for i, b := range out {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	ma5 := indicators.SMA(closes, 5)
	ma10 := indicators.SMA(closes, 10)
	ma20 := indicators.SMA(closes, 20)

	for i := range out {
		out[i].MA5 = zeroNaN(ma5[i])
		out[i].MA10 = zeroNaN(ma10[i])
		out[i].MA20 = zeroNaN(ma20[i])
		out[i].VolumeRatio = zeroNaN(indicators.VolumeRatio(volumes[:i+1], volumeRatioLookback))
	}
	return out, nil
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
