package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	result := SMA(data, 3)
	require.Len(t, result, len(data))
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
	require.InDelta(t, 2.0, result[2], 1e-9)
	require.InDelta(t, 3.0, result[3], 1e-9)
	require.InDelta(t, 5.0, result[5], 1e-9)
}

func TestSMAShortSeries(t *testing.T) {
	result := SMA([]float64{10, 11}, 5)
	require.Len(t, result, 2)
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
}

func TestEMA(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	result := EMA(data, 3)
	require.Len(t, result, len(data))
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
	require.InDelta(t, 2.0, result[2], 1e-9)
	require.InDelta(t, 3.0, result[3], 1e-9)
	require.InDelta(t, 4.0, result[4], 1e-9)
	require.InDelta(t, 5.0, result[5], 1e-9)
}

func TestMACDShape(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	dif, dea, hist := MACD(closes, 12, 26, 9)
	require.Len(t, dif, len(closes))
	require.Len(t, dea, len(closes))
	require.Len(t, hist, len(closes))

	last := len(closes) - 1
	require.False(t, math.IsNaN(dif[last]))
	require.False(t, math.IsNaN(dea[last]))
	// A steadily rising series keeps the fast EMA above the slow one.
	require.Greater(t, dif[last], 0.0)
	require.InDelta(t, 2*(dif[last]-dea[last]), hist[last], 1e-9)
}

func TestRSI(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 105, 107, 106, 108, 110, 111, 112, 115, 117, 119, 118, 120, 121, 123, 125, 124, 126, 127, 129, 130}
	rsi := RSI(closes, 14)
	require.Len(t, rsi, len(closes))
	require.True(t, math.IsNaN(rsi[13]))
	last := rsi[len(rsi)-1]
	require.False(t, math.IsNaN(last))
	require.Greater(t, last, 50.0)
	require.LessOrEqual(t, last, 100.0)
}

func TestRSIAllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7}
	rsi := RSI(closes, 5)
	require.InDelta(t, 100.0, rsi[len(rsi)-1], 1e-9)
}

func TestVolumeRatio(t *testing.T) {
	volumes := []float64{100, 100, 100, 100, 100, 150}
	require.InDelta(t, 1.5, VolumeRatio(volumes, 5), 1e-9)

	require.True(t, math.IsNaN(VolumeRatio(volumes[:3], 5)))
	require.True(t, math.IsNaN(VolumeRatio([]float64{0, 0, 0, 0, 0, 10}, 5)))
}
