package indicators

import "math"

// SMA produces the simple moving average for the supplied closes.
// Positions without a full window are NaN.
func SMA(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) == 0 {
		return []float64{}
	}
	result := make([]float64, len(closes))
	for i := range result {
		result[i] = math.NaN()
	}
	var sum float64
	for i, v := range closes {
		sum += v
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result
}

// EMA produces the exponential moving average for the supplied closes.
func EMA(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) == 0 {
		return []float64{}
	}
	result := make([]float64, len(closes))
	for i := range result {
		result[i] = math.NaN()
	}
	if len(closes) < period {
		return result
	}
	multiplier := 2.0 / float64(period+1)

	var seed float64
	for i := 0; i < period; i++ {
		seed += closes[i]
	}
	seed /= float64(period)
	result[period-1] = seed

	for i := period; i < len(closes); i++ {
		prev := result[i-1]
		result[i] = (closes[i]-prev)*multiplier + prev
	}
	return result
}

// MACD returns DIF, DEA and histogram series using the supplied fast/slow/signal periods.
func MACD(closes []float64, fast, slow, signal int) (dif, dea, hist []float64) {
	if len(closes) == 0 {
		return []float64{}, []float64{}, []float64{}
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	dif = make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			dif[i] = math.NaN()
		} else {
			dif[i] = emaFast[i] - emaSlow[i]
		}
	}

	// Seed the signal line from the first valid DIF values.
	dea = make([]float64, len(closes))
	for i := range dea {
		dea[i] = math.NaN()
	}
	start := -1
	for i, v := range dif {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start >= 0 && start+signal <= len(dif) {
		trimmed := EMA(dif[start:], signal)
		for i, v := range trimmed {
			dea[start+i] = v
		}
	}

	hist = make([]float64, len(closes))
	for i := range hist {
		if math.IsNaN(dif[i]) || math.IsNaN(dea[i]) {
			hist[i] = math.NaN()
		} else {
			hist[i] = 2 * (dif[i] - dea[i])
		}
	}
	return dif, dea, hist
}

// RSI computes the Relative Strength Index across the supplied closes.
func RSI(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) == 0 {
		return []float64{}
	}
	rsi := make([]float64, len(closes))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if len(closes) <= period {
		return rsi
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	rsi[period] = computeRSI(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain := math.Max(change, 0)
		loss := math.Max(-change, 0)

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		rsi[i] = computeRSI(avgGain, avgLoss)
	}
	return rsi
}

// VolumeRatio reports today's volume relative to the average volume of the
// preceding lookback sessions. Returns NaN when history is insufficient.
func VolumeRatio(volumes []float64, lookback int) float64 {
	if lookback <= 0 || len(volumes) < lookback+1 {
		return math.NaN()
	}
	var sum float64
	for _, v := range volumes[len(volumes)-lookback-1 : len(volumes)-1] {
		sum += v
	}
	avg := sum / float64(lookback)
	if avg == 0 {
		return math.NaN()
	}
	return volumes[len(volumes)-1] / avg
}

func computeRSI(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
