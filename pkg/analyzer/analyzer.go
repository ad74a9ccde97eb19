// Package analyzer turns normalized daily history into a rule-based trend
// read: moving-average alignment, extension above MA5, volume character,
// MACD and RSI state, and a composite 0-100 score with a trading stance.
package analyzer

import (
	"fmt"
	"math"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
	"github.com/HinaTK/daily-stock-analysis/pkg/indicators"
)

// TrendStatus classifies the moving-average alignment.
type TrendStatus string

const (
	TrendStrongBull    TrendStatus = "strong_bull" // MA5>MA10>MA20 with the spread widening
	TrendBull          TrendStatus = "bull"
	TrendWeakBull      TrendStatus = "weak_bull"
	TrendConsolidation TrendStatus = "consolidation"
	TrendWeakBear      TrendStatus = "weak_bear"
	TrendBear          TrendStatus = "bear"
	TrendStrongBear    TrendStatus = "strong_bear"
)

// VolumeStatus classifies the day's volume against its five-day average.
type VolumeStatus string

const (
	VolumeHeavyUp  VolumeStatus = "heavy_volume_up"
	VolumeHeavyDn  VolumeStatus = "heavy_volume_down"
	VolumeShrinkUp VolumeStatus = "shrink_volume_up"
	// VolumeShrinkDn is the drying-up pullback, the preferred entry setup.
	VolumeShrinkDn VolumeStatus = "shrink_volume_down"
	VolumeNormal   VolumeStatus = "normal"
)

// MACDStatus classifies the DIF/DEA relationship.
type MACDStatus string

const (
	MACDGoldenCrossZero MACDStatus = "golden_cross_above_zero"
	MACDGoldenCross     MACDStatus = "golden_cross"
	MACDBullish         MACDStatus = "bullish"
	MACDCrossingZeroUp  MACDStatus = "crossing_zero_up"
	MACDCrossingZeroDn  MACDStatus = "crossing_zero_down"
	MACDBearish         MACDStatus = "bearish"
	MACDDeathCross      MACDStatus = "death_cross"
	MACDNeutral         MACDStatus = "neutral"
)

// RSIStatus classifies the medium RSI reading.
type RSIStatus string

const (
	RSIOverbought RSIStatus = "overbought"
	RSIStrong     RSIStatus = "strong"
	RSINeutral    RSIStatus = "neutral"
	RSIWeak       RSIStatus = "weak"
	RSIOversold   RSIStatus = "oversold"
)

// Signal is the composite stance derived from the score and trend.
type Signal string

const (
	SignalStrongBuy  Signal = "strong_buy"
	SignalBuy        Signal = "buy"
	SignalHold       Signal = "hold"
	SignalWait       Signal = "wait"
	SignalSell       Signal = "sell"
	SignalStrongSell Signal = "strong_sell"
)

// Result is the per-symbol analysis output.
type Result struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"` // trading date of the latest bar

	Trend         TrendStatus `json:"trend"`
	TrendStrength float64     `json:"trend_strength"` // 0-100

	Price float64 `json:"price"`
	MA5   float64 `json:"ma5"`
	MA10  float64 `json:"ma10"`
	MA20  float64 `json:"ma20"`

	BiasMA5  float64 `json:"bias_ma5"` // percent
	BiasMA10 float64 `json:"bias_ma10"`
	BiasMA20 float64 `json:"bias_ma20"`

	Volume      VolumeStatus `json:"volume_status"`
	VolumeRatio float64      `json:"volume_ratio"`

	SupportMA5  bool      `json:"support_ma5"`
	SupportMA10 bool      `json:"support_ma10"`
	Supports    []float64 `json:"supports,omitempty"`
	Resistances []float64 `json:"resistances,omitempty"`

	MACDDif    float64    `json:"macd_dif"`
	MACDDea    float64    `json:"macd_dea"`
	MACDBar    float64    `json:"macd_bar"`
	MACDStatus MACDStatus `json:"macd_status"`

	RSIShort  float64   `json:"rsi_short"`
	RSIMid    float64   `json:"rsi_mid"`
	RSILong   float64   `json:"rsi_long"`
	RSIStatus RSIStatus `json:"rsi_status"`

	Signal  Signal   `json:"signal"`
	Score   int      `json:"score"` // 0-100
	Reasons []string `json:"reasons,omitempty"`
	Risks   []string `json:"risks,omitempty"`

	ChipAvgCost       float64 `json:"chip_avg_cost,omitempty"`
	ChipProfitRatio   float64 `json:"chip_profit_ratio,omitempty"`
	ChipConcentration float64 `json:"chip_concentration,omitempty"`

	// Realtime overlay, present when a snapshot quote was fetched.
	QuoteName   string  `json:"quote_name,omitempty"`
	QuoteLast   float64 `json:"quote_last,omitempty"`
	QuotePctChg float64 `json:"quote_pct_chg,omitempty"`

	Evidence *EvidenceSummary `json:"evidence,omitempty"`
}

// Analyzer applies the configured rule set to daily history.
type Analyzer struct {
	cfg Config
}

// New constructs an Analyzer, filling unset config fields with defaults.
func New(cfg Config) (*Analyzer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze evaluates one symbol. Bars must be oldest first with the derived
// MA and volume-ratio fields already populated.
func (a *Analyzer) Analyze(symbol string, bars []datasource.DailyBar) (*Result, error) {
	if len(bars) < a.cfg.MinBars {
		return nil, fmt.Errorf("analyzer: %s has %d bars, need at least %d", symbol, len(bars), a.cfg.MinBars)
	}

	latest := bars[len(bars)-1]
	res := &Result{
		Symbol: symbol,
		Date:   latest.Date,
		Price:  latest.Close,
		MA5:    latest.MA5,
		MA10:   latest.MA10,
		MA20:   latest.MA20,
	}

	a.analyzeTrend(bars, res)
	a.calculateBias(res)
	a.analyzeVolume(bars, res)
	a.analyzeSupportResistance(bars, res)
	a.analyzeMACD(bars, res)
	a.analyzeRSI(bars, res)
	a.generateSignal(res)
	res.Evidence = a.buildEvidence(res)
	return res, nil
}

// ApplyChip folds an optional chip distribution into the support and
// resistance picture. It does not change the score.
func (a *Analyzer) ApplyChip(res *Result, chip *datasource.ChipDistribution) {
	if res == nil || chip == nil {
		return
	}
	res.ChipAvgCost = chip.AvgCost
	res.ChipProfitRatio = chip.ProfitRatio
	res.ChipConcentration = chip.Concentration
	if chip.Support > 0 && chip.Support < res.Price {
		res.Supports = append(res.Supports, chip.Support)
	}
	if chip.Resistance > res.Price {
		res.Resistances = append(res.Resistances, chip.Resistance)
	}
}

// ApplyQuote overlays the realtime snapshot on the end-of-day read. The
// score is untouched; the snapshot refreshes the price picture and flags a
// sharp intraday drop.
func (a *Analyzer) ApplyQuote(res *Result, quote *datasource.Quote) {
	if res == nil || quote == nil || quote.Last <= 0 {
		return
	}
	res.QuoteName = quote.Name
	res.QuoteLast = quote.Last
	if quote.PrevClose > 0 {
		res.QuotePctChg = (quote.Last - quote.PrevClose) / quote.PrevClose * 100
	}
	if res.QuotePctChg < -5 {
		res.Risks = append(res.Risks, fmt.Sprintf("down %.1f%% intraday", -res.QuotePctChg))
	}
}

func (a *Analyzer) analyzeTrend(bars []datasource.DailyBar, res *Result) {
	ma5, ma10, ma20 := res.MA5, res.MA10, res.MA20
	prev := bars[len(bars)-5]

	switch {
	case ma5 > ma10 && ma10 > ma20:
		prevSpread := spreadPct(prev.MA5, prev.MA20)
		currSpread := spreadPct(ma5, ma20)
		if currSpread > prevSpread && currSpread > 5 {
			res.Trend = TrendStrongBull
			res.TrendStrength = 90
		} else {
			res.Trend = TrendBull
			res.TrendStrength = 75
		}
	case ma5 > ma10 && ma10 <= ma20:
		res.Trend = TrendWeakBull
		res.TrendStrength = 55
	case ma5 < ma10 && ma10 < ma20:
		prevSpread := spreadPct(prev.MA20, prev.MA5)
		currSpread := spreadPct(ma20, ma5)
		if currSpread > prevSpread && currSpread > 5 {
			res.Trend = TrendStrongBear
			res.TrendStrength = 10
		} else {
			res.Trend = TrendBear
			res.TrendStrength = 25
		}
	case ma5 < ma10 && ma10 >= ma20:
		res.Trend = TrendWeakBear
		res.TrendStrength = 40
	default:
		res.Trend = TrendConsolidation
		res.TrendStrength = 50
	}
}

// spreadPct is (upper-lower)/lower in percent, 0 when the base is not usable.
func spreadPct(upper, lower float64) float64 {
	if lower <= 0 {
		return 0
	}
	return (upper - lower) / lower * 100
}

func (a *Analyzer) calculateBias(res *Result) {
	if res.MA5 > 0 {
		res.BiasMA5 = (res.Price - res.MA5) / res.MA5 * 100
	}
	if res.MA10 > 0 {
		res.BiasMA10 = (res.Price - res.MA10) / res.MA10 * 100
	}
	if res.MA20 > 0 {
		res.BiasMA20 = (res.Price - res.MA20) / res.MA20 * 100
	}
}

func (a *Analyzer) analyzeVolume(bars []datasource.DailyBar, res *Result) {
	latest := bars[len(bars)-1]
	res.VolumeRatio = latest.VolumeRatio
	if res.VolumeRatio == 0 {
		volumes := make([]float64, len(bars))
		for i, b := range bars {
			volumes[i] = b.Volume
		}
		ratio := indicators.VolumeRatio(volumes, 5)
		if !math.IsNaN(ratio) {
			res.VolumeRatio = ratio
		}
	}

	prevClose := bars[len(bars)-2].Close
	priceUp := prevClose > 0 && latest.Close > prevClose

	switch {
	case res.VolumeRatio >= a.cfg.VolumeHeavyRatio && priceUp:
		res.Volume = VolumeHeavyUp
	case res.VolumeRatio >= a.cfg.VolumeHeavyRatio:
		res.Volume = VolumeHeavyDn
	case res.VolumeRatio > 0 && res.VolumeRatio <= a.cfg.VolumeShrinkRatio && priceUp:
		res.Volume = VolumeShrinkUp
	case res.VolumeRatio > 0 && res.VolumeRatio <= a.cfg.VolumeShrinkRatio:
		res.Volume = VolumeShrinkDn
	default:
		res.Volume = VolumeNormal
	}
}

func (a *Analyzer) analyzeSupportResistance(bars []datasource.DailyBar, res *Result) {
	price := res.Price

	if res.MA5 > 0 {
		if math.Abs(price-res.MA5)/res.MA5 <= a.cfg.MASupportTolerance && price >= res.MA5 {
			res.SupportMA5 = true
			res.Supports = append(res.Supports, res.MA5)
		}
	}
	if res.MA10 > 0 {
		if math.Abs(price-res.MA10)/res.MA10 <= a.cfg.MASupportTolerance && price >= res.MA10 {
			res.SupportMA10 = true
			res.Supports = append(res.Supports, res.MA10)
		}
	}
	if res.MA20 > 0 && price >= res.MA20 {
		res.Supports = append(res.Supports, res.MA20)
	}

	if len(bars) >= 20 {
		high := bars[len(bars)-20].High
		for _, b := range bars[len(bars)-20:] {
			if b.High > high {
				high = b.High
			}
		}
		if high > price {
			res.Resistances = append(res.Resistances, high)
		}
	}
}

func (a *Analyzer) analyzeMACD(bars []datasource.DailyBar, res *Result) {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	dif, dea, hist := indicators.MACD(closes, a.cfg.MACDFast, a.cfg.MACDSlow, a.cfg.MACDSignal)
	n := len(dif)
	if n < 2 {
		res.MACDStatus = MACDNeutral
		return
	}

	res.MACDDif = dif[n-1]
	res.MACDDea = dea[n-1]
	res.MACDBar = hist[n-1]

	prevGap := dif[n-2] - dea[n-2]
	currGap := res.MACDDif - res.MACDDea
	goldenCross := prevGap <= 0 && currGap > 0
	deathCross := prevGap >= 0 && currGap < 0
	crossingUp := dif[n-2] <= 0 && res.MACDDif > 0
	crossingDn := dif[n-2] >= 0 && res.MACDDif < 0

	switch {
	case goldenCross && res.MACDDif > 0:
		res.MACDStatus = MACDGoldenCrossZero
	case crossingUp:
		res.MACDStatus = MACDCrossingZeroUp
	case goldenCross:
		res.MACDStatus = MACDGoldenCross
	case deathCross:
		res.MACDStatus = MACDDeathCross
	case crossingDn:
		res.MACDStatus = MACDCrossingZeroDn
	case res.MACDDif > 0 && res.MACDDea > 0:
		res.MACDStatus = MACDBullish
	case res.MACDDif < 0 && res.MACDDea < 0:
		res.MACDStatus = MACDBearish
	default:
		res.MACDStatus = MACDNeutral
	}
}

func (a *Analyzer) analyzeRSI(bars []datasource.DailyBar, res *Result) {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	periods := a.cfg.RSIPeriods
	values := make([]float64, len(periods))
	for i, p := range periods {
		series := indicators.RSI(closes, p)
		if len(series) == 0 {
			values[i] = 50
			continue
		}
		values[i] = series[len(series)-1]
	}
	res.RSIShort, res.RSIMid, res.RSILong = values[0], values[1], values[2]

	// The medium period drives the classification.
	mid := res.RSIMid
	switch {
	case mid > a.cfg.RSIOverbought:
		res.RSIStatus = RSIOverbought
	case mid > 60:
		res.RSIStatus = RSIStrong
	case mid >= 40:
		res.RSIStatus = RSINeutral
	case mid >= a.cfg.RSIOversold:
		res.RSIStatus = RSIWeak
	default:
		res.RSIStatus = RSIOversold
	}
}

// generateSignal folds the component reads into a 0-100 score. Weights:
// trend 30, extension 20, volume 15, MACD 15, support 10, RSI 10.
func (a *Analyzer) generateSignal(res *Result) {
	score := 0
	var reasons, risks []string

	trendScores := map[TrendStatus]int{
		TrendStrongBull:    30,
		TrendBull:          26,
		TrendWeakBull:      18,
		TrendConsolidation: 12,
		TrendWeakBear:      8,
		TrendBear:          4,
		TrendStrongBear:    0,
	}
	score += trendScores[res.Trend]
	switch res.Trend {
	case TrendStrongBull, TrendBull:
		reasons = append(reasons, fmt.Sprintf("moving averages aligned upward (%s)", res.Trend))
	case TrendBear, TrendStrongBear:
		risks = append(risks, fmt.Sprintf("moving averages aligned downward (%s)", res.Trend))
	}

	bias := res.BiasMA5
	switch {
	case bias < -5:
		score += 8
		risks = append(risks, fmt.Sprintf("%.1f%% below MA5, possible breakdown", -bias))
	case bias < -3:
		score += 16
		reasons = append(reasons, fmt.Sprintf("pulled back %.1f%% below MA5, watch for support", -bias))
	case bias < 0:
		score += 20
		reasons = append(reasons, fmt.Sprintf("slightly below MA5 (%.1f%%), pullback entry zone", -bias))
	case bias < 2:
		score += 18
		reasons = append(reasons, fmt.Sprintf("hugging MA5 (+%.1f%%)", bias))
	case bias < a.cfg.BiasThreshold:
		score += 14
		reasons = append(reasons, fmt.Sprintf("slightly extended above MA5 (+%.1f%%)", bias))
	default:
		score += 4
		risks = append(risks, fmt.Sprintf("extended %.1f%% above MA5, do not chase", bias))
	}

	volumeScores := map[VolumeStatus]int{
		VolumeShrinkDn: 15,
		VolumeHeavyUp:  12,
		VolumeNormal:   10,
		VolumeShrinkUp: 6,
		VolumeHeavyDn:  0,
	}
	score += volumeScores[res.Volume]
	switch res.Volume {
	case VolumeShrinkDn:
		reasons = append(reasons, "volume drying up on the pullback")
	case VolumeHeavyDn:
		risks = append(risks, "heavy selling volume")
	}

	if res.SupportMA5 {
		score += 5
		reasons = append(reasons, "holding MA5 support")
	}
	if res.SupportMA10 {
		score += 5
		reasons = append(reasons, "holding MA10 support")
	}

	macdScores := map[MACDStatus]int{
		MACDGoldenCrossZero: 15,
		MACDGoldenCross:     12,
		MACDCrossingZeroUp:  10,
		MACDBullish:         8,
		MACDNeutral:         5,
		MACDBearish:         2,
		MACDCrossingZeroDn:  0,
		MACDDeathCross:      0,
	}
	score += macdScores[res.MACDStatus]
	switch res.MACDStatus {
	case MACDGoldenCrossZero:
		reasons = append(reasons, "MACD golden cross above the zero line")
	case MACDGoldenCross:
		reasons = append(reasons, "MACD golden cross")
	case MACDDeathCross, MACDCrossingZeroDn:
		risks = append(risks, fmt.Sprintf("MACD turning down (%s)", res.MACDStatus))
	}

	rsiScores := map[RSIStatus]int{
		RSIOversold:   10,
		RSIStrong:     8,
		RSINeutral:    5,
		RSIWeak:       3,
		RSIOverbought: 0,
	}
	score += rsiScores[res.RSIStatus]
	switch res.RSIStatus {
	case RSIOversold:
		reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f)", res.RSIMid))
	case RSIOverbought:
		risks = append(risks, fmt.Sprintf("RSI overbought (%.1f)", res.RSIMid))
	}

	res.Score = score
	res.Reasons = reasons
	res.Risks = risks

	bullish := res.Trend == TrendStrongBull || res.Trend == TrendBull
	switch {
	case score >= 75 && bullish:
		res.Signal = SignalStrongBuy
	case score >= 60 && (bullish || res.Trend == TrendWeakBull):
		res.Signal = SignalBuy
	case score >= 45:
		res.Signal = SignalHold
	case score >= 30:
		res.Signal = SignalWait
	case res.Trend == TrendBear || res.Trend == TrendStrongBear:
		res.Signal = SignalStrongSell
	default:
		res.Signal = SignalSell
	}
}
