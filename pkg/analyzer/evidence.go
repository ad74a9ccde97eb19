package analyzer

import (
	"fmt"
	"strings"
)

// EvidenceKind names the rule family an entry belongs to.
type EvidenceKind string

const (
	EvidenceTrend   EvidenceKind = "trend"
	EvidenceBias    EvidenceKind = "bias"
	EvidenceVolume  EvidenceKind = "volume"
	EvidenceSupport EvidenceKind = "support"
	EvidenceMACD    EvidenceKind = "macd"
	EvidenceRSI     EvidenceKind = "rsi"
)

// EvidenceState tells whether the rule argues for the trade, against it, or
// neither.
type EvidenceState string

const (
	EvidenceTriggered EvidenceState = "triggered"
	EvidenceNeutral   EvidenceState = "neutral"
	EvidenceLapsed    EvidenceState = "lapsed"
)

// Evidence records one rule evaluation behind the composite score, so a
// reader can audit where every point came from.
type Evidence struct {
	Rule      string        `json:"rule"`
	Kind      EvidenceKind  `json:"kind"`
	State     EvidenceState `json:"state"`
	Condition string        `json:"condition"` // what the rule looks for
	Actual    string        `json:"actual"`    // what it saw
	Weight    int           `json:"weight"`    // max points the rule can add
	Score     int           `json:"score"`     // points it actually added
	Risk      string        `json:"risk,omitempty"`
}

// EvidenceSummary aggregates the per-rule entries. Score always equals the
// composite Result.Score.
type EvidenceSummary struct {
	Score     int        `json:"score"`
	Triggered int        `json:"triggered"`
	Lapsed    int        `json:"lapsed"`
	Items     []Evidence `json:"items"`
}

// buildEvidence reconstructs the scoring trail from the classified result.
// The contributions here must stay in lockstep with generateSignal.
func (a *Analyzer) buildEvidence(res *Result) *EvidenceSummary {
	items := make([]Evidence, 0, 8)

	trendScores := map[TrendStatus]int{
		TrendStrongBull:    30,
		TrendBull:          26,
		TrendWeakBull:      18,
		TrendConsolidation: 12,
		TrendWeakBear:      8,
		TrendBear:          4,
		TrendStrongBear:    0,
	}
	trend := Evidence{
		Rule:      "ma_alignment",
		Kind:      EvidenceTrend,
		State:     EvidenceNeutral,
		Condition: "MA5 > MA10 > MA20",
		Actual:    string(res.Trend),
		Weight:    30,
		Score:     trendScores[res.Trend],
	}
	switch res.Trend {
	case TrendStrongBull, TrendBull:
		trend.State = EvidenceTriggered
	case TrendBear, TrendStrongBear:
		trend.State = EvidenceLapsed
		trend.Risk = "trend points down, the long setup is invalid"
	}
	items = append(items, trend)

	bias := res.BiasMA5
	be := Evidence{
		Rule:      "ma5_extension",
		Kind:      EvidenceBias,
		Condition: fmt.Sprintf("bias within -3%% .. +%.0f%% of MA5", a.cfg.BiasThreshold),
		Actual:    fmt.Sprintf("%+.1f%%", bias),
		Weight:    20,
	}
	switch {
	case bias < -5:
		be.Score, be.State = 8, EvidenceLapsed
		be.Risk = "deep break below MA5, support may be gone"
	case bias < -3:
		be.Score, be.State = 16, EvidenceNeutral
	case bias < 0:
		be.Score, be.State = 20, EvidenceTriggered
	case bias < 2:
		be.Score, be.State = 18, EvidenceTriggered
	case bias < a.cfg.BiasThreshold:
		be.Score, be.State = 14, EvidenceNeutral
	default:
		be.Score, be.State = 4, EvidenceLapsed
		be.Risk = "overextended above MA5, chasing risk"
	}
	items = append(items, be)

	volumeScores := map[VolumeStatus]int{
		VolumeShrinkDn: 15,
		VolumeHeavyUp:  12,
		VolumeNormal:   10,
		VolumeShrinkUp: 6,
		VolumeHeavyDn:  0,
	}
	ve := Evidence{
		Rule:      "volume_character",
		Kind:      EvidenceVolume,
		State:     EvidenceNeutral,
		Condition: "shrinking volume on pullback",
		Actual:    fmt.Sprintf("%s (ratio %.2f)", res.Volume, res.VolumeRatio),
		Weight:    15,
		Score:     volumeScores[res.Volume],
	}
	switch res.Volume {
	case VolumeShrinkDn, VolumeHeavyUp:
		ve.State = EvidenceTriggered
	case VolumeHeavyDn:
		ve.State = EvidenceLapsed
		ve.Risk = "distribution volume, sellers in control"
	}
	items = append(items, ve)

	supportScore := 0
	if res.SupportMA5 {
		supportScore += 5
	}
	if res.SupportMA10 {
		supportScore += 5
	}
	se := Evidence{
		Rule:      "ma_support",
		Kind:      EvidenceSupport,
		State:     EvidenceNeutral,
		Condition: "price holding MA5 or MA10",
		Actual:    fmt.Sprintf("ma5=%v ma10=%v", res.SupportMA5, res.SupportMA10),
		Weight:    10,
		Score:     supportScore,
	}
	if supportScore > 0 {
		se.State = EvidenceTriggered
	}
	items = append(items, se)

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
	me := Evidence{
		Rule:      "macd_state",
		Kind:      EvidenceMACD,
		State:     EvidenceNeutral,
		Condition: "DIF above DEA, ideally above zero",
		Actual:    fmt.Sprintf("%s (dif %.3f dea %.3f)", res.MACDStatus, res.MACDDif, res.MACDDea),
		Weight:    15,
		Score:     macdScores[res.MACDStatus],
	}
	switch res.MACDStatus {
	case MACDGoldenCrossZero, MACDGoldenCross, MACDCrossingZeroUp, MACDBullish:
		me.State = EvidenceTriggered
	case MACDDeathCross, MACDCrossingZeroDn:
		me.State = EvidenceLapsed
		me.Risk = "momentum rolling over"
	}
	items = append(items, me)

	rsiScores := map[RSIStatus]int{
		RSIOversold:   10,
		RSIStrong:     8,
		RSINeutral:    5,
		RSIWeak:       3,
		RSIOverbought: 0,
	}
	re := Evidence{
		Rule:      "rsi_zone",
		Kind:      EvidenceRSI,
		State:     EvidenceNeutral,
		Condition: fmt.Sprintf("medium RSI below %.0f", a.cfg.RSIOverbought),
		Actual:    fmt.Sprintf("%s (%.1f)", res.RSIStatus, res.RSIMid),
		Weight:    10,
		Score:     rsiScores[res.RSIStatus],
	}
	switch res.RSIStatus {
	case RSIOversold, RSIStrong:
		re.State = EvidenceTriggered
	case RSIOverbought:
		re.State = EvidenceLapsed
		re.Risk = "overbought, pullback likely"
	}
	items = append(items, re)

	sum := &EvidenceSummary{Score: res.Score, Items: items}
	for _, item := range items {
		switch item.State {
		case EvidenceTriggered:
			sum.Triggered++
		case EvidenceLapsed:
			sum.Lapsed++
		}
	}
	return sum
}

// FormatEvidenceTable renders the summary as a markdown table for reports
// and notifications.
func FormatEvidenceTable(sum *EvidenceSummary) string {
	if sum == nil || len(sum.Items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Score %d/100, %d rules for, %d against\n\n", sum.Score, sum.Triggered, sum.Lapsed)
	b.WriteString("| Rule | State | Actual | Points |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, item := range sum.Items {
		fmt.Fprintf(&b, "| %s | %s | %s | %d/%d |\n", item.Rule, item.State, item.Actual, item.Score, item.Weight)
	}
	return b.String()
}
