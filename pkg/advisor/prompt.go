package advisor

import (
	"fmt"
	"strings"

	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
)

const systemPrompt = `You are a cautious A-share swing trading assistant. ` +
	`You receive a rule-based technical read of one stock and decide whether ` +
	`to buy, hold or avoid it for the next few sessions. Favour capital ` +
	`preservation: when signals conflict, prefer hold or avoid. Respond with ` +
	`the requested JSON only.`

// renderPrompt lays out the analysis as a compact briefing.
func renderPrompt(res *analyzer.Result, extra string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s (as of %s)\n", res.Symbol, res.Date)
	fmt.Fprintf(&b, "Close: %.2f  MA5: %.2f  MA10: %.2f  MA20: %.2f\n", res.Price, res.MA5, res.MA10, res.MA20)
	fmt.Fprintf(&b, "Trend: %s (strength %.0f)\n", res.Trend, res.TrendStrength)
	fmt.Fprintf(&b, "Bias vs MA5/MA10/MA20: %+.2f%% / %+.2f%% / %+.2f%%\n", res.BiasMA5, res.BiasMA10, res.BiasMA20)
	fmt.Fprintf(&b, "Volume: %s (ratio %.2f)\n", res.Volume, res.VolumeRatio)
	fmt.Fprintf(&b, "MACD: %s (dif %.4f dea %.4f bar %.4f)\n", res.MACDStatus, res.MACDDif, res.MACDDea, res.MACDBar)
	fmt.Fprintf(&b, "RSI 6/12/24: %.1f / %.1f / %.1f (%s)\n", res.RSIShort, res.RSIMid, res.RSILong, res.RSIStatus)

	if len(res.Supports) > 0 {
		fmt.Fprintf(&b, "Supports: %s\n", joinLevels(res.Supports))
	}
	if len(res.Resistances) > 0 {
		fmt.Fprintf(&b, "Resistances: %s\n", joinLevels(res.Resistances))
	}
	if res.ChipAvgCost > 0 {
		fmt.Fprintf(&b, "Chip: avg cost %.2f, %.0f%% holders in profit, concentration %.2f\n",
			res.ChipAvgCost, res.ChipProfitRatio*100, res.ChipConcentration)
	}

	fmt.Fprintf(&b, "Rule signal: %s (score %d/100)\n", res.Signal, res.Score)
	if len(res.Reasons) > 0 {
		fmt.Fprintf(&b, "Rule reasons: %s\n", strings.Join(res.Reasons, "; "))
	}
	if len(res.Risks) > 0 {
		fmt.Fprintf(&b, "Rule risks: %s\n", strings.Join(res.Risks, "; "))
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		fmt.Fprintf(&b, "\nAdditional context:\n%s\n", extra)
	}

	b.WriteString("\nDecide: buy, hold or avoid, with confidence 0-1 and short reasons.")
	return b.String()
}

func joinLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.2f", l)
	}
	return strings.Join(parts, ", ")
}
