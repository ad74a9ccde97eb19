package notify

import (
	"fmt"
	"strings"

	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
)

func renderDecision(task *pipeline.Task) (title, text string) {
	d := task.Decision
	title = fmt.Sprintf("%s %s (%.0f%%)", strings.ToUpper(string(d.Action)), d.Symbol, d.Confidence*100)

	var b strings.Builder
	if a := task.Analysis; a != nil {
		fmt.Fprintf(&b, "%s @ %.2f (%s)\n", a.Symbol, a.Price, a.Date)
		if a.QuoteLast > 0 {
			fmt.Fprintf(&b, "Live: %.2f (%+.2f%%)\n", a.QuoteLast, a.QuotePctChg)
		}
		fmt.Fprintf(&b, "Trend: %s | Volume: %s | Signal: %s (%d/100)\n", a.Trend, a.Volume, a.Signal, a.Score)
	}
	fmt.Fprintf(&b, "Decision: %s, confidence %.2f (%s)\n", d.Action, d.Confidence, d.Source)
	for _, reason := range d.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

func renderReport(report *pipeline.Report) (title, text string) {
	title = fmt.Sprintf("Daily analysis %s: %d ok, %d failed", report.TradeDate, report.Completed, report.Failed)

	var b strings.Builder
	b.WriteString(report.Summary())
	if failed := report.FailedTasks(); len(failed) > 0 {
		b.WriteString("\nFailures:\n")
		for _, t := range failed {
			fmt.Fprintf(&b, "- %s at %s: %s\n", t.Symbol, t.FailedStage, t.ErrText)
		}
	}
	return title, strings.TrimRight(b.String(), "\n")
}
