package sector

import "fmt"

// Config tunes the board scoring thresholds.
type Config struct {
	// LeaderThreshold is the relative-strength cut, in percent, above
	// which a board counts as leading the index.
	LeaderThreshold float64 `json:",default=3.0"`
	// LimitUpRatio is the limit-up share of constituents that marks a
	// hot board.
	LimitUpRatio float64 `json:",default=0.1"`
	// FlowThreshold is the main-flow cut, in CNY 100M, separating flat
	// from directional flow.
	FlowThreshold float64 `json:",default=1.0"`
}

func (c Config) withDefaults() Config {
	if c.LeaderThreshold <= 0 {
		c.LeaderThreshold = 3.0
	}
	if c.LimitUpRatio <= 0 {
		c.LimitUpRatio = 0.1
	}
	if c.FlowThreshold <= 0 {
		c.FlowThreshold = 1.0
	}
	return c
}

// Analyzer scores boards. It is pure; fetching lives in the Scanner.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer with defaults applied.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.withDefaults()}
}

// Analyze scores one board snapshot. Weights: relative strength 30,
// limit-up ratio 20, breadth 20, board strength 20, turnover 10.
func (a *Analyzer) Analyze(board Board) *Analysis {
	res := &Analysis{Board: board}

	res.Status = a.marketStatus(board)

	score := 0
	var evidence []Evidence

	rs := board.RelStrength
	var rsScore int
	switch {
	case rs > 5:
		rsScore = 30
	case rs > 3:
		rsScore = 25
	case rs > 0:
		rsScore = 20
	case rs > -3:
		rsScore = 10
	}
	score += rsScore
	evidence = append(evidence, Evidence{
		Rule: "relative_strength", Value: rs, Threshold: a.cfg.LeaderThreshold,
		Positive: rs > 0, Score: rsScore, Weight: 30,
	})

	if board.StockCount > 0 {
		ratio := float64(board.LimitUpCount) / float64(board.StockCount)
		var luScore int
		switch {
		case ratio >= 0.15:
			luScore = 20
		case ratio >= 0.1:
			luScore = 15
		case ratio >= 0.05:
			luScore = 10
		default:
			luScore = 5
		}
		score += luScore
		evidence = append(evidence, Evidence{
			Rule: "limit_up_ratio", Value: ratio, Threshold: a.cfg.LimitUpRatio,
			Positive: ratio > 0.05, Score: luScore, Weight: 20,
		})
	}

	if total := board.UpCount + board.DownCount; total > 0 {
		ratio := float64(board.UpCount) / float64(total)
		var upScore int
		switch {
		case ratio >= 0.7:
			upScore = 20
		case ratio >= 0.6:
			upScore = 15
		case ratio >= 0.4:
			upScore = 10
		default:
			upScore = 5
		}
		score += upScore
		evidence = append(evidence, Evidence{
			Rule: "breadth", Value: ratio, Threshold: 0.6,
			Positive: ratio > 0.5, Score: upScore, Weight: 20,
		})
	}

	strength := board.StrengthScore
	var stScore int
	switch {
	case strength >= 80:
		stScore = 20
	case strength >= 60:
		stScore = 15
	case strength >= 40:
		stScore = 10
	default:
		stScore = 5
	}
	score += stScore
	evidence = append(evidence, Evidence{
		Rule: "board_strength", Value: strength, Threshold: 60,
		Positive: strength > 50, Score: stScore, Weight: 20,
	})

	var volScore int
	switch {
	case board.TurnoverRate >= 3:
		volScore = 10
	case board.TurnoverRate >= 2:
		volScore = 7
	case board.TurnoverRate >= 1:
		volScore = 5
	default:
		volScore = 3
	}
	score += volScore
	evidence = append(evidence, Evidence{
		Rule: "turnover", Value: board.TurnoverRate, Threshold: 2.0,
		Positive: board.TurnoverRate > 1, Score: volScore, Weight: 10,
	})

	res.Score = score
	res.Evidence = evidence
	res.Grade = gradeFor(score, res.Status)
	res.FlowStrength = flowFor(board.MainFlow)
	res.Risks, res.Opportunities = a.riskOpportunity(board)
	res.Advice, res.Confidence, res.Allocation = adviceFor(res.Grade, res.FlowStrength)
	return res
}

func (a *Analyzer) marketStatus(board Board) MarketStatus {
	rs := board.RelStrength
	switch {
	case rs > a.cfg.LeaderThreshold:
		return StatusLeaderUp
	case rs > 0:
		return StatusFollowUp
	case rs < -a.cfg.LeaderThreshold:
		return StatusLeaderDown
	case rs < 0:
		return StatusFollowDown
	default:
		return StatusFlat
	}
}

func gradeFor(score int, status MarketStatus) Grade {
	switch {
	case score >= 80 && status == StatusLeaderUp:
		return GradeStrongBullish
	case score >= 60 && (status == StatusLeaderUp || status == StatusFollowUp):
		return GradeBullish
	case score >= 40:
		return GradeNeutral
	case score >= 20:
		return GradeBearish
	default:
		return GradeStrongBearish
	}
}

func flowFor(flow float64) FlowStrength {
	switch {
	case flow > 5:
		return FlowBigInflow
	case flow > 1:
		return FlowMildInflow
	case flow >= -1:
		return FlowFlat
	case flow >= -5:
		return FlowMildOut
	default:
		return FlowBigOut
	}
}

func (a *Analyzer) riskOpportunity(board Board) (risks, opportunities []string) {
	if board.ChangePct > 5 {
		risks = append(risks, fmt.Sprintf("board up %.1f%% in one session, pullback risk", board.ChangePct))
	}
	if board.LimitDownCount*2 > board.LimitUpCount {
		risks = append(risks, "limit-downs outweigh limit-ups")
	}
	if board.RelStrength < -a.cfg.LeaderThreshold {
		risks = append(risks, "trailing the broad index")
	}

	if board.ChangePct < -3 && board.RelStrength > -1 {
		opportunities = append(opportunities, "holding up against a weak tape, may bounce first")
	}
	if board.StockCount > 0 && float64(board.LimitUpCount) > float64(board.StockCount)*a.cfg.LimitUpRatio {
		opportunities = append(opportunities, "heavy limit-up count, speculative heat")
	}
	if total := board.UpCount + board.DownCount; total > 0 && float64(board.UpCount)/float64(total) > 0.6 {
		opportunities = append(opportunities, "advancers dominate, sentiment leans long")
	}
	return risks, opportunities
}

func adviceFor(grade Grade, flow FlowStrength) (advice, confidence, allocation string) {
	switch grade {
	case GradeStrongBullish:
		if flow == FlowBigInflow || flow == FlowMildInflow {
			return "increase", "high", "add toward target weight"
		}
		return "hold", "medium", "keep current weight"
	case GradeBullish:
		return "hold", "medium", "keep current weight"
	case GradeNeutral:
		return "watch", "medium", "wait for a clearer signal"
	case GradeBearish:
		return "reduce", "medium", "trim to cut exposure"
	default:
		return "exit", "high", "cut to minimal weight"
	}
}

// LinkView relates one watched symbol to its scored board.
func LinkView(symbol, name string, changePct float64, analysis *Analysis) View {
	v := View{
		Symbol:     symbol,
		Name:       name,
		ChangePct:  changePct,
		BoardCode:  analysis.Board.Code,
		BoardName:  analysis.Board.Name,
		BoardGrade: analysis.Grade,
		Impact:     "neutral",
	}
	v.RelPerformance = changePct - analysis.Board.ChangePct
	switch analysis.Grade {
	case GradeStrongBullish, GradeBullish:
		v.Impact = "positive"
	case GradeBearish, GradeStrongBearish:
		v.Impact = "negative"
	}
	return v
}
