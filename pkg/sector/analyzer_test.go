package sector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hotBoard() Board {
	return Board{
		Code:         "BK0475",
		Name:         "银行",
		Kind:         KindIndustry,
		ChangePct:    3.2,
		TurnoverRate: 2.4,
		MainFlow:     6.8,
		UpCount:      38,
		DownCount:    4,
		LimitUpCount: 7,
		StockCount:   42,

		StrengthScore: 85,
		RelStrength:   5.5,
	}
}

func TestAnalyzeStrongBoard(t *testing.T) {
	a := NewAnalyzer(Config{})
	res := a.Analyze(hotBoard())

	require.Equal(t, StatusLeaderUp, res.Status)
	// 30 rel strength + 20 limit-ups + 20 breadth + 20 strength + 7 turnover.
	require.Equal(t, 97, res.Score)
	require.Equal(t, GradeStrongBullish, res.Grade)
	require.Equal(t, FlowBigInflow, res.FlowStrength)
	require.Equal(t, "increase", res.Advice)
	require.Equal(t, "high", res.Confidence)
	require.NotEmpty(t, res.Opportunities)

	require.Len(t, res.Evidence, 5)
	total := 0
	for _, e := range res.Evidence {
		total += e.Score
		require.LessOrEqual(t, e.Score, e.Weight)
	}
	require.Equal(t, res.Score, total)
}

func TestAnalyzeWeakBoard(t *testing.T) {
	board := Board{
		Code:           "BK1031",
		Name:           "光伏设备",
		Kind:           KindIndustry,
		ChangePct:      -4.1,
		TurnoverRate:   0.8,
		MainFlow:       -7.2,
		UpCount:        3,
		DownCount:      55,
		LimitDownCount: 4,
		StockCount:     58,
		StrengthScore:  12,
		RelStrength:    -4.6,
	}

	a := NewAnalyzer(Config{})
	res := a.Analyze(board)

	require.Equal(t, StatusLeaderDown, res.Status)
	// 0 rel strength + 5 limit-ups + 5 breadth + 5 strength + 3 turnover.
	require.Equal(t, 18, res.Score)
	require.Equal(t, GradeStrongBearish, res.Grade)
	require.Equal(t, FlowBigOut, res.FlowStrength)
	require.Equal(t, "exit", res.Advice)
	require.Contains(t, res.Risks, "limit-downs outweigh limit-ups")
	require.Contains(t, res.Risks, "trailing the broad index")
}

func TestAnalyzeBullishNeedsUptape(t *testing.T) {
	// A high score without index leadership stops at bullish, and a
	// mid score lands neutral regardless of the tape.
	board := hotBoard()
	board.RelStrength = 1.2

	a := NewAnalyzer(Config{})
	res := a.Analyze(board)
	require.Equal(t, StatusFollowUp, res.Status)
	require.Equal(t, GradeBullish, res.Grade)
	require.Equal(t, "hold", res.Advice)

	board.RelStrength = -1.0
	board.StrengthScore = 45
	board.UpCount, board.DownCount = 20, 22
	board.LimitUpCount = 1
	res = a.Analyze(board)
	require.Equal(t, GradeNeutral, res.Grade)
	require.Equal(t, "watch", res.Advice)
}

func TestLinkView(t *testing.T) {
	a := NewAnalyzer(Config{})
	analysis := a.Analyze(hotBoard())

	v := LinkView("601398", "工商银行", 1.1, analysis)
	require.Equal(t, "BK0475", v.BoardCode)
	require.Equal(t, GradeStrongBullish, v.BoardGrade)
	require.Equal(t, "positive", v.Impact)
	require.InDelta(t, 1.1-3.2, v.RelPerformance, 1e-9)
}
