// Package sector reads board-level breadth for A-share industry and concept
// sectors: relative strength against the index, limit-up ratio, breadth,
// turnover and main-capital flow, folded into a 0-100 score with an
// allocation stance.
package sector

// Kind distinguishes the Eastmoney board taxonomies.
type Kind string

const (
	KindIndustry Kind = "industry"
	KindConcept  Kind = "concept"
)

// MarketStatus positions a board against the broad index.
type MarketStatus string

const (
	StatusLeaderUp   MarketStatus = "leader_up" // outrunning the index
	StatusFollowUp   MarketStatus = "follow_up"
	StatusFlat       MarketStatus = "flat"
	StatusFollowDown MarketStatus = "follow_down"
	StatusLeaderDown MarketStatus = "leader_down"
)

// Grade is the composite stance for a board.
type Grade string

const (
	GradeStrongBullish Grade = "strong_bullish"
	GradeBullish       Grade = "bullish"
	GradeNeutral       Grade = "neutral"
	GradeBearish       Grade = "bearish"
	GradeStrongBearish Grade = "strong_bearish"
)

// FlowStrength qualifies the main-capital flow.
type FlowStrength string

const (
	FlowBigInflow  FlowStrength = "big_inflow"
	FlowMildInflow FlowStrength = "mild_inflow"
	FlowFlat       FlowStrength = "flat"
	FlowMildOut    FlowStrength = "mild_outflow"
	FlowBigOut     FlowStrength = "big_outflow"
)

// Board is one sector's end-of-session snapshot.
type Board struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	ChangePct    float64 `json:"change_pct"`
	TurnoverRate float64 `json:"turnover_rate"`
	MainFlow     float64 `json:"main_flow"` // CNY 100M

	UpCount        int `json:"up_count"`
	DownCount      int `json:"down_count"`
	LimitUpCount   int `json:"limit_up_count"`
	LimitDownCount int `json:"limit_down_count"`
	StockCount     int `json:"stock_count"`

	// StrengthScore is the board's own 0-100 momentum reading,
	// RelStrength its change relative to the broad index in percent.
	StrengthScore float64 `json:"strength_score"`
	RelStrength   float64 `json:"relative_strength"`
}

// Constituent is one member stock's session stats within a board.
type Constituent struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	ChangePct float64 `json:"change_pct"`
	LimitUp   bool    `json:"limit_up,omitempty"`
	LimitDown bool    `json:"limit_down,omitempty"`
}

// Evidence records one board rule's contribution to the score.
type Evidence struct {
	Rule      string  `json:"rule"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Positive  bool    `json:"positive"`
	Score     int     `json:"score"`
	Weight    int     `json:"weight"`
}

// Analysis is the scored read of one board.
type Analysis struct {
	Board  Board        `json:"board"`
	Status MarketStatus `json:"status"`
	Score  int          `json:"score"`
	Grade  Grade        `json:"grade"`

	FlowStrength FlowStrength `json:"flow_strength"`

	Leaders  []Constituent `json:"leaders,omitempty"`
	Evidence []Evidence    `json:"evidence,omitempty"`

	Risks         []string `json:"risks,omitempty"`
	Opportunities []string `json:"opportunities,omitempty"`

	Advice     string `json:"advice"`
	Confidence string `json:"confidence"`
	Allocation string `json:"allocation"`
}

// View links one watched symbol to its strongest board.
type View struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name,omitempty"`
	ChangePct  float64 `json:"change_pct"`
	BoardCode  string  `json:"board_code"`
	BoardName  string  `json:"board_name"`
	BoardGrade Grade   `json:"board_grade"`
	// RelPerformance is the symbol's change minus the board's, in percent.
	RelPerformance float64 `json:"relative_performance"`
	Impact         string  `json:"impact"` // positive, negative or neutral
}
