package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

// Feeder yields sequential daily bars for a symbol.
type Feeder interface {
	Next(ctx context.Context, symbol string) (*datasource.DailyBar, bool, error)
}

// Strategy maps the latest bar into an order to execute at that bar's close.
// Returning a nil order means do nothing for the day.
type Strategy interface {
	Decide(ctx context.Context, bar *datasource.DailyBar) (*Order, error)
}

// Side is the direction of a simulated order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a simulated market order filled at the bar close.
type Order struct {
	Side   Side
	Shares float64
}

// Engine wires a Feeder and a Strategy to replay a daily session.
// Fills are long-only: sells are clipped to the open position.
type Engine struct {
	Feeder   Feeder
	Strategy Strategy
	Symbol   string

	InitialCash float64 // defaults to 100000 if zero
	FeeBps      float64 // broker commission in basis points, charged both ways
	StampBps    float64 // stamp duty in basis points, charged on sells only
	SlippageBps float64 // execution slippage applied to the close

	// Optional: write JSON report to this path
	OutputPath string
}

// Result summarizes a simulation run.
type Result struct {
	Symbol      string        `json:"symbol"`
	Bars        int           `json:"bars"`
	OrdersSent  int           `json:"orders_sent"`
	Trades      int           `json:"trades"`
	Wins        int           `json:"wins"`
	WinRate     float64       `json:"win_rate"`
	RealizedPNL float64       `json:"realized_pnl"`
	UnrealPNL   float64       `json:"unrealized_pnl"`
	TotalPNL    float64       `json:"total_pnl"`
	ReturnPct   float64       `json:"return_pct"`
	MaxDDPct    float64       `json:"max_dd_pct"`
	Sharpe      float64       `json:"sharpe"`
	EquityCurve []float64     `json:"equity_curve"`
	Details     []TradeDetail `json:"details,omitempty"`
}

// TradeDetail records per-order execution for analysis.
type TradeDetail struct {
	Bar      int     `json:"bar"`
	Date     string  `json:"date"`
	Side     Side    `json:"side"`
	Price    float64 `json:"price"`
	Shares   float64 `json:"shares"`
	Fee      float64 `json:"fee"`
	Realized float64 `json:"realized"`
	Position float64 `json:"position"`
}

func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.Feeder == nil || e.Strategy == nil || e.Symbol == "" {
		return nil, fmt.Errorf("backtest: engine not fully configured")
	}
	cash0 := e.InitialCash
	if cash0 <= 0 {
		cash0 = 100000
	}
	pf := &portfolio{cash: cash0, feeBps: e.FeeBps, stampBps: e.StampBps}
	res := &Result{Symbol: e.Symbol}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar, ok, err := e.Feeder.Next(ctx, e.Symbol)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		res.Bars++
		ord, err := e.Strategy.Decide(ctx, bar)
		if err != nil {
			return nil, err
		}
		if ord != nil && ord.Shares > 0 {
			execPx := applySlippage(bar.Close, e.SlippageBps, ord.Side == SideBuy)
			fill := pf.apply(ord.Side, execPx, ord.Shares)
			if fill.shares > 0 {
				res.OrdersSent++
				if ord.Side == SideSell {
					res.Trades++
					if fill.realized > 0 {
						res.Wins++
					}
				}
				res.Details = append(res.Details, TradeDetail{
					Bar:      res.Bars,
					Date:     bar.Date,
					Side:     ord.Side,
					Price:    execPx,
					Shares:   fill.shares,
					Fee:      fill.fee,
					Realized: fill.realized,
					Position: pf.shares,
				})
			}
		}
		res.EquityCurve = append(res.EquityCurve, pf.equity(bar.Close))
	}
	res.RealizedPNL = pf.realized
	res.UnrealPNL = pf.unrealized
	res.TotalPNL = res.RealizedPNL + res.UnrealPNL
	res.ReturnPct = res.TotalPNL / cash0 * 100
	if res.Trades > 0 {
		res.WinRate = float64(res.Wins) / float64(res.Trades)
	}
	res.MaxDDPct = maxDrawdownPct(append([]float64{cash0}, res.EquityCurve...))
	res.Sharpe = sharpe(res.EquityCurve)

	if e.OutputPath != "" {
		if err := writeReport(e.OutputPath, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func applySlippage(px, bps float64, isBuy bool) float64 {
	if bps == 0 {
		return px
	}
	m := 1 + bps/10000.0
	if isBuy {
		return px * m
	}
	return px / m
}

func maxDrawdownPct(series []float64) float64 {
	peak := series[0]
	mdd := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
		}
		dd := (peak - v) / peak
		if dd > mdd {
			mdd = dd
		}
	}
	return mdd * 100
}

func sharpe(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	rets := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		rets = append(rets, equity[i]/equity[i-1]-1)
	}
	if len(rets) == 0 {
		return 0
	}
	m := 0.0
	for _, r := range rets {
		m += r
	}
	m /= float64(len(rets))
	v := 0.0
	for _, r := range rets {
		d := r - m
		v += d * d
	}
	v /= float64(len(rets))
	sd := math.Sqrt(v)
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(float64(len(rets)))
}

func writeReport(path string, r *Result) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
