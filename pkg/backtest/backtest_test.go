package backtest

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

func barsFromCloses(closes []float64) []datasource.DailyBar {
	bars := make([]datasource.DailyBar, len(closes))
	for i, c := range closes {
		bars[i] = datasource.DailyBar{
			Date:   "2025-01-02",
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000000,
		}
	}
	return bars
}

func TestEngine_MACrossRoundTrip(t *testing.T) {
	// Fast MA crosses above the slow one on the fourth bar and back
	// below on the last, so the strategy buys at 12 and sells at 14.
	closes := []float64{10, 10, 10, 12, 14, 16, 15, 14}
	feeder := NewBarFeeder("600519", barsFromCloses(closes))
	strat := &MACrossStrategy{Fast: 2, Slow: 3, Shares: 100}

	e := &Engine{Feeder: feeder, Strategy: strat, Symbol: "600519", InitialCash: 100000}
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(closes), res.Bars)
	require.Len(t, res.EquityCurve, res.Bars)
	require.Equal(t, 2, res.OrdersSent)
	require.Equal(t, 1, res.Trades)
	require.Equal(t, 1, res.Wins)
	require.InDelta(t, 1.0, res.WinRate, 1e-9)
	require.InDelta(t, 200, res.RealizedPNL, 1e-9)
	require.InDelta(t, 0, res.UnrealPNL, 1e-9)
	require.InDelta(t, 0.2, res.ReturnPct, 1e-9)

	require.Len(t, res.Details, 2)
	require.Equal(t, SideBuy, res.Details[0].Side)
	require.InDelta(t, 12, res.Details[0].Price, 1e-9)
	require.Equal(t, SideSell, res.Details[1].Side)
	require.InDelta(t, 14, res.Details[1].Price, 1e-9)
	require.InDelta(t, 0, res.Details[1].Position, 1e-9)

	require.GreaterOrEqual(t, res.MaxDDPct, 0.0)
	require.False(t, math.IsNaN(res.Sharpe))
}

func TestEngine_WritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bt.json")
	feeder := NewBarFeeder("600519", barsFromCloses([]float64{10, 11, 12}))
	e := &Engine{Feeder: feeder, Strategy: &MACrossStrategy{Fast: 2, Slow: 3}, Symbol: "600519", OutputPath: path}
	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, path)
}

func TestEngine_RequiresConfiguration(t *testing.T) {
	e := &Engine{}
	_, err := e.Run(context.Background())
	require.Error(t, err)
}

func TestEngine_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	feeder := NewBarFeeder("600519", barsFromCloses([]float64{10, 11}))
	e := &Engine{Feeder: feeder, Strategy: &MACrossStrategy{}, Symbol: "600519"}
	_, err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPortfolio_FeesAndStampDuty(t *testing.T) {
	pf := &portfolio{cash: 100000, feeBps: 10, stampBps: 5}

	buy := pf.apply(SideBuy, 10, 100)
	require.InDelta(t, 100, buy.shares, 1e-9)
	require.InDelta(t, 1, buy.fee, 1e-9)
	require.InDelta(t, 98999, pf.cash, 1e-9)

	sell := pf.apply(SideSell, 11, 100)
	require.InDelta(t, 100, sell.shares, 1e-9)
	require.InDelta(t, 1.65, sell.fee, 1e-9)
	require.InDelta(t, 98.35, sell.realized, 1e-9)
	require.InDelta(t, 100097.35, pf.cash, 1e-9)
	require.InDelta(t, 100097.35, pf.equity(11), 1e-9)
}

func TestPortfolio_ClipsFills(t *testing.T) {
	pf := &portfolio{cash: 1000}

	// Sell with no position executes nothing.
	require.Zero(t, pf.apply(SideSell, 10, 50).shares)

	// Buy beyond available cash is clipped to what the cash covers.
	buy := pf.apply(SideBuy, 10, 200)
	require.InDelta(t, 100, buy.shares, 1e-9)
	require.InDelta(t, 0, pf.cash, 1e-9)

	// Sell beyond the position is clipped to the position.
	sell := pf.apply(SideSell, 10, 500)
	require.InDelta(t, 100, sell.shares, 1e-9)
	require.InDelta(t, 0, pf.shares, 1e-9)
}
