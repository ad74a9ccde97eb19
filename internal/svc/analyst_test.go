package svc

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

func analysisRecord(t *testing.T) *datasource.Record {
	t.Helper()
	raw := make([]datasource.DailyBar, 40)
	for i := range raw {
		price := 10 + 0.1*float64(i)
		raw[i] = datasource.DailyBar{
			Date:   fmt.Sprintf("2025-%02d-%02d", 4+i/30, i%30+1),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000000,
		}
	}
	bars, err := datasource.NormalizeDaily(raw)
	require.NoError(t, err)
	return &datasource.Record{Symbol: "600519", Kind: datasource.KindDaily, Bars: bars}
}

func TestAnalystAdapter(t *testing.T) {
	a, err := analyzer.New(analyzer.Config{})
	require.NoError(t, err)
	adapter := &analystAdapter{analyzer: a}

	res, err := adapter.Analyze(context.Background(), analysisRecord(t), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "600519", res.Symbol)
	require.Zero(t, res.ChipAvgCost)
	require.Zero(t, res.QuoteLast)

	quote := &datasource.Quote{Symbol: "600519", Name: "Kweichow Moutai", Last: 14.1, PrevClose: 13.9}
	chip := &datasource.ChipDistribution{AvgCost: 12.5, Support: 12.0, Resistance: 14.5}
	res, err = adapter.Analyze(context.Background(), analysisRecord(t), quote, chip)
	require.NoError(t, err)
	require.InDelta(t, 12.5, res.ChipAvgCost, 1e-9)
	require.Contains(t, res.Supports, 12.0)
	require.InDelta(t, 14.1, res.QuoteLast, 1e-9)
	require.InDelta(t, (14.1-13.9)/13.9*100, res.QuotePctChg, 1e-9)
}

func TestAnalystAdapterNilRecord(t *testing.T) {
	a, err := analyzer.New(analyzer.Config{})
	require.NoError(t, err)
	adapter := &analystAdapter{analyzer: a}

	_, err = adapter.Analyze(context.Background(), nil, nil, nil)
	require.Error(t, err)
}
