package backtest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVBarFeeder(t *testing.T) {
	data := []byte("date,open,high,low,close,volume\n" +
		"2025-06-10,10.0,10.5,9.8,10.2,1200000\n" +
		"2025-06-11,10.2,10.9,10.1,10.8,1500000\n")
	feeder, err := NewCSVBarFeeder("600519", bytes.NewReader(data))
	require.NoError(t, err)

	ctx := context.Background()

	bar, ok, err := feeder.Next(ctx, "600519")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2025-06-10", bar.Date)
	require.InDelta(t, 10.2, bar.Close, 1e-9)
	require.InDelta(t, 1200000, bar.Volume, 1e-9)

	bar, ok, err = feeder.Next(ctx, "600519")
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 10.8, bar.Close, 1e-9)

	_, ok, err = feeder.Next(ctx, "600519")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCSVBarFeeder_RejectsBadRows(t *testing.T) {
	_, err := NewCSVBarFeeder("600519", bytes.NewReader([]byte("2025-06-10,10,10,10\n")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "columns")

	_, err = NewCSVBarFeeder("600519", bytes.NewReader([]byte(
		"date,open,high,low,close\n2025-06-10,10,10,10,oops\n")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "close")
}

func TestBarFeeder_Empty(t *testing.T) {
	feeder := NewBarFeeder("600519", nil)
	_, ok, err := feeder.Next(context.Background(), "600519")
	require.NoError(t, err)
	require.False(t, ok)
}
