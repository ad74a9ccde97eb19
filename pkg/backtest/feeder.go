package backtest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

// BarFeeder replays an in-memory daily bar series.
type BarFeeder struct {
	symbol string
	bars   []datasource.DailyBar
	idx    int
}

func NewBarFeeder(symbol string, bars []datasource.DailyBar) *BarFeeder {
	return &BarFeeder{symbol: symbol, bars: bars}
}

func (f *BarFeeder) Next(ctx context.Context, symbol string) (*datasource.DailyBar, bool, error) {
	if f.idx >= len(f.bars) {
		return nil, false, nil
	}
	bar := f.bars[f.idx]
	f.idx++
	return &bar, true, nil
}

// CSVBarFeeder reads a CSV of daily bars and replays them in file order.
// Expected columns: date,open,high,low,close,volume. A header row is
// detected by a non-numeric close column and skipped.
type CSVBarFeeder struct {
	inner *BarFeeder
}

// NewCSVBarFeederFromFile constructs a CSV feeder from a file path.
func NewCSVBarFeederFromFile(symbol, path string) (*CSVBarFeeder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewCSVBarFeeder(symbol, f)
}

// NewCSVBarFeeder constructs a CSV feeder from an io.Reader.
func NewCSVBarFeeder(symbol string, r io.Reader) (*CSVBarFeeder, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var bars []datasource.DailyBar
	for i, rec := range records {
		if len(rec) < 5 {
			return nil, fmt.Errorf("backtest: row %d has %d columns, want at least 5", i+1, len(rec))
		}
		if _, errClose := strconv.ParseFloat(rec[4], 64); errClose != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("backtest: row %d has non-numeric close %q", i+1, rec[4])
		}
		bar := datasource.DailyBar{Date: rec[0]}
		bar.Open, _ = strconv.ParseFloat(rec[1], 64)
		bar.High, _ = strconv.ParseFloat(rec[2], 64)
		bar.Low, _ = strconv.ParseFloat(rec[3], 64)
		bar.Close, _ = strconv.ParseFloat(rec[4], 64)
		if len(rec) > 5 {
			bar.Volume, _ = strconv.ParseFloat(rec[5], 64)
		}
		bars = append(bars, bar)
	}
	return &CSVBarFeeder{inner: NewBarFeeder(symbol, bars)}, nil
}

func (f *CSVBarFeeder) Next(ctx context.Context, symbol string) (*datasource.DailyBar, bool, error) {
	return f.inner.Next(ctx, symbol)
}
