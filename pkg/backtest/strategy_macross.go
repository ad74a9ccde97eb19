package backtest

import (
	"context"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
	"github.com/HinaTK/daily-stock-analysis/pkg/indicators"
)

// MACrossStrategy buys a fixed lot when the fast moving average crosses
// above the slow one and sells the whole position on the opposite cross.
type MACrossStrategy struct {
	Fast   int     // defaults to 5
	Slow   int     // defaults to 20
	Shares float64 // lot bought per golden cross, defaults to 100

	closes   []float64
	prevDiff float64
	primed   bool
	holding  bool
}

func (s *MACrossStrategy) Decide(ctx context.Context, bar *datasource.DailyBar) (*Order, error) {
	fast, slow, lot := s.Fast, s.Slow, s.Shares
	if fast <= 0 {
		fast = 5
	}
	if slow <= 0 {
		slow = 20
	}
	if lot <= 0 {
		lot = 100
	}
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) < slow {
		return nil, nil
	}
	fastMA := indicators.SMA(s.closes, fast)
	slowMA := indicators.SMA(s.closes, slow)
	diff := fastMA[len(fastMA)-1] - slowMA[len(slowMA)-1]
	defer func() {
		s.prevDiff = diff
		s.primed = true
	}()
	if !s.primed {
		return nil, nil
	}
	if s.prevDiff <= 0 && diff > 0 && !s.holding {
		s.holding = true
		return &Order{Side: SideBuy, Shares: lot}, nil
	}
	if s.prevDiff >= 0 && diff < 0 && s.holding {
		s.holding = false
		return &Order{Side: SideSell, Shares: lot}, nil
	}
	return nil, nil
}
