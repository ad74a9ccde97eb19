package datasource

import (
	"context"
	"time"
)

// Kind identifies a category of upstream market data.
type Kind string

const (
	// KindDaily is end-of-day OHLCV history.
	KindDaily Kind = "daily"
	// KindQuote is a realtime snapshot quote.
	KindQuote Kind = "quote"
	// KindChip is the chip (cost) distribution auxiliary dataset.
	KindChip Kind = "chip"
)

// Kinds enumerates every supported data kind.
func Kinds() []Kind {
	return []Kind{KindDaily, KindQuote, KindChip}
}

// DailyBar is the canonical per-(symbol, trading date) row. Every adapter's
// raw output is mapped to this shape before it leaves the acquisition layer;
// the derived fields are filled in once, centrally, after normalization.
type DailyBar struct {
	Date   string  `json:"date" msgpack:"date"` // YYYY-MM-DD
	Open   float64 `json:"open" msgpack:"open"`
	High   float64 `json:"high" msgpack:"high"`
	Low    float64 `json:"low" msgpack:"low"`
	Close  float64 `json:"close" msgpack:"close"`
	Volume float64 `json:"volume" msgpack:"volume"`
	Amount float64 `json:"amount" msgpack:"amount"`
	PctChg float64 `json:"pct_chg" msgpack:"pct_chg"`

	MA5         float64 `json:"ma5" msgpack:"ma5"`
	MA10        float64 `json:"ma10" msgpack:"ma10"`
	MA20        float64 `json:"ma20" msgpack:"ma20"`
	VolumeRatio float64 `json:"volume_ratio" msgpack:"volume_ratio"`
}

// Quote captures a realtime snapshot for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Last      float64   `json:"last"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Volume    float64   `json:"volume"`
	Amount    float64   `json:"amount"`
	At        time.Time `json:"at"`
}

// ChipDistribution summarises the holder cost structure for a symbol.
type ChipDistribution struct {
	Date          string  `json:"date"`
	AvgCost       float64 `json:"avg_cost"`
	Concentration float64 `json:"concentration"` // 0-1, 90% chip band
	ProfitRatio   float64 `json:"profit_ratio"`  // 0-1 share of holders in profit
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
}

// Record is the single canonical result the manager returns per fetch.
// Exactly one of Bars, Quote or Chip is populated depending on the kind.
type Record struct {
	Symbol    string            `json:"symbol"`
	Kind      Kind              `json:"kind"`
	Source    string            `json:"source"` // adapter that produced the data
	Bars      []DailyBar        `json:"bars,omitempty"`
	Quote     *Quote            `json:"quote,omitempty"`
	Chip      *ChipDistribution `json:"chip,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Latest returns the newest daily bar, or nil for non-daily records.
func (r *Record) Latest() *DailyBar {
	if r == nil || len(r.Bars) == 0 {
		return nil
	}
	return &r.Bars[len(r.Bars)-1]
}

// Adapter integrates a single upstream provider. Implementations must fail
// loudly: any ambiguity in the upstream response is an error, never a
// partially populated result. Adapters hold no failover knowledge; ordering
// and retry policy belong to the Manager.
type Adapter interface {
	// Name returns the adapter's registry name.
	Name() string
	// Capabilities lists the kinds this adapter can serve.
	Capabilities() []Kind
	// FetchDaily returns the base OHLCV history, oldest first, without
	// derived indicator fields.
	FetchDaily(ctx context.Context, symbol string) ([]DailyBar, error)
	// FetchQuote returns the current snapshot quote.
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
	// FetchChip returns the latest chip distribution.
	FetchChip(ctx context.Context, symbol string) (*ChipDistribution, error)
}

// Supports reports whether the adapter advertises the supplied kind.
func Supports(a Adapter, kind Kind) bool {
	for _, k := range a.Capabilities() {
		if k == kind {
			return true
		}
	}
	return false
}
