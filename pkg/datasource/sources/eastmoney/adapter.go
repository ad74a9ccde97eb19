package eastmoney

import (
	"context"
	"net/http"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

func init() {
	datasource.RegisterAdapter("eastmoney", func(name string, cfg *datasource.AdapterConfig) (datasource.Adapter, error) {
		opts := []Option{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewAdapter(name, NewClient(opts...)), nil
	})
}

// Adapter serves daily history, realtime quotes and chip distributions from
// Eastmoney's public quote endpoints.
type Adapter struct {
	name   string
	client *Client
}

var _ datasource.Adapter = (*Adapter)(nil)

// NewAdapter wraps a client in the datasource adapter contract.
func NewAdapter(name string, client *Client) *Adapter {
	if name == "" {
		name = "eastmoney"
	}
	if client == nil {
		client = NewClient()
	}
	return &Adapter{name: name, client: client}
}

// Name implements datasource.Adapter.
func (a *Adapter) Name() string { return a.name }

// Capabilities implements datasource.Adapter.
func (a *Adapter) Capabilities() []datasource.Kind {
	return []datasource.Kind{datasource.KindDaily, datasource.KindQuote, datasource.KindChip}
}

// FetchDaily implements datasource.Adapter.
func (a *Adapter) FetchDaily(ctx context.Context, symbol string) ([]datasource.DailyBar, error) {
	return a.client.DailyKlines(ctx, symbol)
}

// FetchQuote implements datasource.Adapter.
func (a *Adapter) FetchQuote(ctx context.Context, symbol string) (*datasource.Quote, error) {
	return a.client.Snapshot(ctx, symbol)
}

// FetchChip implements datasource.Adapter.
func (a *Adapter) FetchChip(ctx context.Context, symbol string) (*datasource.ChipDistribution, error) {
	return a.client.ChipDistribution(ctx, symbol)
}
