package sina

import (
	"context"
	"errors"
	"net/http"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

func init() {
	datasource.RegisterAdapter("sina", func(name string, cfg *datasource.AdapterConfig) (datasource.Adapter, error) {
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

// ErrKindNotSupported reports a request for a kind this adapter cannot serve.
var ErrKindNotSupported = errors.New("sina: data kind not supported")

// Adapter serves realtime quotes only. It exists as a low-priority fallback
// behind richer sources that also carry history.
type Adapter struct {
	name   string
	client *Client
}

var _ datasource.Adapter = (*Adapter)(nil)

// NewAdapter wraps a client in the datasource adapter contract.
func NewAdapter(name string, client *Client) *Adapter {
	if name == "" {
		name = "sina"
	}
	return &Adapter{name: name, client: client}
}

// Name implements datasource.Adapter.
func (a *Adapter) Name() string { return a.name }

// Capabilities implements datasource.Adapter.
func (a *Adapter) Capabilities() []datasource.Kind {
	return []datasource.Kind{datasource.KindQuote}
}

// FetchDaily implements datasource.Adapter.
func (a *Adapter) FetchDaily(ctx context.Context, symbol string) ([]datasource.DailyBar, error) {
	return nil, ErrKindNotSupported
}

// FetchQuote implements datasource.Adapter.
func (a *Adapter) FetchQuote(ctx context.Context, symbol string) (*datasource.Quote, error) {
	return a.client.Snapshot(ctx, symbol)
}

// FetchChip implements datasource.Adapter.
func (a *Adapter) FetchChip(ctx context.Context, symbol string) (*datasource.ChipDistribution, error) {
	return nil, ErrKindNotSupported
}
