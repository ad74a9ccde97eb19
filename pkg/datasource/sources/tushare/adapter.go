package tushare

import (
	"context"
	"errors"
	"net/http"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

func init() {
	datasource.RegisterAdapter("tushare", func(name string, cfg *datasource.AdapterConfig) (datasource.Adapter, error) {
		opts := []Option{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		client, err := NewClient(cfg.Token, opts...)
		if err != nil {
			return nil, err
		}
		return NewAdapter(name, client), nil
	})
}

// ErrKindNotSupported reports a request for a kind this adapter cannot serve.
var ErrKindNotSupported = errors.New("tushare: data kind not supported")

// Adapter serves daily history from the Tushare Pro API. Tushare is
// credential-gated, so deployments typically mark it dynamic: the manager
// promotes it when a token is present.
type Adapter struct {
	name   string
	client *Client
}

var _ datasource.Adapter = (*Adapter)(nil)

// NewAdapter wraps a client in the datasource adapter contract.
func NewAdapter(name string, client *Client) *Adapter {
	if name == "" {
		name = "tushare"
	}
	return &Adapter{name: name, client: client}
}

// Name implements datasource.Adapter.
func (a *Adapter) Name() string { return a.name }

// Capabilities implements datasource.Adapter.
func (a *Adapter) Capabilities() []datasource.Kind {
	return []datasource.Kind{datasource.KindDaily}
}

// FetchDaily implements datasource.Adapter.
func (a *Adapter) FetchDaily(ctx context.Context, symbol string) ([]datasource.DailyBar, error) {
	return a.client.Daily(ctx, symbol)
}

// FetchQuote implements datasource.Adapter.
func (a *Adapter) FetchQuote(ctx context.Context, symbol string) (*datasource.Quote, error) {
	return nil, ErrKindNotSupported
}

// FetchChip implements datasource.Adapter.
func (a *Adapter) FetchChip(ctx context.Context, symbol string) (*datasource.ChipDistribution, error) {
	return nil, ErrKindNotSupported
}
