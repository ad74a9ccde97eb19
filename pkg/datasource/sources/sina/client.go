// Package sina fetches realtime snapshot quotes from the Sina hq endpoint.
// The endpoint serves a javascript assignment per symbol; it carries no daily
// history, so the adapter only advertises the quote kind. Sina rejects
// requests without a Referer and answers abuse with HTTP 456.
package sina

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const (
	defaultBaseURL     = "https://hq.sinajs.cn"
	defaultHTTPTimeout = 10 * time.Second

	refererHeader = "https://finance.sina.com.cn"

	// Sina's non-standard "request rejected" status for throttled callers.
	statusRejected = 456
)

// ErrUnknownSymbol reports a symbol the exchange prefix rules cannot place.
var ErrUnknownSymbol = errors.New("sina: cannot resolve exchange for symbol")

// Client talks to the Sina realtime quote endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the endpoint, primarily for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient constructs a Sina quote client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Snapshot returns the current quote for a six-digit A-share code.
func (c *Client) Snapshot(ctx context.Context, symbol string) (*datasource.Quote, error) {
	listCode, err := listCodeFor(symbol)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/list=%s", c.baseURL, listCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sina: build request: %w", err)
	}
	// The endpoint 403s bare requests; it wants to see its own frontend.
	req.Header.Set("Referer", refererHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("sina: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == statusRejected || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("sina: http status %d: %w", resp.StatusCode, datasource.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina: http status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sina: read response: %w", err)
	}

	quote, err := parseQuote(symbol, string(raw))
	if err != nil {
		return nil, err
	}
	quote.At = c.now()
	return quote, nil
}

// parseQuote decodes the `var hq_str_sh600519="...";` assignment. The payload
// is a comma-joined field list; field 0 is the GBK-encoded company name, which
// is skipped rather than transcoded.
func parseQuote(symbol, body string) (*datasource.Quote, error) {
	open := strings.Index(body, `"`)
	close := strings.LastIndex(body, `"`)
	if open < 0 || close <= open {
		return nil, fmt.Errorf("sina: unexpected response shape for %s", symbol)
	}
	payload := body[open+1 : close]
	if payload == "" {
		return nil, fmt.Errorf("sina: empty quote for %s: %w", symbol, datasource.ErrNoData)
	}

	fields := strings.Split(payload, ",")
	if len(fields) < 32 {
		return nil, fmt.Errorf("sina: quote for %s has %d fields, want at least 32", symbol, len(fields))
	}

	quote := &datasource.Quote{Symbol: symbol}
	numeric := []struct {
		index int
		dst   *float64
		name  string
	}{
		{1, &quote.Open, "open"},
		{2, &quote.PrevClose, "prev_close"},
		{3, &quote.Last, "last"},
		{4, &quote.High, "high"},
		{5, &quote.Low, "low"},
		{8, &quote.Volume, "volume"},
		{9, &quote.Amount, "amount"},
	}
	for _, f := range numeric {
		v, err := strconv.ParseFloat(fields[f.index], 64)
		if err != nil {
			return nil, fmt.Errorf("sina: quote field %s for %s: %w", f.name, symbol, err)
		}
		*f.dst = v
	}
	if quote.Last <= 0 {
		return nil, fmt.Errorf("sina: suspended or missing quote for %s: %w", symbol, datasource.ErrNoData)
	}
	return quote, nil
}

// listCodeFor maps a six-digit A-share code to Sina's prefixed list code.
func listCodeFor(symbol string) (string, error) {
	code := strings.TrimSpace(symbol)
	if len(code) != 6 {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	switch code[0] {
	case '6', '9', '5':
		return "sh" + code, nil
	case '0', '3', '1', '2':
		return "sz" + code, nil
	case '8', '4':
		return "bj" + code, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
}
