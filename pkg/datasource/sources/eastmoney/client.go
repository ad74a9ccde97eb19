package eastmoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const (
	defaultHistBaseURL  = "https://push2his.eastmoney.com"
	defaultQuoteBaseURL = "https://push2.eastmoney.com"
	defaultHTTPTimeout  = 10 * time.Second
	defaultBarLimit     = 120

	// klt 101 = daily bars, fqt 1 = forward adjusted.
	klinePath = "/api/qt/stock/kline/get"
	quotePath = "/api/qt/stock/get"
	chipPath  = "/api/qt/stock/chipdist/get"
)

// ErrUnknownSymbol reports a reply for an absent or delisted symbol.
var ErrUnknownSymbol = errors.New("eastmoney: unknown symbol")

// Client wraps the Eastmoney push2 quote endpoints.
type Client struct {
	histBaseURL  string
	quoteBaseURL string
	httpClient   *http.Client
	barLimit     int
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

// WithBaseURL points both endpoints at one host, primarily for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.histBaseURL = base
			c.quoteBaseURL = base
		}
	}
}

// WithBarLimit adjusts how many daily bars are requested.
func WithBarLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.barLimit = limit
		}
	}
}

// NewClient constructs an Eastmoney client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		histBaseURL:  defaultHistBaseURL,
		quoteBaseURL: defaultQuoteBaseURL,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		barLimit:     defaultBarLimit,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DailyKlines fetches the forward-adjusted daily bar history for a symbol.
func (c *Client) DailyKlines(ctx context.Context, symbol string) ([]datasource.DailyBar, error) {
	secid, err := secIDFor(symbol)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("secid", secid)
	query.Set("fields1", "f1,f2,f3,f4,f5,f6")
	query.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	query.Set("klt", "101")
	query.Set("fqt", "1")
	query.Set("end", "20500101")
	query.Set("lmt", strconv.Itoa(c.barLimit))

	var payload klineResponse
	if err := c.getJSON(ctx, c.histBaseURL+klinePath, query, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || len(payload.Data.Klines) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	bars := make([]datasource.DailyBar, 0, len(payload.Data.Klines))
	for _, line := range payload.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			return nil, fmt.Errorf("eastmoney: kline for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// Snapshot fetches the realtime quote for a symbol.
func (c *Client) Snapshot(ctx context.Context, symbol string) (*datasource.Quote, error) {
	secid, err := secIDFor(symbol)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("secid", secid)
	query.Set("fields", "f43,f44,f45,f46,f47,f48,f57,f58,f60")

	var payload quoteResponse
	if err := c.getJSON(ctx, c.quoteBaseURL+quotePath, query, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || payload.Data.Last <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	d := payload.Data
	return &datasource.Quote{
		Symbol:    symbol,
		Name:      d.Name,
		Last:      d.Last / 100,
		Open:      d.Open / 100,
		High:      d.High / 100,
		Low:       d.Low / 100,
		PrevClose: d.PrevClose / 100,
		Volume:    d.Volume,
		Amount:    d.Amount,
		At:        time.Now(),
	}, nil
}

// ChipDistribution fetches the holder cost structure for a symbol.
func (c *Client) ChipDistribution(ctx context.Context, symbol string) (*datasource.ChipDistribution, error) {
	secid, err := secIDFor(symbol)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("secid", secid)

	var payload chipResponse
	if err := c.getJSON(ctx, c.histBaseURL+chipPath, query, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	d := payload.Data
	return &datasource.ChipDistribution{
		Date:          d.Date,
		AvgCost:       d.AvgCost,
		Concentration: d.Concentration,
		ProfitRatio:   d.ProfitRatio,
		Support:       d.Support,
		Resistance:    d.Resistance,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("eastmoney: build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("eastmoney: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("eastmoney: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("eastmoney: http status %d: %w", resp.StatusCode, datasource.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("eastmoney: http status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("eastmoney: decode response: %w", err)
	}
	return nil
}

// parseKline maps one comma-joined kline row to a canonical bar.
// Field order: date,open,close,high,low,volume,amount,amplitude,pct_chg,chg,turnover.
func parseKline(line string) (datasource.DailyBar, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 9 {
		return datasource.DailyBar{}, fmt.Errorf("short kline row %q", line)
	}

	var bar datasource.DailyBar
	bar.Date = fields[0]
	values := []*float64{&bar.Open, &bar.Close, &bar.High, &bar.Low, &bar.Volume, &bar.Amount, nil, &bar.PctChg}
	for i, dst := range values {
		if dst == nil {
			continue
		}
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return datasource.DailyBar{}, fmt.Errorf("field %d of %q: %w", i+1, line, err)
		}
		*dst = v
	}
	return bar, nil
}

// secIDFor maps a six-digit A-share code to Eastmoney's market-prefixed id.
func secIDFor(symbol string) (string, error) {
	code := strings.TrimSpace(symbol)
	if len(code) != 6 {
		return "", fmt.Errorf("eastmoney: symbol %q is not a six-digit code", symbol)
	}
	switch code[0] {
	case '6', '9', '5':
		return "1." + code, nil // Shanghai
	default:
		return "0." + code, nil // Shenzhen and Beijing boards
	}
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
