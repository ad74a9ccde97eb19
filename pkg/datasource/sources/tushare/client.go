package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const (
	defaultBaseURL     = "http://api.tushare.pro"
	defaultHTTPTimeout = 15 * time.Second
	defaultLookback    = 180 * 24 * time.Hour

	// Tushare's "too many requests per minute" application error code.
	codeRateLimited = 40203
)

// ErrMissingToken reports that the client was built without a credential.
var ErrMissingToken = errors.New("tushare: token is required")

// Client wraps the Tushare Pro HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	lookback   time.Duration
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

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithLookback adjusts how far back daily history is requested.
func WithLookback(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.lookback = d
		}
	}
}

// NewClient constructs a Tushare Pro client.
func NewClient(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	client := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		lookback:   defaultLookback,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

// Daily fetches the daily bar history for a symbol, oldest first.
func (c *Client) Daily(ctx context.Context, symbol string) ([]datasource.DailyBar, error) {
	tsCode, err := tsCodeFor(symbol)
	if err != nil {
		return nil, err
	}

	start := c.now().Add(-c.lookback).Format("20060102")
	payload, err := c.call(ctx, apiRequest{
		APIName: "daily",
		Token:   c.token,
		Params:  map[string]string{"ts_code": tsCode, "start_date": start},
		Fields:  "trade_date,open,high,low,close,vol,amount,pct_chg",
	})
	if err != nil {
		return nil, err
	}
	if payload.Data == nil || len(payload.Data.Items) == 0 {
		return nil, fmt.Errorf("tushare: no rows for %s: %w", symbol, datasource.ErrNoData)
	}

	index := make(map[string]int, len(payload.Data.Fields))
	for i, f := range payload.Data.Fields {
		index[f] = i
	}
	for _, f := range []string{"trade_date", "open", "high", "low", "close", "vol", "amount", "pct_chg"} {
		if _, ok := index[f]; !ok {
			return nil, fmt.Errorf("tushare: response missing field %q", f)
		}
	}

	bars := make([]datasource.DailyBar, 0, len(payload.Data.Items))
	for _, item := range payload.Data.Items {
		bar, err := parseRow(item, index)
		if err != nil {
			return nil, fmt.Errorf("tushare: row for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	// Tushare returns newest first; the canonical order is oldest first.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (c *Client) call(ctx context.Context, req apiRequest) (*apiResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("tushare: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tushare: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tushare: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tushare: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("tushare: http status %d: %w", resp.StatusCode, datasource.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tushare: http status %d: %s", resp.StatusCode, string(raw))
	}

	var payload apiResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("tushare: decode response: %w", err)
	}
	if payload.Code != 0 {
		if payload.Code == codeRateLimited {
			return nil, fmt.Errorf("tushare: api code %d (%s): %w", payload.Code, payload.Msg, datasource.ErrRateLimited)
		}
		return nil, fmt.Errorf("tushare: api code %d: %s", payload.Code, payload.Msg)
	}
	return &payload, nil
}

func parseRow(item []interface{}, index map[string]int) (datasource.DailyBar, error) {
	var bar datasource.DailyBar

	i := index["trade_date"]
	if i >= len(item) {
		return bar, errors.New("row is missing trade_date")
	}
	date, ok := item[i].(string)
	if !ok {
		return bar, fmt.Errorf("trade_date %v is not a string", item[i])
	}
	if len(date) == 8 {
		date = date[:4] + "-" + date[4:6] + "-" + date[6:]
	}
	bar.Date = date

	fields := map[string]*float64{
		"open":    &bar.Open,
		"high":    &bar.High,
		"low":     &bar.Low,
		"close":   &bar.Close,
		"vol":     &bar.Volume,
		"amount":  &bar.Amount,
		"pct_chg": &bar.PctChg,
	}
	for name, dst := range fields {
		i := index[name]
		if i >= len(item) {
			return bar, fmt.Errorf("row is missing column %q", name)
		}
		v, ok := item[i].(float64)
		if !ok {
			return bar, fmt.Errorf("column %q holds %v, want a number", name, item[i])
		}
		*dst = v
	}
	// Tushare reports volume in lots and amount in thousands of yuan.
	bar.Volume *= 100
	bar.Amount *= 1000
	return bar, nil
}

// tsCodeFor maps a six-digit A-share code to Tushare's exchange-suffixed form.
func tsCodeFor(symbol string) (string, error) {
	code := strings.TrimSpace(symbol)
	if len(code) != 6 {
		return "", fmt.Errorf("tushare: symbol %q is not a six-digit code", symbol)
	}
	switch code[0] {
	case '6', '9', '5':
		return code + ".SH", nil
	case '8', '4':
		return code + ".BJ", nil
	default:
		return code + ".SZ", nil
	}
}
