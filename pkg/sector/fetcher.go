package sector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const (
	defaultBaseURL     = "https://push2.eastmoney.com"
	defaultHTTPTimeout = 10 * time.Second

	listPath  = "/api/qt/clist/get"
	indexPath = "/api/qt/stock/get"

	// fs filters for the clist endpoint: m:90 is the board universe,
	// t:2 industry boards, t:3 concept boards, b:<code> constituents.
	fsIndustry = "m:90+t:2"
	fsConcept  = "m:90+t:3"

	// Shanghai Composite, the reference index for relative strength.
	indexSecID = "1.000001"

	limitUpPct = 9.9
)

// Fetcher reads board rankings and constituents from the Eastmoney
// clist endpoint.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// FetcherOption configures a new Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if hc != nil {
			f.httpClient = hc
		}
	}
}

// WithBaseURL repoints the endpoint host, primarily for tests.
func WithBaseURL(base string) FetcherOption {
	return func(f *Fetcher) {
		if base != "" {
			f.baseURL = base
		}
	}
}

// NewFetcher constructs a board fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type listResponse struct {
	Data *struct {
		Total int        `json:"total"`
		Diff  []listItem `json:"diff"`
	} `json:"data"`
}

type listItem struct {
	Code         string  `json:"f12"`
	Name         string  `json:"f14"`
	ChangePct    float64 `json:"f3"`
	TurnoverRate float64 `json:"f8"`
	MainFlow     float64 `json:"f62"` // yuan
	UpCount      int     `json:"f104"`
	DownCount    int     `json:"f105"`
}

type indexResponse struct {
	Data *struct {
		ChangePct float64 `json:"f170"`
	} `json:"data"`
}

// TopBoards fetches the day's boards of one kind, sorted by change
// descending. indexChange is the broad index's percent move, used for
// the relative-strength field.
func (f *Fetcher) TopBoards(ctx context.Context, kind Kind, limit int, indexChange float64) ([]Board, error) {
	fs := fsIndustry
	if kind == KindConcept {
		fs = fsConcept
	}
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("fs", fs)
	query.Set("fields", "f3,f8,f12,f14,f62,f104,f105")
	query.Set("fid", "f3")
	query.Set("po", "1")
	query.Set("pn", "1")
	query.Set("pz", strconv.Itoa(limit))
	query.Set("np", "1")
	query.Set("fltt", "2")

	var payload listResponse
	if err := f.getJSON(ctx, f.baseURL+listPath, query, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("sector: empty board list for %s", kind)
	}

	boards := make([]Board, 0, len(payload.Data.Diff))
	for _, item := range payload.Data.Diff {
		b := Board{
			Code:         item.Code,
			Name:         item.Name,
			Kind:         kind,
			ChangePct:    item.ChangePct,
			TurnoverRate: item.TurnoverRate,
			MainFlow:     item.MainFlow / 1e8,
			UpCount:      item.UpCount,
			DownCount:    item.DownCount,
			StockCount:   item.UpCount + item.DownCount,
			RelStrength:  item.ChangePct - indexChange,
		}
		b.StrengthScore = strengthFor(b)
		boards = append(boards, b)
	}
	return boards, nil
}

// Constituents fetches a board's member stocks and counts its limit
// moves into the returned board copy.
func (f *Fetcher) Constituents(ctx context.Context, board Board) (Board, []Constituent, error) {
	query := url.Values{}
	query.Set("fs", "b:"+board.Code)
	query.Set("fields", "f3,f12,f14")
	query.Set("fid", "f3")
	query.Set("po", "1")
	query.Set("pn", "1")
	query.Set("pz", "200")
	query.Set("np", "1")
	query.Set("fltt", "2")

	var payload listResponse
	if err := f.getJSON(ctx, f.baseURL+listPath, query, &payload); err != nil {
		return board, nil, err
	}
	if payload.Data == nil {
		return board, nil, fmt.Errorf("sector: no constituents for board %s", board.Code)
	}

	members := make([]Constituent, 0, len(payload.Data.Diff))
	for _, item := range payload.Data.Diff {
		c := Constituent{
			Code:      item.Code,
			Name:      item.Name,
			ChangePct: item.ChangePct,
			LimitUp:   item.ChangePct >= limitUpPct,
			LimitDown: item.ChangePct <= -limitUpPct,
		}
		if c.LimitUp {
			board.LimitUpCount++
		}
		if c.LimitDown {
			board.LimitDownCount++
		}
		members = append(members, c)
	}
	board.StockCount = len(members)
	return board, members, nil
}

// IndexChange fetches the Shanghai Composite's percent move for the
// session.
func (f *Fetcher) IndexChange(ctx context.Context) (float64, error) {
	query := url.Values{}
	query.Set("secid", indexSecID)
	query.Set("fields", "f170")
	query.Set("fltt", "2")

	var payload indexResponse
	if err := f.getJSON(ctx, f.baseURL+indexPath, query, &payload); err != nil {
		return 0, err
	}
	if payload.Data == nil {
		return 0, fmt.Errorf("sector: no index snapshot")
	}
	return payload.Data.ChangePct, nil
}

func (f *Fetcher) getJSON(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("sector: build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("sector: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sector: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("sector: http status %d: %w", resp.StatusCode, datasource.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sector: http status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("sector: decode response: %w", err)
	}
	return nil
}

// strengthFor derives a 0-100 momentum reading from the board's change
// and breadth, since the list endpoint carries no strength field.
func strengthFor(b Board) float64 {
	s := 50 + b.ChangePct*8
	if total := b.UpCount + b.DownCount; total > 0 {
		s += (float64(b.UpCount)/float64(total) - 0.5) * 40
	}
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
