package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const klineBody = `{"data":{"code":"600519","name":"贵州茅台","klines":[
"2025-05-28,1550.00,1560.00,1565.00,1548.00,32000,49920000.0,1.09,0.65,10.00,0.25",
"2025-05-29,1561.00,1555.00,1568.00,1552.00,28000,43540000.0,1.02,-0.32,-5.00,0.22",
"2025-05-30,1556.00,1580.00,1582.00,1554.00,41000,64780000.0,1.80,1.61,25.00,0.33"
]}}`

const quoteBody = `{"data":{"f43":158012,"f44":158250,"f45":155400,"f46":155600,"f47":41000,"f48":64780000,"f57":"600519","f58":"贵州茅台","f60":155500}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(WithBaseURL(server.URL))
}

func TestDailyKlines(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(klineBody))
	})

	bars, err := client.DailyKlines(context.Background(), "600519")
	require.NoError(t, err)
	require.Len(t, bars, 3)

	require.Contains(t, gotQuery, "secid=1.600519")
	require.Contains(t, gotQuery, "klt=101")
	require.Contains(t, gotQuery, "fqt=1")

	first := bars[0]
	require.Equal(t, "2025-05-28", first.Date)
	require.Equal(t, 1550.0, first.Open)
	require.Equal(t, 1560.0, first.Close)
	require.Equal(t, 1565.0, first.High)
	require.Equal(t, 1548.0, first.Low)
	require.Equal(t, 32000.0, first.Volume)
	require.Equal(t, 0.65, first.PctChg)
	// Derived fields stay untouched at the adapter layer.
	require.Zero(t, first.MA5)
}

func TestDailyKlinesUnknownSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	})

	_, err := client.DailyKlines(context.Background(), "600519")
	require.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestDailyKlinesMalformedRow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"code":"600519","klines":["2025-05-28,not-a-number"]}}`))
	})

	_, err := client.DailyKlines(context.Background(), "600519")
	require.Error(t, err)
}

func TestSnapshotScalesPrices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteBody))
	})

	quote, err := client.Snapshot(context.Background(), "600519")
	require.NoError(t, err)
	require.Equal(t, 1580.12, quote.Last)
	require.Equal(t, 1555.0, quote.PrevClose)
	require.Equal(t, "贵州茅台", quote.Name)
	require.Equal(t, 41000.0, quote.Volume)
}

func TestRateLimitedStatusIsTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.DailyKlines(context.Background(), "600519")
	require.True(t, datasource.IsRateLimited(err))
}

func TestSecIDFor(t *testing.T) {
	cases := map[string]string{
		"600519": "1.600519",
		"510300": "1.510300",
		"000001": "0.000001",
		"300750": "0.300750",
	}
	for symbol, want := range cases {
		got, err := secIDFor(symbol)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := secIDFor("TSLA")
	require.Error(t, err)
}

func TestAdapterCapabilities(t *testing.T) {
	adapter := NewAdapter("eastmoney", nil)
	require.Equal(t, "eastmoney", adapter.Name())
	require.True(t, datasource.Supports(adapter, datasource.KindDaily))
	require.True(t, datasource.Supports(adapter, datasource.KindQuote))
	require.True(t, datasource.Supports(adapter, datasource.KindChip))
}
