package sina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HinaTK/daily-stock-analysis/pkg/datasource"
)

const quoteBody = `var hq_str_sh600519="贵州茅台,1705.000,1699.000,1718.500,1722.000,1700.000,1718.400,1718.500,2600000,4456000000.000,100,1718.400,200,1718.300,300,1718.200,400,1718.100,500,1718.000,100,1718.500,200,1718.600,300,1718.700,400,1718.800,500,1718.900,2025-06-11,15:00:00,00,";`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL))
}

func TestSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, refererHeader, r.Header.Get("Referer"))
		require.Equal(t, "/list=sh600519", r.URL.Path)
		w.Write([]byte(quoteBody))
	})

	quote, err := client.Snapshot(context.Background(), "600519")
	require.NoError(t, err)
	require.Equal(t, "600519", quote.Symbol)
	require.InDelta(t, 1705.0, quote.Open, 1e-6)
	require.InDelta(t, 1699.0, quote.PrevClose, 1e-6)
	require.InDelta(t, 1718.5, quote.Last, 1e-6)
	require.InDelta(t, 1722.0, quote.High, 1e-6)
	require.InDelta(t, 1700.0, quote.Low, 1e-6)
	require.InDelta(t, 2600000.0, quote.Volume, 1e-6)
	require.InDelta(t, 4456000000.0, quote.Amount, 1e-6)
	require.False(t, quote.At.IsZero())
}

func TestSnapshotEmptyQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`var hq_str_sh600519="";`))
	})

	_, err := client.Snapshot(context.Background(), "600519")
	require.ErrorIs(t, err, datasource.ErrNoData)
}

func TestSnapshotRejectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusRejected)
	})

	_, err := client.Snapshot(context.Background(), "600519")
	require.True(t, datasource.IsRateLimited(err))
}

func TestSnapshotForbiddenStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Snapshot(context.Background(), "600519")
	require.True(t, datasource.IsRateLimited(err))
}

func TestSnapshotMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`var hq_str_sh600519="a,b,c";`))
	})

	_, err := client.Snapshot(context.Background(), "600519")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fields")
}

func TestListCodeFor(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{"600519", "sh600519"},
		{"510300", "sh510300"},
		{"000001", "sz000001"},
		{"300750", "sz300750"},
		{"830799", "bj830799"},
	}
	for _, tc := range cases {
		got, err := listCodeFor(tc.symbol)
		require.NoError(t, err, tc.symbol)
		require.Equal(t, tc.want, got)
	}

	_, err := listCodeFor("abc")
	require.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestAdapterCapabilities(t *testing.T) {
	a := NewAdapter("sina", NewClient())
	require.Equal(t, "sina", a.Name())
	require.Equal(t, []datasource.Kind{datasource.KindQuote}, a.Capabilities())

	_, err := a.FetchDaily(context.Background(), "600519")
	require.ErrorIs(t, err, ErrKindNotSupported)
	_, err = a.FetchChip(context.Background(), "600519")
	require.ErrorIs(t, err, ErrKindNotSupported)
}
