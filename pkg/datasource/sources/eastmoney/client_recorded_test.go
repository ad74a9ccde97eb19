package eastmoney

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// This test uses go-vcr to record/replay a real daily kline call.
// It skips by default if the cassette is absent and RECORD_CASSETTES != 1.
func TestClient_DailyKlines_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "eastmoney_kline.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	httpClient := &http.Client{Transport: r}
	client := NewClient(WithHTTPClient(httpClient), WithBarLimit(30))
	ctx := context.Background()
	bars, err := client.DailyKlines(ctx, "600519")
	assert.NoError(t, err, "DailyKlines should not error")
	assert.NotEmpty(t, bars, "bars should not be empty")
	if len(bars) > 0 {
		assert.NotEmpty(t, bars[0].Date, "date should not be empty")
		assert.Greater(t, bars[0].Close, 0.0, "close should be positive")
	}
}
