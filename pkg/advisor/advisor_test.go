package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/llm"
)

// fakeLLM implements llm.LLMClient with a canned structured payload.
type fakeLLM struct {
	payload    string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeLLM) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) ChatStructured(ctx context.Context, req *llm.ChatRequest, target interface{}) error {
	f.calls++
	for _, m := range req.Messages {
		if m.Role == "user" {
			f.lastPrompt = m.Content
		}
	}
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.payload), target)
}

func (f *fakeLLM) GetConfig() *llm.Config { return nil }
func (f *fakeLLM) Close() error           { return nil }

func bullishResult() *analyzer.Result {
	return &analyzer.Result{
		Symbol:      "600519",
		Date:        "2025-06-11",
		Price:       1718.5,
		MA5:         1700,
		MA10:        1680,
		MA20:        1650,
		Trend:       analyzer.TrendBull,
		Volume:      analyzer.VolumeShrinkDn,
		MACDStatus:  analyzer.MACDBullish,
		RSIStatus:   analyzer.RSIStrong,
		RSIMid:      65,
		Signal:      analyzer.SignalBuy,
		Score:       68,
		Reasons:     []string{"moving averages aligned upward"},
		Risks:       nil,
		VolumeRatio: 0.6,
	}
}

func TestAdviseUsesLLMDecision(t *testing.T) {
	fake := &fakeLLM{payload: `{"action":"buy","confidence":0.72,"reasons":["trend intact","pullback on light volume"]}`}
	a := New(fake)

	d, err := a.Advise(context.Background(), bullishResult())
	require.NoError(t, err)
	require.Equal(t, ActionBuy, d.Action)
	require.Equal(t, SourceLLM, d.Source)
	require.InDelta(t, 0.72, d.Confidence, 1e-9)
	require.Len(t, d.Reasons, 2)
	require.Equal(t, "600519", d.Symbol)

	require.Contains(t, fake.lastPrompt, "600519")
	require.Contains(t, fake.lastPrompt, "score 68/100")
}

func TestAdviseFallsBackOnLLMError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("upstream 500")}
	a := New(fake)

	d, err := a.Advise(context.Background(), bullishResult())
	require.NoError(t, err)
	require.Equal(t, SourceRules, d.Source)
	require.Equal(t, ActionBuy, d.Action)
	require.InDelta(t, 0.68, d.Confidence, 1e-9)
}

func TestAdviseFallsBackOnInvalidAction(t *testing.T) {
	fake := &fakeLLM{payload: `{"action":"yolo","confidence":0.9,"reasons":[]}`}
	a := New(fake)

	d, err := a.Advise(context.Background(), bullishResult())
	require.NoError(t, err)
	require.Equal(t, SourceRules, d.Source)
}

func TestAdviseFallsBackOnOutOfRangeConfidence(t *testing.T) {
	fake := &fakeLLM{payload: `{"action":"buy","confidence":1.4,"reasons":[]}`}
	a := New(fake)

	d, err := a.Advise(context.Background(), bullishResult())
	require.NoError(t, err)
	require.Equal(t, SourceRules, d.Source)
}

func TestAdviseCancellationIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeLLM{err: context.Canceled}
	a := New(fake)

	_, err := a.Advise(ctx, bullishResult())
	require.ErrorIs(t, err, context.Canceled)
}

func TestAdviseWithoutClientUsesRules(t *testing.T) {
	a := New(nil)

	cases := []struct {
		signal analyzer.Signal
		want   Action
	}{
		{analyzer.SignalStrongBuy, ActionBuy},
		{analyzer.SignalBuy, ActionBuy},
		{analyzer.SignalHold, ActionHold},
		{analyzer.SignalWait, ActionHold},
		{analyzer.SignalSell, ActionAvoid},
		{analyzer.SignalStrongSell, ActionAvoid},
	}
	for _, tc := range cases {
		t.Run(string(tc.signal), func(t *testing.T) {
			res := bullishResult()
			res.Signal = tc.signal
			d, err := a.Advise(context.Background(), res)
			require.NoError(t, err)
			require.Equal(t, tc.want, d.Action)
			require.Equal(t, SourceRules, d.Source)
		})
	}
}

type staticContext struct{ text string }

func (s staticContext) Context(ctx context.Context, symbol string) (string, error) {
	return s.text, nil
}

type failingContext struct{}

func (failingContext) Context(ctx context.Context, symbol string) (string, error) {
	return "", errors.New("search unavailable")
}

func TestAdviseIncludesProviderContext(t *testing.T) {
	fake := &fakeLLM{payload: `{"action":"hold","confidence":0.5,"reasons":[]}`}
	a := New(fake, WithContextProvider(staticContext{text: "sector rotation into liquor names"}))

	_, err := a.Advise(context.Background(), bullishResult())
	require.NoError(t, err)
	require.Contains(t, fake.lastPrompt, "sector rotation")
}

func TestAdviseSurvivesProviderFailure(t *testing.T) {
	fake := &fakeLLM{payload: `{"action":"hold","confidence":0.5,"reasons":[]}`}
	a := New(fake, WithContextProvider(failingContext{}))

	d, err := a.Advise(context.Background(), bullishResult())
	require.NoError(t, err)
	require.Equal(t, SourceLLM, d.Source)
	require.False(t, strings.Contains(fake.lastPrompt, "Additional context"))
}

func TestFallbackUsesRisksForAvoid(t *testing.T) {
	a := New(nil)
	res := bullishResult()
	res.Signal = analyzer.SignalStrongSell
	res.Risks = []string{"heavy selling volume"}

	d, err := a.Advise(context.Background(), res)
	require.NoError(t, err)
	require.Equal(t, ActionAvoid, d.Action)
	require.Equal(t, []string{"heavy selling volume"}, d.Reasons)
}
