// Package advisor turns a trend analysis into a trading stance, asking an
// LLM for a structured second opinion and falling back to the rule score
// when the model is unavailable.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
	"github.com/HinaTK/daily-stock-analysis/pkg/llm"
)

// Action is the advised stance for a symbol.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionHold  Action = "hold"
	ActionAvoid Action = "avoid"
)

// Source records which engine produced a decision.
type Source string

const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)

// Decision is the per-symbol output of the advisor.
type Decision struct {
	Symbol     string   `json:"symbol"`
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"` // 0-1
	Reasons    []string `json:"reasons"`
	Source     Source   `json:"source"`
}

// decisionContract is the JSON shape requested from the model.
type decisionContract struct {
	Action     string   `json:"action" description:"one of: buy, hold, avoid"`
	Confidence float64  `json:"confidence" description:"0 to 1"`
	Reasons    []string `json:"reasons" description:"short bullet reasons, at most 5"`
}

// ContextProvider supplies optional extra context for the prompt, such as
// recent news or sector notes. Errors are logged and the context skipped.
type ContextProvider interface {
	Context(ctx context.Context, symbol string) (string, error)
}

// Advisor asks the LLM to judge each analyzed symbol.
type Advisor struct {
	client   llm.LLMClient
	provider ContextProvider
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithContextProvider attaches an extra-context source.
func WithContextProvider(p ContextProvider) Option {
	return func(a *Advisor) {
		a.provider = p
	}
}

// New constructs an Advisor. A nil client is allowed: every decision then
// comes from the rule fallback.
func New(client llm.LLMClient, opts ...Option) *Advisor {
	a := &Advisor{client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advise produces a decision for one analyzed symbol. LLM failures are not
// fatal: the rule-based fallback fills in and the error is only logged.
func (a *Advisor) Advise(ctx context.Context, res *analyzer.Result) (*Decision, error) {
	if res == nil {
		return nil, fmt.Errorf("advisor: analysis result is required")
	}
	if a.client == nil {
		return a.fallback(res), nil
	}

	extra := a.extraContext(ctx, res.Symbol)

	var contract decisionContract
	req := &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: renderPrompt(res, extra)},
		},
	}
	if err := a.client.ChatStructured(ctx, req, &contract); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.WithContext(ctx).Errorf("advisor: llm decision for %s failed, using rules: %v", res.Symbol, err)
		return a.fallback(res), nil
	}

	decision, err := mapContract(res.Symbol, contract)
	if err != nil {
		logx.WithContext(ctx).Errorf("advisor: invalid llm decision for %s, using rules: %v", res.Symbol, err)
		return a.fallback(res), nil
	}
	return decision, nil
}

func (a *Advisor) extraContext(ctx context.Context, symbol string) string {
	if a.provider == nil {
		return ""
	}
	extra, err := a.provider.Context(ctx, symbol)
	if err != nil {
		logx.WithContext(ctx).Errorf("advisor: context provider for %s: %v", symbol, err)
		return ""
	}
	return extra
}

func mapContract(symbol string, c decisionContract) (*Decision, error) {
	action := Action(strings.ToLower(strings.TrimSpace(c.Action)))
	switch action {
	case ActionBuy, ActionHold, ActionAvoid:
	default:
		return nil, fmt.Errorf("advisor: unknown action %q", c.Action)
	}

	confidence := c.Confidence
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("advisor: confidence %v out of range", c.Confidence)
	}

	reasons := c.Reasons
	if len(reasons) > 5 {
		reasons = reasons[:5]
	}
	return &Decision{
		Symbol:     symbol,
		Action:     action,
		Confidence: confidence,
		Reasons:    reasons,
		Source:     SourceLLM,
	}, nil
}

// fallback derives a stance directly from the rule signal and score.
func (a *Advisor) fallback(res *analyzer.Result) *Decision {
	var action Action
	switch res.Signal {
	case analyzer.SignalStrongBuy, analyzer.SignalBuy:
		action = ActionBuy
	case analyzer.SignalHold, analyzer.SignalWait:
		action = ActionHold
	default:
		action = ActionAvoid
	}

	reasons := res.Reasons
	if action == ActionAvoid {
		reasons = res.Risks
	}
	if len(reasons) > 5 {
		reasons = reasons[:5]
	}
	return &Decision{
		Symbol:     res.Symbol,
		Action:     action,
		Confidence: float64(res.Score) / 100,
		Reasons:    reasons,
		Source:     SourceRules,
	}
}
