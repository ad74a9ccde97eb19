// Package notify delivers analysis outcomes to chat webhooks. Delivery is
// best-effort: a channel failure is logged and never propagated, so a dead
// webhook cannot fail a batch.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"gopkg.in/yaml.v3"

	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
)

// Channel is a single delivery target.
type Channel interface {
	Name() string
	Send(ctx context.Context, title, text string) error
}

// Config declares the enabled channels.
type Config struct {
	Feishu   *FeishuConfig   `yaml:"feishu,omitempty"`
	DingTalk *DingTalkConfig `yaml:"dingtalk,omitempty"`
	// MinAction filters per-symbol notifications: "buy" limits them to buy
	// decisions, empty or "all" sends everything.
	MinAction string `yaml:"min_action"`
}

// LoadConfig reads a notify config file, expanding ${ENV} placeholders in
// webhook URLs and secrets.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notify config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read notify config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal notify config: %w", err)
	}
	if cfg.Feishu != nil {
		cfg.Feishu.Webhook = os.ExpandEnv(cfg.Feishu.Webhook)
		cfg.Feishu.Secret = os.ExpandEnv(cfg.Feishu.Secret)
	}
	if cfg.DingTalk != nil {
		cfg.DingTalk.Webhook = os.ExpandEnv(cfg.DingTalk.Webhook)
		cfg.DingTalk.Secret = os.ExpandEnv(cfg.DingTalk.Secret)
	}
	return &cfg, nil
}

// Build constructs the configured channels.
func (c *Config) Build() ([]Channel, error) {
	var channels []Channel
	if c.Feishu != nil && c.Feishu.Webhook != "" {
		channels = append(channels, NewFeishu(*c.Feishu))
	}
	if c.DingTalk != nil && c.DingTalk.Webhook != "" {
		channels = append(channels, NewDingTalk(*c.DingTalk))
	}
	return channels, nil
}

// Notifier fans analysis outcomes out to every configured channel.
type Notifier struct {
	channels  []Channel
	minAction string
	timeout   time.Duration
}

var _ pipeline.Notifier = (*Notifier)(nil)

// NewNotifier wraps the channels. An empty channel list is valid and makes
// every send a no-op.
func NewNotifier(channels []Channel, minAction string) *Notifier {
	return &Notifier{
		channels:  channels,
		minAction: minAction,
		timeout:   10 * time.Second,
	}
}

// NotifyDecision implements pipeline.Notifier for one symbol's outcome.
func (n *Notifier) NotifyDecision(ctx context.Context, task *pipeline.Task) error {
	if task == nil || task.Decision == nil {
		return nil
	}
	if n.minAction == "buy" && string(task.Decision.Action) != "buy" {
		return nil
	}
	title, text := renderDecision(task)
	n.broadcast(ctx, title, text)
	return nil
}

// NotifyReport sends the end-of-batch summary.
func (n *Notifier) NotifyReport(ctx context.Context, report *pipeline.Report) {
	if report == nil {
		return
	}
	title, text := renderReport(report)
	n.broadcast(ctx, title, text)
}

func (n *Notifier) broadcast(ctx context.Context, title, text string) {
	for _, ch := range n.channels {
		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		if err := ch.Send(sendCtx, title, text); err != nil {
			logx.Errorf("notify: %s delivery failed: %v", ch.Name(), err)
		}
		cancel()
	}
}
