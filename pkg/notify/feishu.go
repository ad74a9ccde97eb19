package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FeishuConfig configures a Feishu (Lark) bot webhook.
type FeishuConfig struct {
	Webhook string `yaml:"webhook"`
	// Secret enables the bot's signature verification when set.
	Secret string `yaml:"secret"`
}

// Feishu posts text messages to a Feishu group bot.
type Feishu struct {
	cfg        FeishuConfig
	httpClient *http.Client
	now        func() time.Time
}

var _ Channel = (*Feishu)(nil)

// NewFeishu constructs the channel.
func NewFeishu(cfg FeishuConfig) *Feishu {
	return &Feishu{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Name implements Channel.
func (f *Feishu) Name() string { return "feishu" }

// Send implements Channel.
func (f *Feishu) Send(ctx context.Context, title, text string) error {
	payload := map[string]interface{}{
		"msg_type": "text",
		"content":  map[string]string{"text": title + "\n" + text},
	}
	if f.cfg.Secret != "" {
		ts := f.now().Unix()
		payload["timestamp"] = fmt.Sprintf("%d", ts)
		payload["sign"] = feishuSign(f.cfg.Secret, ts)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("feishu: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("feishu: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feishu: request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feishu: http status %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("feishu: decode response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("feishu: api code %d: %s", result.Code, result.Msg)
	}
	return nil
}

// feishuSign signs timestamp+secret with HMAC-SHA256 over an empty message,
// the scheme Feishu bots use.
func feishuSign(secret string, timestamp int64) string {
	key := fmt.Sprintf("%d\n%s", timestamp, secret)
	mac := hmac.New(sha256.New, []byte(key))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
