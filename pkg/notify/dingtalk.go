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
	"net/url"
	"time"
)

// DingTalkConfig configures a DingTalk bot webhook.
type DingTalkConfig struct {
	Webhook string `yaml:"webhook"`
	// Secret enables the bot's signed-URL verification when set.
	Secret string `yaml:"secret"`
}

// DingTalk posts markdown messages to a DingTalk group bot.
type DingTalk struct {
	cfg        DingTalkConfig
	httpClient *http.Client
	now        func() time.Time
}

var _ Channel = (*DingTalk)(nil)

// NewDingTalk constructs the channel.
func NewDingTalk(cfg DingTalkConfig) *DingTalk {
	return &DingTalk{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Name implements Channel.
func (d *DingTalk) Name() string { return "dingtalk" }

// Send implements Channel.
func (d *DingTalk) Send(ctx context.Context, title, text string) error {
	payload := map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": title,
			"text":  "### " + title + "\n\n" + text,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dingtalk: encode payload: %w", err)
	}

	endpoint := d.cfg.Webhook
	if d.cfg.Secret != "" {
		endpoint, err = signedURL(endpoint, d.cfg.Secret, d.now().UnixMilli())
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dingtalk: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dingtalk: request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dingtalk: http status %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("dingtalk: decode response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk: api code %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// signedURL appends the timestamp+sign query parameters DingTalk requires
// for secret-protected bots.
func signedURL(webhook, secret string, tsMillis int64) (string, error) {
	u, err := url.Parse(webhook)
	if err != nil {
		return "", fmt.Errorf("dingtalk: parse webhook: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d\n%s", tsMillis, secret)
	sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	q := u.Query()
	q.Set("timestamp", fmt.Sprintf("%d", tsMillis))
	q.Set("sign", sign)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
