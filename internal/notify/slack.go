package notify

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
)

// ErrDisabled is returned by a Slack notifier without a webhook.
var ErrDisabled = errors.New("slack disabled")

// Slack posts alerts to an incoming-webhook URL.
type Slack struct {
	Webhook  string
	Username string
	Client   *http.Client
}

// NewSlack returns nil for an empty webhook; a nil *Slack reports ErrDisabled.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook:  webhook,
		Username: "sitecheck",
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookMessage struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return ErrDisabled
	}
	msg, err := json.Marshal(webhookMessage{
		Text:     fmt.Sprintf("*%s*\n%s", title, text),
		Username: s.Username,
	})
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(msg))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	// Slack explains rejections in a short plain-text body.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if d := strings.TrimSpace(string(detail)); d != "" {
			return fmt.Errorf("slack returned %d: %s", resp.StatusCode, d)
		}
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}
