// Package notify delivers chat-bot messages summarizing sync and diff
// results to a signed webhook (DingTalk-style request signing).
//
// Notification is always best-effort: a missing webhook URL is a silent
// no-op, and the sync orchestrator swallows every error this package
// returns. Direct callers (the mock-notify endpoint) do see the error.
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
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/devgate/swagsync/syncerrors"
)

// Message is one chat message. Markdown messages need both Title and Text;
// plain text messages use Text only.
type Message struct {
	MsgType string `json:"msgtype"`
	Title   string `json:"title,omitempty"`
	Text    string `json:"text"`
}

// MarkdownMessage builds a markdown message.
func MarkdownMessage(title, text string) Message {
	return Message{MsgType: "markdown", Title: title, Text: text}
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{MsgType: "text", Text: text}
}

// Notifier posts messages to a chat webhook. The zero value is a usable
// no-op notifier (no webhook URL configured).
type Notifier struct {
	// WebhookURL is the bot webhook endpoint. Empty disables delivery.
	WebhookURL string
	// Secret, when set, enables HMAC-SHA256 request signing.
	Secret string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger

	// now is swapped by tests to pin the signing timestamp.
	now func() time.Time
}

// New creates a Notifier for the given webhook.
func New(webhookURL, secret string) *Notifier {
	return &Notifier{WebhookURL: webhookURL, Secret: secret}
}

// Send posts one message to the webhook. A missing webhook URL logs a
// warning and returns nil. A non-2xx status or a non-JSON response body is
// an error; callers on the sync path are expected to swallow it.
func (n *Notifier) Send(ctx context.Context, msg Message) error {
	if n.WebhookURL == "" {
		n.logger().Warn("notification webhook not configured, skipping message", "title", msg.Title)
		return nil
	}

	target, err := n.signedURL()
	if err != nil {
		return fmt.Errorf("notify: building webhook URL: %w", err)
	}

	body, err := json.Marshal(wirePayload(msg))
	if err != nil {
		return fmt.Errorf("notify: encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.client().Do(req)
	if err != nil {
		return &syncerrors.FetchError{URL: n.WebhookURL, Message: "webhook request failed", Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &syncerrors.FetchError{URL: n.WebhookURL, StatusCode: resp.StatusCode, Message: "reading webhook response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &syncerrors.FetchError{URL: n.WebhookURL, StatusCode: resp.StatusCode, Message: "webhook rejected message"}
	}

	var parsed struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		n.logger().Error("webhook returned non-JSON body", "error", err, "body_prefix", preview(raw))
		return syncerrors.NewMalformedResponse(n.WebhookURL, "JSON object", raw, err)
	}
	if parsed.ErrCode != 0 {
		return fmt.Errorf("notify: webhook error %d: %s", parsed.ErrCode, parsed.ErrMsg)
	}
	return nil
}

// signedURL appends timestamp and sign query parameters when a secret is
// configured. The signature is base64(HMAC-SHA256(secret, "{ts}\n{secret}")).
func (n *Notifier) signedURL() (string, error) {
	if n.Secret == "" {
		return n.WebhookURL, nil
	}

	parsed, err := url.Parse(n.WebhookURL)
	if err != nil {
		return "", err
	}

	ts := n.clock()().UnixMilli()
	mac := hmac.New(sha256.New, []byte(n.Secret))
	fmt.Fprintf(mac, "%d\n%s", ts, n.Secret)
	sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	q := parsed.Query()
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	q.Set("sign", sign)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// wirePayload renders the Message in the webhook's wire shape.
func wirePayload(msg Message) map[string]any {
	switch msg.MsgType {
	case "markdown":
		return map[string]any{
			"msgtype":  "markdown",
			"markdown": map[string]any{"title": msg.Title, "text": msg.Text},
		}
	default:
		return map[string]any{
			"msgtype": "text",
			"text":    map[string]any{"content": msg.Text},
		}
	}
}

func (n *Notifier) client() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (n *Notifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n *Notifier) clock() func() time.Time {
	if n.now != nil {
		return n.now
	}
	return time.Now
}

func preview(body []byte) string {
	const max = 120
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
