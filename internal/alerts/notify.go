package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// notifyTimeout bounds one webhook delivery attempt. There are no retries;
// a failed delivery is reported once and dropped.
const notifyTimeout = 5 * time.Second

// Notifier delivers single alerts to a configured webhook target.
// Delivery is best-effort: Notify returns the delivery error so the caller
// can log it, but evaluation never depends on delivery succeeding. With no
// URL configured every call is a no-op.
type Notifier struct {
	whType string
	url    string
	client *http.Client
}

// NewNotifier builds a Notifier from the webhook config, resolving the
// target URL from the environment once at construction.
func NewNotifier(cfg config.Webhook) *Notifier {
	return &Notifier{
		whType: cfg.Type,
		url:    cfg.URL(),
		client: &http.Client{Timeout: notifyTimeout},
	}
}

// Enabled reports whether a destination URL is configured.
func (n *Notifier) Enabled() bool { return n.url != "" }

// Notify sends one alert to the configured webhook. Returns nil immediately
// when no destination is configured.
func (n *Notifier) Notify(a types.Alert) error {
	if n.url == "" {
		return nil
	}

	var body []byte
	switch n.whType {
	case "teams":
		body, _ = json.Marshal(map[string]any{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": severityColor(a.Severity),
			"summary":    a.Type,
			"title":      fmt.Sprintf("KubeWatch Alert: %s", a.Type),
			"text":       fmt.Sprintf("%s %s", severityLabel(a.Severity), a.Message),
		})
	case "http":
		body, _ = json.Marshal(map[string]any{"alert": a})
	default: // slack
		body, _ = json.Marshal(map[string]string{
			"text":     fmt.Sprintf("%s *KubeWatch*: %s", severityLabel(a.Severity), a.Message),
			"severity": a.Severity,
		})
	}

	return n.post(body)
}

func (n *Notifier) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case types.SeverityCritical:
		return "[CRITICAL]"
	case types.SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case types.SeverityCritical:
		return "FF4F6A"
	case types.SeverityWarning:
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
