package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier posts plain-text alerts to a Slack incoming webhook. It implements
// alert.Notifier: delivery is best effort and failures are only logged, so the
// batch loops can alert without error handling of their own.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewNotifier creates a webhook notifier. An empty URL disables delivery.
func NewNotifier(webhookURL string, log *logrus.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (n *Notifier) SetHTTPClient(hc *http.Client) {
	n.httpClient = hc
}

// Notify forwards a message to the alerting channel.
func (n *Notifier) Notify(ctx context.Context, text string) {
	if n.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.log.Errorf("Failed to marshal alert payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.log.Errorf("Failed to create alert request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.Errorf("Failed to deliver alert: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.log.Errorf("Alert webhook returned status %d", resp.StatusCode)
	}
}
