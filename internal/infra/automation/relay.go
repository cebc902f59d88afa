package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Relay forwards checkout conversation transcripts to the downstream
// automation webhook.
type Relay struct {
	webhookURL string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewRelay creates a transcript relay targeting the given webhook URL.
func NewRelay(webhookURL string, log *logrus.Logger) *Relay {
	return &Relay{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (r *Relay) SetHTTPClient(hc *http.Client) {
	r.httpClient = hc
}

// relayPayload matches what the automation flow expects.
type relayPayload struct {
	ConversationID int64  `json:"conversation_id"`
	Phone          string `json:"phone"`
	Messages       string `json:"messages"`
}

// Send posts one reservation's conversation transcript.
func (r *Relay) Send(ctx context.Context, conversationID int64, phone, transcript string) error {
	if r.webhookURL == "" {
		return fmt.Errorf("automation webhook URL is not configured")
	}

	body, err := json.Marshal(relayPayload{
		ConversationID: conversationID,
		Phone:          phone,
		Messages:       transcript,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay POST failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("relay POST failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	r.log.Infof("Relayed conversation %d transcript for phone %s", conversationID, phone)
	return nil
}
