package wazzup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/messaging"

	"github.com/sirupsen/logrus"
)

// Config holds the settings for the Wazzup messaging gateway client.
type Config struct {
	BaseURL     string // e.g. https://api.wazzup24.com/v3
	AccessToken string
	ChannelID   string
	CRMUserID   string
	Templates   TemplateTable // nil means DefaultTemplates()
}

var nonDigits = regexp.MustCompile(`\D`)

// Client sends templated WhatsApp messages through Wazzup. It implements
// messaging.Sender.
type Client struct {
	baseURL    string
	token      string
	channelID  string
	crmUserID  string
	templates  TemplateTable
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a new Wazzup gateway client.
func NewClient(cfg Config, log *logrus.Logger) *Client {
	templates := cfg.Templates
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.AccessToken,
		channelID: cfg.ChannelID,
		crmUserID: cfg.CRMUserID,
		templates: templates,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// sendRequest is the Wazzup template-message payload.
type sendRequest struct {
	ChannelID  string `json:"channelId"`
	CRMUserID  string `json:"crmUserId"`
	ChatID     string `json:"chatId"`
	TemplateID string `json:"templateId"`
	ChatType   string `json:"chatType"`
}

// Send resolves the template for (purpose, attempt, locale) and issues the
// templated send. A missing template is a data-completeness gap: it is logged
// and the send is skipped without error. Transport failures come back wrapped
// so the caller can log them; they never abort a batch.
func (c *Client) Send(ctx context.Context, phone string, purpose messaging.Purpose, attempt int, locale string) error {
	templateID, ok := c.templates.resolve(purpose, attempt, locale)
	if !ok {
		c.log.Warnf("No template ID found for purpose %q, attempt %d, locale %q; message skipped", purpose, attempt, locale)
		return nil
	}

	payload := sendRequest{
		ChannelID:  c.channelID,
		CRMUserID:  c.crmUserID,
		ChatID:     nonDigits.ReplaceAllString(phone, ""),
		TemplateID: templateID,
		ChatType:   "whatsapp",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("message send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("message send failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	c.log.Infof("Sent %s template %s (attempt %d, locale %s) to %s", purpose, templateID, attempt, locale, payload.ChatID)
	return nil
}
