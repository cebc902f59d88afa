package hostaway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/sirupsen/logrus"
)

// Config holds the settings for the Hostaway API client.
type Config struct {
	BaseURL string // e.g. https://api.hostaway.com/v1
	APIKey  string
}

// Client talks to the Hostaway reservations API. It implements
// reservation.Source and reservation.ConversationSource.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a new Hostaway API client.
func NewClient(cfg Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
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

// listResponse is the Hostaway list envelope.
type listResponse struct {
	Result []reservation.Reservation `json:"result"`
}

// singleResponse is the Hostaway single-entity envelope.
type singleResponse struct {
	Result reservation.Reservation `json:"result"`
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Cache-control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", reservation.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response body: %v", reservation.ErrUpstream, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return reservation.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", reservation.ErrUpstream, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode Hostaway response: %w", err)
	}
	return nil
}

// listByWindow fetches reservations filtered on the given date field and drops
// terminal statuses.
func (c *Client) listByWindow(ctx context.Context, startParam, endParam string, from, to time.Time) ([]reservation.Reservation, error) {
	params := url.Values{}
	params.Set("offset", "0")
	params.Set("sortOrder", "arrivalDate")
	params.Set(startParam, from.Format(reservation.DateLayout))
	params.Set(endParam, to.Format(reservation.DateLayout))
	endpoint := "/reservations?" + params.Encode()

	c.log.Debugf("Fetching reservations from %s%s", c.baseURL, endpoint)

	var envelope listResponse
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}

	valid := make([]reservation.Reservation, 0, len(envelope.Result))
	for _, r := range envelope.Result {
		if reservation.IsTerminalStatus(r.Status) {
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// ListByArrivalWindow returns non-terminal reservations arriving in [from, to].
func (c *Client) ListByArrivalWindow(ctx context.Context, from, to time.Time) ([]reservation.Reservation, error) {
	return c.listByWindow(ctx, "arrivalStartDate", "arrivalEndDate", from, to)
}

// ListByDepartureWindow returns non-terminal reservations departing in [from, to].
func (c *Client) ListByDepartureWindow(ctx context.Context, from, to time.Time) ([]reservation.Reservation, error) {
	return c.listByWindow(ctx, "departureStartDate", "departureEndDate", from, to)
}

// GetByID fetches a single reservation.
func (c *Client) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var envelope singleResponse
	if err := c.get(ctx, "/reservations/"+strconv.FormatInt(id, 10), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Result, nil
}

// conversationsResponse mirrors GET /reservations/{id}/conversations.
type conversationsResponse struct {
	Result []struct {
		ConversationMessages []struct {
			ConversationID int64 `json:"conversationId"`
		} `json:"conversationMessages"`
	} `json:"result"`
}

// messagesResponse mirrors GET /conversations/{id}/messages.
type messagesResponse struct {
	Result []struct {
		Body string `json:"body"`
	} `json:"result"`
}

// LatestConversation returns the conversation id attached to a reservation.
func (c *Client) LatestConversation(ctx context.Context, reservationID int64) (int64, error) {
	var envelope conversationsResponse
	endpoint := fmt.Sprintf("/reservations/%d/conversations", reservationID)
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return 0, err
	}
	if len(envelope.Result) == 0 || len(envelope.Result[0].ConversationMessages) == 0 {
		return 0, reservation.ErrNoConversation
	}
	return envelope.Result[0].ConversationMessages[0].ConversationID, nil
}

// RecentMessages returns the bodies of up to limit recent conversation messages.
func (c *Client) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]string, error) {
	var envelope messagesResponse
	endpoint := fmt.Sprintf("/conversations/%d/messages?limit=%d", conversationID, limit)
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	bodies := make([]string, 0, len(envelope.Result))
	for _, m := range envelope.Result {
		bodies = append(bodies, m.Body)
	}
	return bodies, nil
}
