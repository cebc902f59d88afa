package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// Config holds the settings for the NocoDB row-store client.
type Config struct {
	BaseURL string // reminders API root, one table per reminder category below it
	Token   string // xc-token
}

// Table names in the row-store, one per reminder category.
const (
	tableRegistrations = "checked_reservations"
	tableVerifications = "checked_verifications"
	tablePostCheckin   = "post_checkin"
)

// Store implements reminder.Store on top of the NocoDB REST API. One row per
// sent reminder; the row count per (reservation, category) is the authoritative
// attempt counter. This process is the only writer of these tables, so a
// per-key in-process lock is enough to keep the read-then-insert sequence from
// racing with itself across the scheduler, webhook and manual endpoints.
type Store struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a new NocoDB-backed reminder store.
func NewStore(cfg Config, log *logrus.Logger) *Store {
	return &Store{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (s *Store) SetHTTPClient(hc *http.Client) {
	s.httpClient = hc
}

func tableFor(category reminder.Category) (string, error) {
	switch category {
	case reminder.CategoryRegistration:
		return tableRegistrations, nil
	case reminder.CategoryVerification:
		return tableVerifications, nil
	case reminder.CategoryPostCheckin:
		return tablePostCheckin, nil
	default:
		return "", fmt.Errorf("unknown reminder category: %s", category)
	}
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// listEnvelope is the NocoDB list response shape.
type listEnvelope struct {
	List []json.RawMessage `json:"list"`
}

// countRows returns how many reminder rows exist for a reservation in a table.
func (s *Store) countRows(ctx context.Context, table string, reservationID int64) (int, error) {
	params := url.Values{}
	params.Set("where", fmt.Sprintf("(reservation_id,eq,%d)", reservationID))
	reqURL := fmt.Sprintf("%s/%s?%s", s.baseURL, table, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create row-store request: %w", err)
	}
	req.Header.Set("xc-token", s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("row-store read failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read row-store response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("row-store read failed: status %d: %s", resp.StatusCode, string(body))
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("failed to decode row-store response: %w", err)
	}
	return len(envelope.List), nil
}

// insertRow creates one reminder row for a reservation.
func (s *Store) insertRow(ctx context.Context, table string, reservationID int64) error {
	payload, err := json.Marshal(map[string]int64{"reservation_id": reservationID})
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s", s.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create row-store request: %w", err)
	}
	req.Header.Set("xc-token", s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("row-store insert failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("row-store insert failed: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// RecordAttempt counts existing rows for (reservationID, category), inserts one
// more when under the cap, and returns the 1-based attempt number. At the cap
// it returns reminder.ErrCapReached without inserting.
func (s *Store) RecordAttempt(ctx context.Context, reservationID int64, category reminder.Category) (int, error) {
	table, err := tableFor(category)
	if err != nil {
		return 0, err
	}

	lock := s.keyLock(fmt.Sprintf("%s/%d", table, reservationID))
	lock.Lock()
	defer lock.Unlock()

	count, err := s.countRows(ctx, table, reservationID)
	if err != nil {
		return 0, err
	}
	if count >= reminder.MaxAttempts {
		return 0, reminder.ErrCapReached
	}

	if err := s.insertRow(ctx, table, reservationID); err != nil {
		return 0, err
	}
	s.log.Debugf("Recorded reminder attempt %d for reservation %d in %s", count+1, reservationID, table)
	return count + 1, nil
}

// RecordArrival is the binary post-check-in variant: a single send, recorded at
// most once per reservation.
func (s *Store) RecordArrival(ctx context.Context, reservationID int64) (reminder.ArrivalOutcome, error) {
	lock := s.keyLock(fmt.Sprintf("%s/%d", tablePostCheckin, reservationID))
	lock.Lock()
	defer lock.Unlock()

	count, err := s.countRows(ctx, tablePostCheckin, reservationID)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return reminder.ArrivalAlreadySent, nil
	}

	if err := s.insertRow(ctx, tablePostCheckin, reservationID); err != nil {
		return "", err
	}
	return reminder.ArrivalRecorded, nil
}
