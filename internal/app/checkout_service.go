package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/alert"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/sirupsen/logrus"
)

// transcriptMessageLimit caps how many recent conversation messages are
// concatenated into the relayed transcript.
const transcriptMessageLimit = 5

// TranscriptRelay forwards one reservation's conversation transcript to the
// downstream automation webhook.
type TranscriptRelay interface {
	Send(ctx context.Context, conversationID int64, phone, transcript string) error
}

// CheckoutService relays departure-day conversation transcripts so the
// downstream automation can follow up with departing guests.
type CheckoutService struct {
	source        reservation.Source
	conversations reservation.ConversationSource
	relay         TranscriptRelay
	alerts        alert.Notifier
	log           *logrus.Logger
	now           func() time.Time
}

// NewCheckoutService wires the departure-day relay.
func NewCheckoutService(
	source reservation.Source,
	conversations reservation.ConversationSource,
	relay TranscriptRelay,
	alerts alert.Notifier,
	log *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		source:        source,
		conversations: conversations,
		relay:         relay,
		alerts:        alerts,
		log:           log,
		now:           time.Now,
	}
}

// SetNow overrides the clock (useful for testing).
func (s *CheckoutService) SetNow(now func() time.Time) {
	s.now = now
}

// Checkout processes today's departures. Per-reservation failures are logged,
// alerted and skipped; only the initial list fetch aborts the batch.
func (s *CheckoutService) Checkout(ctx context.Context) (BatchResult, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	reservations, err := s.source.ListByDepartureWindow(ctx, today, today)
	if err != nil {
		s.log.Errorf("Failed to fetch departures for checkout: %v", err)
		s.alerts.Notify(ctx, fmt.Sprintf("Failed to fetch departures for checkout: %v", err))
		return nil, fmt.Errorf("failed to fetch departures for checkout: %w", err)
	}
	s.log.Infof("Running checkout relay over %d departures", len(reservations))

	result := make(BatchResult, len(reservations))
	for i := range reservations {
		r := &reservations[i]

		conversationID, err := s.conversations.LatestConversation(ctx, r.ID)
		if err != nil {
			if errors.Is(err, reservation.ErrNoConversation) {
				s.log.Warnf("No conversation ID found for reservation %d", r.ID)
				s.alerts.Notify(ctx, fmt.Sprintf("No conversation ID found for reservation %d", r.ID))
				result[r.ID] = "no conversation"
				continue
			}
			s.log.Errorf("%d - failed to fetch conversation: %v", r.ID, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - failed to fetch conversation: %v", r.ID, err))
			result[r.ID] = "conversation fetch failed"
			continue
		}

		messages, err := s.conversations.RecentMessages(ctx, conversationID, transcriptMessageLimit)
		if err != nil {
			s.log.Errorf("%d - failed to fetch conversation messages: %v", r.ID, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - failed to fetch conversation messages: %v", r.ID, err))
			result[r.ID] = "messages fetch failed"
			continue
		}

		transcript := strings.Join(messages, "")
		if err := s.relay.Send(ctx, conversationID, r.Phone, transcript); err != nil {
			s.log.Errorf("%d - relay POST failed: %v", r.ID, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - relay POST failed: %v", r.ID, err))
			result[r.ID] = "relay failed"
			continue
		}
		result[r.ID] = "relayed"
	}
	return result, nil
}
