package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/alert"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/messaging"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/sirupsen/logrus"
)

// Webhook validation errors, returned to the caller immediately.
var (
	ErrMissingArrivalDate = fmt.Errorf("arrivalDate missing")
	ErrInvalidArrivalDate = fmt.Errorf("invalid arrivalDate format")
	ErrArrivalPassed      = fmt.Errorf("arrival date has already passed")
)

// Webhook handling statuses for events that need no background work.
const (
	StatusScheduled    = "processing scheduled"
	StatusMoreThanADay = "more than a day"
)

// arrivalDateLayouts accepted from the reservation webhook payload.
var arrivalDateLayouts = []string{reservation.DateLayout, time.RFC3339}

// ReconciliationService reacts to reservation created/updated events: when the
// arrival is within the next day it waits a fixed delay, re-fetches the single
// reservation and sends one combined reminder covering whatever compliance
// flags are still missing. Timers are keyed by reservation id, so a
// superseding event cancels and replaces the pending re-check.
type ReconciliationService struct {
	source reservation.Source
	sender messaging.Sender
	alerts alert.Notifier
	log    *logrus.Logger
	delay  time.Duration
	now    func() time.Time

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

// NewReconciliationService wires the delayed re-check.
func NewReconciliationService(
	source reservation.Source,
	sender messaging.Sender,
	alerts alert.Notifier,
	log *logrus.Logger,
	delay time.Duration,
) *ReconciliationService {
	return &ReconciliationService{
		source: source,
		sender: sender,
		alerts: alerts,
		log:    log,
		delay:  delay,
		now:    time.Now,
		timers: make(map[int64]*time.Timer),
	}
}

// SetNow overrides the clock (useful for testing).
func (s *ReconciliationService) SetNow(now func() time.Time) {
	s.now = now
}

// HandleEvent validates a reservation event and, when the arrival is within
// the next 24 hours, schedules the delayed re-check. It returns the status to
// report back to the webhook caller.
func (s *ReconciliationService) HandleEvent(reservationID int64, arrivalDate string) (string, error) {
	if arrivalDate == "" {
		s.log.Warnf("Webhook event for reservation %d has no arrival date", reservationID)
		return "", ErrMissingArrivalDate
	}

	arrival, err := parseArrivalDate(arrivalDate)
	if err != nil {
		s.log.Warnf("Webhook event for reservation %d has invalid arrival date %q: %v", reservationID, arrivalDate, err)
		return "", fmt.Errorf("%w: %q", ErrInvalidArrivalDate, arrivalDate)
	}

	now := s.now()
	if !arrival.After(now) {
		s.log.Warnf("Webhook event for reservation %d has arrival date %s in the past", reservationID, arrivalDate)
		return "", ErrArrivalPassed
	}
	if arrival.After(now.Add(24 * time.Hour)) {
		s.log.Infof("More than one day until arrival for reservation %d, nothing scheduled", reservationID)
		return StatusMoreThanADay, nil
	}

	s.schedule(reservationID)
	s.log.Infof("Started processing reservation %d, re-check in %s", reservationID, s.delay)
	return StatusScheduled, nil
}

func parseArrivalDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range arrivalDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// schedule arms (or re-arms) the deferred re-check for one reservation.
func (s *ReconciliationService) schedule(reservationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[reservationID]; ok {
		existing.Stop()
		s.log.Infof("Superseding pending re-check for reservation %d", reservationID)
	}
	s.timers[reservationID] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, reservationID)
		s.mu.Unlock()
		s.reconcile(reservationID)
	})
}

// Stop cancels all pending re-checks. Tasks already running are not interrupted.
func (s *ReconciliationService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// reconcile re-fetches the reservation and sends the combined reminder for
// whatever is still missing. Failures are logged and alerted, never retried.
func (s *ReconciliationService) reconcile(reservationID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	r, err := s.source.GetByID(ctx, reservationID)
	if err != nil {
		s.log.Errorf("Failed to re-fetch reservation %d: %v", reservationID, err)
		s.alerts.Notify(ctx, fmt.Sprintf("Failed to re-fetch reservation %d: %v", reservationID, err))
		return
	}

	compliance := r.Project()
	var purpose messaging.Purpose
	switch {
	case !compliance.RegistrationCompliant() && !compliance.VerificationCompliant():
		purpose = messaging.PurposeRegistrationDocs
	case !compliance.RegistrationCompliant():
		purpose = messaging.PurposeRegistration
	case !compliance.VerificationCompliant():
		purpose = messaging.PurposeVerification
	default:
		s.log.Infof("Reservation %d registered and verified before the re-check fired", reservationID)
		s.alerts.Notify(ctx, fmt.Sprintf("Reservation %d registered and verified before the re-check fired", reservationID))
		return
	}

	if err := s.sender.Send(ctx, r.Phone, purpose, 0, r.GuestCountry); err != nil {
		s.log.Errorf("Failed to send %s reminder to reservation %d: %v", purpose, reservationID, err)
		s.alerts.Notify(ctx, fmt.Sprintf("Failed to send %s reminder to reservation %d: %v", purpose, reservationID, err))
		return
	}
	s.log.Infof("Sent %s reminder for reservation %d after delayed re-check", purpose, reservationID)
	s.alerts.Notify(ctx, fmt.Sprintf("Sent %s reminder for reservation %d after delayed re-check", purpose, reservationID))
}
