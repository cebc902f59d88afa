package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/alert"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/messaging"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reminder"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/sirupsen/logrus"
)

// BatchResult maps reservation id to a human-readable outcome for one batch run.
type BatchResult map[int64]string

// Per-reservation outcomes reported by the batch checks.
const (
	OutcomeCompliant      = "compliant"
	OutcomeMaxReached     = "max reached"
	OutcomeSendFailed     = "send failed"
	OutcomeStoreError     = "store error"
	OutcomeSkipped        = "skipped"
	OutcomeBeforeDeadline = "before deadline"
	OutcomeAlreadySent    = "already sent"
	OutcomeSent           = "sent"
	OutcomeInsertFailed   = "insert failed"
)

// ComplianceService runs the batch compliance checks: registration and
// verification reminders with attempt escalation, and the single post-arrival
// message. Each run is idempotent per reservation because the dedup store's
// counters, not run identity, decide whether anything is sent.
type ComplianceService struct {
	source reservation.Source
	store  reminder.Store
	sender messaging.Sender
	alerts alert.Notifier
	log    *logrus.Logger
	now    func() time.Time
}

// NewComplianceService wires the batch checks.
func NewComplianceService(
	source reservation.Source,
	store reminder.Store,
	sender messaging.Sender,
	alerts alert.Notifier,
	log *logrus.Logger,
) *ComplianceService {
	return &ComplianceService{
		source: source,
		store:  store,
		sender: sender,
		alerts: alerts,
		log:    log,
		now:    time.Now,
	}
}

// SetNow overrides the clock (useful for testing).
func (s *ComplianceService) SetNow(now func() time.Time) {
	s.now = now
}

// CheckRegistrations reminds guests arriving within two days who have not
// completed online check-in.
func (s *ComplianceService) CheckRegistrations(ctx context.Context) (BatchResult, error) {
	return s.checkFlag(ctx, flagCheck{
		name:       "registration",
		windowDays: 2,
		category:   reminder.CategoryRegistration,
		compliant:  func(c reservation.Compliance) bool { return c.RegistrationCompliant() },
	})
}

// CheckVerifications reminds guests arriving within one day who have not
// passed identity verification.
func (s *ComplianceService) CheckVerifications(ctx context.Context) (BatchResult, error) {
	return s.checkFlag(ctx, flagCheck{
		name:       "verification",
		windowDays: 1,
		category:   reminder.CategoryVerification,
		compliant:  func(c reservation.Compliance) bool { return c.VerificationCompliant() },
	})
}

type flagCheck struct {
	name       string
	windowDays int
	category   reminder.Category
	compliant  func(reservation.Compliance) bool
}

func (s *ComplianceService) checkFlag(ctx context.Context, check flagCheck) (BatchResult, error) {
	today := s.today()
	reservations, err := s.source.ListByArrivalWindow(ctx, today, today.AddDate(0, 0, check.windowDays))
	if err != nil {
		s.log.Errorf("Failed to fetch reservations for %s check: %v", check.name, err)
		s.alerts.Notify(ctx, fmt.Sprintf("Failed to fetch reservations for %s check: %v", check.name, err))
		return nil, fmt.Errorf("failed to fetch reservations for %s check: %w", check.name, err)
	}
	s.log.Infof("Running %s check over %d reservations", check.name, len(reservations))

	result := make(BatchResult, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		if check.compliant(r.Project()) {
			result[r.ID] = OutcomeCompliant
			continue
		}

		attempt, err := s.store.RecordAttempt(ctx, r.ID, check.category)
		if err != nil {
			if errors.Is(err, reminder.ErrCapReached) {
				s.log.Infof("%d - all %d %s reminders have already been sent", r.ID, reminder.MaxAttempts, check.name)
				s.alerts.Notify(ctx, fmt.Sprintf("%d - all %d %s reminders have already been sent", r.ID, reminder.MaxAttempts, check.name))
				result[r.ID] = OutcomeMaxReached
				continue
			}
			s.log.Errorf("%d - failed to record %s reminder attempt: %v", r.ID, check.name, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - failed to record %s reminder attempt: %v", r.ID, check.name, err))
			result[r.ID] = OutcomeStoreError
			continue
		}

		if err := s.sender.Send(ctx, r.Phone, messaging.PurposeCheckIn, attempt, r.GuestCountry); err != nil {
			s.log.Errorf("%d - failed to send %s reminder %d: %v", r.ID, check.name, attempt, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - failed to send %s reminder %d: %v", r.ID, check.name, attempt, err))
			result[r.ID] = OutcomeSendFailed
			continue
		}
		s.log.Infof("%d - %s reminder %d sent to %s", r.ID, check.name, attempt, r.Phone)
		result[r.ID] = fmt.Sprintf("reminder %d sent", attempt)
	}
	return result, nil
}

// CheckArrivals sends the single post-check-in message to guests who arrived
// today once two hours have passed since their check-in time.
func (s *ComplianceService) CheckArrivals(ctx context.Context) (BatchResult, error) {
	today := s.today()
	reservations, err := s.source.ListByArrivalWindow(ctx, today, today)
	if err != nil {
		s.log.Errorf("Failed to fetch reservations for arrivals check: %v", err)
		s.alerts.Notify(ctx, fmt.Sprintf("Failed to fetch reservations for arrivals check: %v", err))
		return nil, fmt.Errorf("failed to fetch reservations for arrivals check: %w", err)
	}
	s.log.Infof("Running arrivals check over %d reservations", len(reservations))

	now := s.now()
	result := make(BatchResult, len(reservations))
	for i := range reservations {
		r := &reservations[i]

		deadline, err := r.ArrivalDeadline(now.Location())
		if err != nil {
			s.log.Warnf("%d - missing check-in time or arrival date, skipping", r.ID)
			result[r.ID] = OutcomeSkipped
			continue
		}
		if now.Before(deadline) {
			s.log.Infof("%d - less than 2 hours after the official arrival time", r.ID)
			result[r.ID] = OutcomeBeforeDeadline
			continue
		}

		outcome, err := s.store.RecordArrival(ctx, r.ID)
		if err != nil {
			s.log.Errorf("%d - failed to record post-checkin row, message not sent: %v", r.ID, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - failed to record post-checkin row, message not sent: %v", r.ID, err))
			result[r.ID] = OutcomeInsertFailed
			continue
		}
		if outcome == reminder.ArrivalAlreadySent {
			s.log.Infof("%d - arrival message has already been sent", r.ID)
			result[r.ID] = OutcomeAlreadySent
			continue
		}

		if err := s.sender.Send(ctx, r.Phone, messaging.PurposePostCheckIn, 0, r.GuestCountry); err != nil {
			s.log.Errorf("%d - failed to send post-checkin message: %v", r.ID, err)
			s.alerts.Notify(ctx, fmt.Sprintf("%d - failed to send post-checkin message: %v", r.ID, err))
			result[r.ID] = OutcomeSendFailed
			continue
		}
		s.log.Infof("%d - post-checkin message was just sent", r.ID)
		s.alerts.Notify(ctx, fmt.Sprintf("%d - post-checkin message was just sent", r.ID))
		result[r.ID] = OutcomeSent
	}
	return result, nil
}

// today returns the current date truncated to midnight in the local clock's
// location, matching how the upstream filters date windows.
func (s *ComplianceService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
