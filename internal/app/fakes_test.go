package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/messaging"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reminder"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func testLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

type fakeSource struct {
	mu         sync.Mutex
	arrivals   []reservation.Reservation
	departures []reservation.Reservation
	byID       map[int64]*reservation.Reservation
	listErr    error
	getErr     error
	lastFrom   time.Time
	lastTo     time.Time
	getCalls   int
}

func (f *fakeSource) ListByArrivalWindow(_ context.Context, from, to time.Time) ([]reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrom, f.lastTo = from, to
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.arrivals, nil
}

func (f *fakeSource) ListByDepartureWindow(_ context.Context, from, to time.Time) ([]reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrom, f.lastTo = from, to
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.departures, nil
}

func (f *fakeSource) GetByID(_ context.Context, id int64) (*reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.byID[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return r, nil
}

type fakeStore struct {
	mu         sync.Mutex
	counts     map[string]int
	attemptErr error
	arrivalErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: make(map[string]int)}
}

func storeKey(id int64, category reminder.Category) string {
	return fmt.Sprintf("%s/%d", category, id)
}

func (f *fakeStore) RecordAttempt(_ context.Context, id int64, category reminder.Category) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attemptErr != nil {
		return 0, f.attemptErr
	}
	count := f.counts[storeKey(id, category)]
	if count >= reminder.MaxAttempts {
		return 0, reminder.ErrCapReached
	}
	f.counts[storeKey(id, category)] = count + 1
	return count + 1, nil
}

func (f *fakeStore) RecordArrival(_ context.Context, id int64) (reminder.ArrivalOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.arrivalErr != nil {
		return "", f.arrivalErr
	}
	if f.counts[storeKey(id, reminder.CategoryPostCheckin)] > 0 {
		return reminder.ArrivalAlreadySent, nil
	}
	f.counts[storeKey(id, reminder.CategoryPostCheckin)] = 1
	return reminder.ArrivalRecorded, nil
}

func (f *fakeStore) count(id int64, category reminder.Category) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[storeKey(id, category)]
}

type sentMessage struct {
	phone   string
	purpose messaging.Purpose
	attempt int
	locale  string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, phone string, purpose messaging.Purpose, attempt int, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{phone: phone, purpose: purpose, attempt: attempt, locale: locale})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeConversations struct {
	conversationID int64
	convErr        error
	messagesByConv map[int64][]string
	msgErr         error
}

func (f *fakeConversations) LatestConversation(_ context.Context, _ int64) (int64, error) {
	if f.convErr != nil {
		return 0, f.convErr
	}
	return f.conversationID, nil
}

func (f *fakeConversations) RecentMessages(_ context.Context, conversationID int64, _ int) ([]string, error) {
	if f.msgErr != nil {
		return nil, f.msgErr
	}
	return f.messagesByConv[conversationID], nil
}

type relayedTranscript struct {
	conversationID int64
	phone          string
	transcript     string
}

type fakeRelay struct {
	relayed []relayedTranscript
	err     error
}

func (f *fakeRelay) Send(_ context.Context, conversationID int64, phone, transcript string) error {
	if f.err != nil {
		return f.err
	}
	f.relayed = append(f.relayed, relayedTranscript{conversationID: conversationID, phone: phone, transcript: transcript})
	return nil
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func reservationWithFields(id int64, registration, verification *string) reservation.Reservation {
	r := reservation.Reservation{
		ID:           id,
		Status:       "confirmed",
		Phone:        "+380 99 157 0383",
		GuestCountry: "ES",
	}
	if registration != nil {
		r.CustomFieldValues = append(r.CustomFieldValues, reservation.CustomFieldValue{
			CustomField: reservation.CustomField{Name: reservation.FieldCheckinOnlineStatus},
			Value:       *registration,
		})
	}
	if verification != nil {
		r.CustomFieldValues = append(r.CustomFieldValues, reservation.CustomFieldValue{
			CustomField: reservation.CustomField{Name: reservation.FieldIdentityVerificationStatus},
			Value:       *verification,
		})
	}
	return r
}
