package app

import (
	"testing"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/alert"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/messaging"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciliationService(source *fakeSource, sender *fakeSender, delay time.Duration) *ReconciliationService {
	svc := NewReconciliationService(source, sender, alert.Nop{}, testLogger(), delay)
	svc.SetNow(func() time.Time { return fixedNow })
	return svc
}

func (s *ReconciliationService) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func TestHandleEvent_MissingArrivalDate(t *testing.T) {
	svc := newReconciliationService(&fakeSource{}, &fakeSender{}, time.Minute)

	_, err := svc.HandleEvent(501, "")
	assert.ErrorIs(t, err, ErrMissingArrivalDate)
	assert.Zero(t, svc.pendingTimers())
}

func TestHandleEvent_InvalidArrivalDate(t *testing.T) {
	svc := newReconciliationService(&fakeSource{}, &fakeSender{}, time.Minute)

	_, err := svc.HandleEvent(501, "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidArrivalDate)
	assert.Zero(t, svc.pendingTimers())
}

func TestHandleEvent_ArrivalAlreadyPassed(t *testing.T) {
	svc := newReconciliationService(&fakeSource{}, &fakeSender{}, time.Minute)

	// fixedNow is 2026-03-10 12:00 UTC; midnight of the same day has passed.
	_, err := svc.HandleEvent(501, "2026-03-10")
	assert.ErrorIs(t, err, ErrArrivalPassed)

	_, err = svc.HandleEvent(501, "2026-03-09")
	assert.ErrorIs(t, err, ErrArrivalPassed)
	assert.Zero(t, svc.pendingTimers())
}

func TestHandleEvent_MoreThanADaySchedulesNothing(t *testing.T) {
	svc := newReconciliationService(&fakeSource{}, &fakeSender{}, time.Minute)

	status, err := svc.HandleEvent(501, "2026-03-13")
	require.NoError(t, err)
	assert.Equal(t, StatusMoreThanADay, status)
	assert.Zero(t, svc.pendingTimers())
}

func TestHandleEvent_WithinADaySchedulesRecheck(t *testing.T) {
	svc := newReconciliationService(&fakeSource{}, &fakeSender{}, time.Hour)
	defer svc.Stop()

	status, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, status)
	assert.Equal(t, 1, svc.pendingTimers())
}

func TestHandleEvent_AcceptsRFC3339ArrivalDate(t *testing.T) {
	svc := newReconciliationService(&fakeSource{}, &fakeSender{}, time.Hour)
	defer svc.Stop()

	status, err := svc.HandleEvent(501, "2026-03-11T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, status)
}

func waitForMessages(t *testing.T, sender *fakeSender, want int) []sentMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := sender.messages(); len(msgs) >= want {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	return sender.messages()
}

func TestRecheck_SendsCombinedReminderWhenBothMissing(t *testing.T) {
	res := reservationWithFields(501, nil, nil)
	source := &fakeSource{byID: map[int64]*reservation.Reservation{501: &res}}
	sender := &fakeSender{}
	svc := newReconciliationService(source, sender, 10*time.Millisecond)
	defer svc.Stop()

	_, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)

	msgs := waitForMessages(t, sender, 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, messaging.PurposeRegistrationDocs, msgs[0].purpose)
	assert.Equal(t, "ES", msgs[0].locale)
}

func TestRecheck_SendsRegistrationOnlyReminder(t *testing.T) {
	res := reservationWithFields(501, nil, strPtr(reservation.VerificationCompliantValue))
	source := &fakeSource{byID: map[int64]*reservation.Reservation{501: &res}}
	sender := &fakeSender{}
	svc := newReconciliationService(source, sender, 10*time.Millisecond)
	defer svc.Stop()

	_, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)

	msgs := waitForMessages(t, sender, 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, messaging.PurposeRegistration, msgs[0].purpose)
}

func TestRecheck_SendsVerificationOnlyReminder(t *testing.T) {
	res := reservationWithFields(501, strPtr(reservation.RegistrationCompliantValue), nil)
	source := &fakeSource{byID: map[int64]*reservation.Reservation{501: &res}}
	sender := &fakeSender{}
	svc := newReconciliationService(source, sender, 10*time.Millisecond)
	defer svc.Stop()

	_, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)

	msgs := waitForMessages(t, sender, 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, messaging.PurposeVerification, msgs[0].purpose)
}

func TestRecheck_NothingSentWhenGuestCompletedBoth(t *testing.T) {
	res := reservationWithFields(501,
		strPtr(reservation.RegistrationCompliantValue),
		strPtr(reservation.VerificationCompliantValue))
	source := &fakeSource{byID: map[int64]*reservation.Reservation{501: &res}}
	sender := &fakeSender{}
	svc := newReconciliationService(source, sender, 10*time.Millisecond)
	defer svc.Stop()

	_, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for svc.pendingTimers() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Give the fired task a moment to finish.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sender.messages())
}

func TestHandleEvent_SupersedingEventReplacesPendingTimer(t *testing.T) {
	res := reservationWithFields(501, nil, nil)
	source := &fakeSource{byID: map[int64]*reservation.Reservation{501: &res}}
	sender := &fakeSender{}
	svc := newReconciliationService(source, sender, 50*time.Millisecond)
	defer svc.Stop()

	_, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)
	_, err = svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.pendingTimers())

	msgs := waitForMessages(t, sender, 1)
	time.Sleep(100 * time.Millisecond) // would catch a second, un-cancelled fire
	assert.Len(t, sender.messages(), len(msgs))
	assert.Len(t, msgs, 1)
}

func TestStop_CancelsPendingRechecks(t *testing.T) {
	res := reservationWithFields(501, nil, nil)
	source := &fakeSource{byID: map[int64]*reservation.Reservation{501: &res}}
	sender := &fakeSender{}
	svc := newReconciliationService(source, sender, 50*time.Millisecond)

	_, err := svc.HandleEvent(501, "2026-03-11")
	require.NoError(t, err)
	svc.Stop()
	assert.Zero(t, svc.pendingTimers())

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, sender.messages())
}
