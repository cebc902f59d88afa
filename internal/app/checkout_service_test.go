package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/alert"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutService(source *fakeSource, conversations *fakeConversations, relay *fakeRelay) *CheckoutService {
	svc := NewCheckoutService(source, conversations, relay, alert.Nop{}, testLogger())
	svc.SetNow(func() time.Time { return fixedNow })
	return svc
}

func TestCheckout_RelaysTranscript(t *testing.T) {
	res := reservationWithFields(88, nil, nil)
	source := &fakeSource{departures: []reservation.Reservation{res}}
	conversations := &fakeConversations{
		conversationID: 777,
		messagesByConv: map[int64][]string{777: {"Hi! ", "Checkout is at 11."}},
	}
	relay := &fakeRelay{}
	svc := newCheckoutService(source, conversations, relay)

	result, err := svc.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "relayed", result[88])
	require.Len(t, relay.relayed, 1)
	assert.Equal(t, int64(777), relay.relayed[0].conversationID)
	assert.Equal(t, res.Phone, relay.relayed[0].phone)
	assert.Equal(t, "Hi! Checkout is at 11.", relay.relayed[0].transcript)

	// Departure-day window is today..today.
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, source.lastFrom)
	assert.Equal(t, today, source.lastTo)
}

func TestCheckout_MissingConversationIsSkipped(t *testing.T) {
	source := &fakeSource{departures: []reservation.Reservation{
		reservationWithFields(88, nil, nil),
		reservationWithFields(89, nil, nil),
	}}
	conversations := &fakeConversations{convErr: reservation.ErrNoConversation}
	relay := &fakeRelay{}
	svc := newCheckoutService(source, conversations, relay)

	result, err := svc.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "no conversation", result[88])
	assert.Equal(t, "no conversation", result[89])
	assert.Empty(t, relay.relayed)
}

func TestCheckout_RelayFailureIsolatedPerReservation(t *testing.T) {
	source := &fakeSource{departures: []reservation.Reservation{
		reservationWithFields(88, nil, nil),
	}}
	conversations := &fakeConversations{conversationID: 777, messagesByConv: map[int64][]string{}}
	relay := &fakeRelay{err: fmt.Errorf("webhook down")}
	svc := newCheckoutService(source, conversations, relay)

	result, err := svc.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "relay failed", result[88])
}

func TestCheckout_FetchFailureAbortsBatch(t *testing.T) {
	source := &fakeSource{listErr: fmt.Errorf("boom: %w", reservation.ErrUpstream)}
	svc := newCheckoutService(source, &fakeConversations{}, &fakeRelay{})

	result, err := svc.Checkout(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
}
