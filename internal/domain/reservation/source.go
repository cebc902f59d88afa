package reservation

import (
	"context"
	"fmt"
	"time"
)

// ErrUpstream marks any transport failure or non-2xx response from the
// reservation API. Batch jobs abort on it at the list-fetch boundary; the next
// scheduled run is the de facto retry.
var ErrUpstream = fmt.Errorf("reservation API unavailable")

// ErrNotFound is returned by GetByID when the reservation does not exist.
var ErrNotFound = fmt.Errorf("reservation not found")

// ErrNoConversation is returned when a reservation has no conversation to
// relay (data-shape gap in the upstream payload, not a transport failure).
var ErrNoConversation = fmt.Errorf("no conversation found for reservation")

// Source lists reservations from the property-management API. Implementations
// filter out terminal statuses before returning; everything else passes through
// unmodified.
type Source interface {
	// ListByArrivalWindow returns non-terminal reservations arriving in [from, to].
	ListByArrivalWindow(ctx context.Context, from, to time.Time) ([]Reservation, error)
	// ListByDepartureWindow returns non-terminal reservations departing in [from, to].
	ListByDepartureWindow(ctx context.Context, from, to time.Time) ([]Reservation, error)
	// GetByID fetches a single reservation.
	GetByID(ctx context.Context, id int64) (*Reservation, error)
}

// ConversationSource exposes the conversation endpoints used by the checkout
// relay.
type ConversationSource interface {
	// LatestConversation returns the conversation id attached to a reservation,
	// or ErrNoConversation when there is none.
	LatestConversation(ctx context.Context, reservationID int64) (int64, error)
	// RecentMessages returns the bodies of up to limit recent messages in a
	// conversation, oldest first as delivered by the API.
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]string, error)
}
