package reminder

import (
	"context"
	"fmt"
)

// Category is the dedup-store partition key for counting and capping reminders.
type Category string

const (
	CategoryRegistration Category = "registration-check"
	CategoryVerification Category = "verification-check"
	CategoryPostCheckin  Category = "post-checkin"
)

// MaxAttempts caps the escalation ladder: once this many reminder rows exist
// for a (reservation, category) pair, no further sends or inserts happen.
const MaxAttempts = 3

// ErrCapReached is returned by RecordAttempt when the reminder count for the
// pair already equals MaxAttempts. No row is inserted in that case.
var ErrCapReached = fmt.Errorf("reminder cap reached")

// ArrivalOutcome is the result of the binary post-check-in variant.
type ArrivalOutcome string

const (
	// ArrivalRecorded means no row existed and one was just inserted; the
	// caller should send the single post-check-in message.
	ArrivalRecorded ArrivalOutcome = "sent"
	// ArrivalAlreadySent means a row already existed; nothing to do.
	ArrivalAlreadySent ArrivalOutcome = "already sent"
)

// Store is the dedup/escalation counter backed by the external row-store.
// Rows are only ever created, never updated or deleted, so the count for a
// pair is monotonically non-decreasing.
type Store interface {
	// RecordAttempt counts existing reminder rows for (reservationID, category)
	// and, when the count is below MaxAttempts, inserts one more and returns
	// the 1-based attempt number of the reminder about to be sent. When the
	// cap is already reached it returns ErrCapReached without inserting.
	RecordAttempt(ctx context.Context, reservationID int64, category Category) (int, error)

	// RecordArrival is the binary variant used for the single post-check-in
	// message: it either records the send or reports it already happened.
	RecordArrival(ctx context.Context, reservationID int64) (ArrivalOutcome, error)
}
