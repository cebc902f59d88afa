package messaging

import "context"

// Purpose selects which message template family to send.
type Purpose string

const (
	// PurposeCheckIn is the escalating pre-arrival reminder ladder
	// (attempts 1..3), shared by the registration and verification checks.
	PurposeCheckIn Purpose = "check-in"
	// PurposePostCheckIn is the single message sent after the arrival deadline.
	PurposePostCheckIn Purpose = "post-check-in"

	// Combined reminders sent by the webhook-triggered reconciliation. These
	// are single-shot purposes without an attempt ladder.
	PurposeRegistration     Purpose = "registration"
	PurposeVerification     Purpose = "verification"
	PurposeRegistrationDocs Purpose = "registration-and-verification"
)

// Ladder reports whether the purpose escalates by attempt number.
func (p Purpose) Ladder() bool {
	return p == PurposeCheckIn
}

// Sender delivers a templated message to a guest. Template resolution happens
// inside the implementation; a missing template is a configuration gap that is
// logged and skipped, never a hard error. Transport failures are returned so
// callers can log them, but callers never abort a batch over one.
type Sender interface {
	Send(ctx context.Context, phone string, purpose Purpose, attempt int, locale string) error
}
