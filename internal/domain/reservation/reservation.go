package reservation

import (
	"fmt"
	"time"
)

// Custom field labels as configured on the Hostaway account.
const (
	FieldCheckinOnlineStatus        = "Check-in Online Status"
	FieldIdentityVerificationStatus = "Identity Verification Status"
)

// Compliant sentinel values for the custom fields above.
const (
	RegistrationCompliantValue = "GUESTS_REGISTERED"
	VerificationCompliantValue = "VERIFIED"
)

// DateLayout is the date format Hostaway uses for arrivalDate/departureDate.
const DateLayout = "2006-01-02"

// terminalStatuses are reservation states that never receive guest communication.
var terminalStatuses = map[string]struct{}{
	"cancelled":          {},
	"declined":           {},
	"expired":            {},
	"inquiryDenied":      {},
	"inquiryNotPossible": {},
}

// IsTerminalStatus reports whether a reservation status excludes it from all checks.
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// CustomField is the named definition part of a Hostaway custom field value.
type CustomField struct {
	Name string `json:"name"`
}

// CustomFieldValue is one {customField, value} pair on a reservation.
type CustomFieldValue struct {
	CustomField CustomField `json:"customField"`
	Value       string      `json:"value"`
}

// Reservation is the subset of a Hostaway reservation this service consumes.
// It is read-only from our perspective; Hostaway owns the entity.
type Reservation struct {
	ID                int64              `json:"id"`
	Status            string             `json:"status"`
	Phone             string             `json:"phone"`
	GuestCountry      string             `json:"guestCountry"`
	ArrivalDate       string             `json:"arrivalDate"`
	DepartureDate     string             `json:"departureDate"`
	CheckInTime       *int               `json:"checkInTime"`
	CustomFieldValues []CustomFieldValue `json:"customFieldValues"`
}

// Compliance is the typed projection of the fixed custom-field set.
// A nil field means the custom field was absent on the reservation,
// which is treated as "not compliant", not as an error.
type Compliance struct {
	Registration *string
	Verification *string
}

// Project extracts the compliance-relevant custom fields once, so callers
// never search the loosely-typed field list themselves.
func (r *Reservation) Project() Compliance {
	var c Compliance
	for i := range r.CustomFieldValues {
		f := &r.CustomFieldValues[i]
		switch f.CustomField.Name {
		case FieldCheckinOnlineStatus:
			v := f.Value
			c.Registration = &v
		case FieldIdentityVerificationStatus:
			v := f.Value
			c.Verification = &v
		}
	}
	return c
}

// RegistrationCompliant reports whether the guest completed online check-in.
func (c Compliance) RegistrationCompliant() bool {
	return c.Registration != nil && *c.Registration == RegistrationCompliantValue
}

// VerificationCompliant reports whether the guest passed identity verification.
func (c Compliance) VerificationCompliant() bool {
	return c.Verification != nil && *c.Verification == VerificationCompliantValue
}

// ErrIncompleteArrivalInfo is returned by ArrivalDeadline when the reservation
// is missing its arrival date or check-in hour. Such reservations are skipped
// by the arrivals check, not treated as failures.
var ErrIncompleteArrivalInfo = fmt.Errorf("reservation is missing arrival date or check-in time")

// ArrivalDeadline computes the instant after which the post-check-in message is
// due: the arrival date at the check-in hour, plus two hours.
func (r *Reservation) ArrivalDeadline(loc *time.Location) (time.Time, error) {
	if r.ArrivalDate == "" || r.CheckInTime == nil {
		return time.Time{}, ErrIncompleteArrivalInfo
	}
	day, err := time.ParseInLocation(DateLayout, r.ArrivalDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid arrival date %q: %w", r.ArrivalDate, err)
	}
	checkin := time.Date(day.Year(), day.Month(), day.Day(), *r.CheckInTime, 0, 0, 0, loc)
	return checkin.Add(2 * time.Hour), nil
}
