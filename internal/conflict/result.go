package conflict

import (
	"errors"
	"fmt"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

// Reason is a placement failure code.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonAbsenceBlocked   Reason = "absence_blocked"
	ReasonBookingOverlap   Reason = "booking_overlap"
	ReasonOutOfHours       Reason = "out_of_hours"
	ReasonInvalidDuration  Reason = "invalid_duration"
	ReasonNotDraggable     Reason = "not_draggable"
	ReasonRoleNotPermitted Reason = "role_not_permitted"
)

// Reason errors, one per code.
var (
	ErrAbsenceBlocked   = errors.New("resource is absent on that day")
	ErrBookingOverlap   = errors.New("slot overlaps an existing booking")
	ErrOutOfHours       = errors.New("slot is outside operational hours")
	ErrInvalidDuration  = errors.New("duration is not an allowed lesson length")
	ErrNotDraggable     = errors.New("only private bookings can be moved")
	ErrRoleNotPermitted = errors.New("absences can only be requested for your own resource")
)

// Err returns the sentinel error for r, or nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case ReasonAbsenceBlocked:
		return ErrAbsenceBlocked
	case ReasonBookingOverlap:
		return ErrBookingOverlap
	case ReasonOutOfHours:
		return ErrOutOfHours
	case ReasonInvalidDuration:
		return ErrInvalidDuration
	case ReasonNotDraggable:
		return ErrNotDraggable
	case ReasonRoleNotPermitted:
		return ErrRoleNotPermitted
	default:
		return nil
	}
}

// Result is the outcome of a validation.
type Result struct {
	Reason Reason
	// Booking is the colliding booking for BookingOverlap, or the rejected
	// booking for NotDraggable.
	Booking *schedule.Booking
	// Absence is the blocking absence, or the pending absence behind Warning.
	Absence *schedule.Absence
	// Occupied is the colliding synthetic interval for BookingOverlap.
	Occupied *Interval
	// Warning is set when placement succeeds over a pending absence.
	Warning Reason
}

// Valid reports whether the placement may proceed.
func (r Result) Valid() bool {
	return r.Reason == ReasonNone
}

// Err returns nil for a valid result, or the reason error wrapped with detail.
func (r Result) Err() error {
	base := r.Reason.Err()
	if base == nil {
		return nil
	}
	switch {
	case r.Booking != nil && r.Reason == ReasonBookingOverlap:
		return fmt.Errorf("%w: %s", base, r.Booking.Label())
	case r.Occupied != nil:
		return fmt.Errorf("%w: selection %s-%s", base, r.Occupied.Start, r.Occupied.End)
	case r.Absence != nil:
		return fmt.Errorf("%w: %s %s..%s (%s)", base, r.Absence.Kind,
			dateutil.Key(r.Absence.StartDate), dateutil.Key(r.Absence.EndDate), r.Absence.Status)
	default:
		return base
	}
}

// WarningText describes a soft conflict, or returns "".
func (r Result) WarningText() string {
	if r.Warning == ReasonNone || r.Absence == nil {
		return ""
	}
	return fmt.Sprintf("pending %s %s..%s", r.Absence.Kind,
		dateutil.Key(r.Absence.StartDate), dateutil.Key(r.Absence.EndDate))
}
