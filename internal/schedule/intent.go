package schedule

import "time"

// CreateBooking asks the data layer to persist a new booking.
type CreateBooking struct {
	ResourceID  string
	Date        time.Time
	Start       string
	End         string
	Kind        BookingKind
	Paid        bool
	Participant string
}

// Booking materializes the intent with a fresh id.
func (c CreateBooking) Booking() *Booking {
	return &Booking{
		ID:          NewID(),
		ResourceID:  c.ResourceID,
		Date:        c.Date,
		Start:       c.Start,
		End:         c.End,
		Kind:        c.Kind,
		Paid:        c.Paid && c.Kind == BookingPrivate,
		Participant: c.Participant,
	}
}

// CreateAbsence asks the data layer to persist a new absence.
type CreateAbsence struct {
	ResourceID string
	StartDate  time.Time
	EndDate    time.Time
	Kind       AbsenceKind
	Reason     string
	Status     AbsenceStatus
}

// Absence materializes the intent with a fresh id.
func (c CreateAbsence) Absence() *Absence {
	return &Absence{
		ID:         NewID(),
		ResourceID: c.ResourceID,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		Kind:       c.Kind,
		Status:     c.Status,
		Reason:     c.Reason,
	}
}

// MoveBooking relocates an existing booking.
type MoveBooking struct {
	BookingID  string
	ResourceID string
	Date       time.Time
	Start      string
	End        string
}

// Decision is the outcome of an absence review.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status returns the absence status a decision leads to.
func (d Decision) Status() AbsenceStatus {
	if d == DecisionApprove {
		return StatusConfirmed
	}
	return StatusRejected
}

// AbsenceDecision approves or rejects a pending absence.
type AbsenceDecision struct {
	AbsenceID string
	Decision  Decision
	Reason    string
}
