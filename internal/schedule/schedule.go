// Package schedule defines the core domain types for skigrid: resources,
// bookings, absences and the intents that change them.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// Validation errors.
var (
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyResource      = errors.New("resource id cannot be empty")
	ErrInvalidBookingKind = errors.New("booking kind must be 'private' or 'group'")
	ErrInvalidAbsenceKind = errors.New("absence kind must be 'vacation', 'sick_leave', 'day_off' or 'other'")
	ErrInvalidStatus      = errors.New("absence status must be 'pending', 'confirmed' or 'rejected'")
	ErrEndBeforeStart     = errors.New("end time must be after start time")
)

// Domain errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrWriteConflict = errors.New("write conflicts with existing occupancy")
	ErrNotPending    = errors.New("absence is not pending")
)

// BookingKind distinguishes one-to-one lessons from group courses.
type BookingKind string

const (
	BookingPrivate BookingKind = "private"
	BookingGroup   BookingKind = "group"
)

// ParseBookingKind parses a kind name.
func ParseBookingKind(s string) (BookingKind, error) {
	switch BookingKind(strings.ToLower(s)) {
	case BookingPrivate:
		return BookingPrivate, nil
	case BookingGroup:
		return BookingGroup, nil
	default:
		return "", ErrInvalidBookingKind
	}
}

// AbsenceKind is the reason category of an absence.
type AbsenceKind string

const (
	AbsenceVacation  AbsenceKind = "vacation"
	AbsenceSickLeave AbsenceKind = "sick_leave"
	AbsenceDayOff    AbsenceKind = "day_off"
	AbsenceOther     AbsenceKind = "other"
)

// ParseAbsenceKind parses a kind name.
func ParseAbsenceKind(s string) (AbsenceKind, error) {
	switch k := AbsenceKind(strings.ToLower(s)); k {
	case AbsenceVacation, AbsenceSickLeave, AbsenceDayOff, AbsenceOther:
		return k, nil
	default:
		return "", ErrInvalidAbsenceKind
	}
}

// AbsenceStatus is the approval state of an absence.
type AbsenceStatus string

const (
	StatusPending   AbsenceStatus = "pending"
	StatusConfirmed AbsenceStatus = "confirmed"
	StatusRejected  AbsenceStatus = "rejected"
)

// Valid returns true if the status is a known value.
func (s AbsenceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	default:
		return false
	}
}

// NewID returns a fresh identifier for a resource, booking, absence or selection.
func NewID() string {
	return uuid.NewString()
}

// Resource is a bookable instructor.
type Resource struct {
	ID    string
	Name  string
	Tags  []string
	Color string
}

// NewResource creates a resource with a generated id.
func NewResource(name string, tags []string, color string) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Resource{
		ID:    NewID(),
		Name:  name,
		Tags:  tags,
		Color: color,
	}, nil
}

// HasTag reports whether the resource carries tag.
func (r *Resource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Booking is an authoritative occupancy record.
type Booking struct {
	ID          string
	ResourceID  string
	Date        time.Time
	Start       string // "HH:MM"
	End         string // "HH:MM"
	Kind        BookingKind
	Paid        bool
	Participant string
}

// NewBooking creates a booking with validation.
// date can be empty (defaults to today) or in YYYY-MM-DD format.
func NewBooking(resourceID, date, start, end string, kind BookingKind) (*Booking, error) {
	if resourceID == "" {
		return nil, ErrEmptyResource
	}
	if kind != BookingPrivate && kind != BookingGroup {
		return nil, ErrInvalidBookingKind
	}
	d, err := dateutil.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if err := validateTimes(start, end); err != nil {
		return nil, err
	}
	return &Booking{
		ID:         NewID(),
		ResourceID: resourceID,
		Date:       d,
		Start:      start,
		End:        end,
		Kind:       kind,
	}, nil
}

func validateTimes(start, end string) error {
	s, err := timegrid.ParseClock(start)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	e, err := timegrid.ParseClock(end)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if e <= s {
		return ErrEndBeforeStart
	}
	return nil
}

// Duration returns the booking duration in minutes.
func (b *Booking) Duration() int {
	return timegrid.DurationBetween(b.Start, b.End)
}

// IsPrivate returns true for one-to-one bookings, the only draggable kind.
func (b *Booking) IsPrivate() bool {
	return b.Kind == BookingPrivate
}

// OverlapsWith reports whether the booking occupies any part of [start, end) on date.
func (b *Booking) OverlapsWith(date time.Time, start, end string) bool {
	if !dateutil.SameDay(b.Date, date) {
		return false
	}
	return timegrid.Overlaps(b.Start, b.End, start, end)
}

// Label returns a short human-readable description.
func (b *Booking) Label() string {
	label := string(b.Kind)
	if b.Participant != "" {
		label += ": " + b.Participant
	}
	return fmt.Sprintf("%s %s-%s %s", dateutil.Key(b.Date), b.Start, b.End, label)
}

// Absence marks a resource unavailable over an inclusive day range.
type Absence struct {
	ID         string
	ResourceID string
	StartDate  time.Time
	EndDate    time.Time
	Kind       AbsenceKind
	Status     AbsenceStatus
	Reason     string
}

// NewAbsence creates an absence with validation.
func NewAbsence(resourceID, startDate, endDate string, kind AbsenceKind, status AbsenceStatus) (*Absence, error) {
	if resourceID == "" {
		return nil, ErrEmptyResource
	}
	if _, err := ParseAbsenceKind(string(kind)); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	r, err := dateutil.NewDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return &Absence{
		ID:         NewID(),
		ResourceID: resourceID,
		StartDate:  r.Start,
		EndDate:    r.End,
		Kind:       kind,
		Status:     status,
	}, nil
}

// Blocks reports whether the absence takes the resource out of service.
// Rejected absences are history only.
func (a *Absence) Blocks() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// IsPending returns true while the absence awaits a decision.
func (a *Absence) IsPending() bool {
	return a.Status == StatusPending
}

// Covers reports whether the absence applies to resourceID on date.
func (a *Absence) Covers(resourceID string, date time.Time) bool {
	return a.ResourceID == resourceID && timegrid.CoversDate(a.StartDate, a.EndDate, date)
}

// Days returns the number of calendar days in the absence.
func (a *Absence) Days() int {
	return dateutil.DaysBetween(a.StartDate, a.EndDate) + 1
}

// Role is the caller-supplied signal about the acting user.
type Role struct {
	Privileged     bool
	SelfResourceID string
}

// DefaultAbsenceStatus returns the status a new absence starts in.
func (r Role) DefaultAbsenceStatus() AbsenceStatus {
	if r.Privileged {
		return StatusConfirmed
	}
	return StatusPending
}

// CanRequestAbsenceFor reports whether the user may create an absence for resourceID.
func (r Role) CanRequestAbsenceFor(resourceID string) bool {
	return r.Privileged || (r.SelfResourceID != "" && r.SelfResourceID == resourceID)
}
