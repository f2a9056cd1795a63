package schedule

import (
	"sort"
	"time"

	"github.com/javiermolinar/skigrid/internal/dateutil"
)

// Query is an inclusive date window with an optional resource filter.
type Query struct {
	Start      time.Time
	End        time.Time
	ResourceID string // empty means every resource
}

// Facts is an occupancy snapshot for a query window.
type Facts struct {
	Bookings []*Booking
	Absences []*Absence
}

// BookingsFor returns the bookings of resourceID on date ordered by start time.
func (f Facts) BookingsFor(resourceID string, date time.Time) []*Booking {
	var out []*Booking
	for _, b := range f.Bookings {
		if b.ResourceID == resourceID && dateutil.SameDay(b.Date, date) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// AbsencesFor returns every absence recorded for resourceID.
func (f Facts) AbsencesFor(resourceID string) []*Absence {
	var out []*Absence
	for _, a := range f.Absences {
		if a.ResourceID == resourceID {
			out = append(out, a)
		}
	}
	return out
}

// AbsenceOn returns the first blocking absence covering resourceID on date, or nil.
// A confirmed absence is preferred over a pending one.
func (f Facts) AbsenceOn(resourceID string, date time.Time) *Absence {
	var pending *Absence
	for _, a := range f.Absences {
		if !a.Blocks() || !a.Covers(resourceID, date) {
			continue
		}
		if a.Status == StatusConfirmed {
			return a
		}
		if pending == nil {
			pending = a
		}
	}
	return pending
}

// Booking returns the booking with id, or nil.
func (f Facts) Booking(id string) *Booking {
	for _, b := range f.Bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Absence returns the absence with id, or nil.
func (f Facts) Absence(id string) *Absence {
	for _, a := range f.Absences {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Pending returns the absences awaiting a decision, oldest start first.
func (f Facts) Pending() []*Absence {
	var out []*Absence
	for _, a := range f.Absences {
		if a.IsPending() {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}
