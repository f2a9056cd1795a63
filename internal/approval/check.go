// Package approval reports, for pending absences, the bookings they would
// collide with. The report is advisory and never blocks a decision.
package approval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

// Entry pairs a pending absence with its colliding bookings.
type Entry struct {
	Absence  *schedule.Absence
	Bookings []*schedule.Booking
}

// Report is the result of Check, one entry per pending absence in input order.
type Report struct {
	Entries []Entry
}

// Check finds, for each pending absence, the bookings of the same resource
// dated inside its inclusive range. Non-pending absences are skipped.
func Check(absences []*schedule.Absence, bookings []*schedule.Booking) Report {
	var r Report
	for _, a := range absences {
		if !a.IsPending() {
			continue
		}
		e := Entry{Absence: a}
		for _, b := range bookings {
			if a.Covers(b.ResourceID, b.Date) {
				e.Bookings = append(e.Bookings, b)
			}
		}
		sort.SliceStable(e.Bookings, func(i, j int) bool {
			bi, bj := e.Bookings[i], e.Bookings[j]
			if ki, kj := dateutil.Key(bi.Date), dateutil.Key(bj.Date); ki != kj {
				return ki < kj
			}
			return bi.Start < bj.Start
		})
		r.Entries = append(r.Entries, e)
	}
	return r
}

// Count returns the total number of colliding bookings.
func (r Report) Count() int {
	n := 0
	for _, e := range r.Entries {
		n += len(e.Bookings)
	}
	return n
}

// For returns the colliding bookings for absenceID.
func (r Report) For(absenceID string) []*schedule.Booking {
	for _, e := range r.Entries {
		if e.Absence.ID == absenceID {
			return e.Bookings
		}
	}
	return nil
}

// Entry returns the entry for absenceID.
func (r Report) Entry(absenceID string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Absence.ID == absenceID {
			return e, true
		}
	}
	return Entry{}, false
}

// Text renders a plain-text summary suitable for the clipboard.
// names maps resource ids to display names; missing ids print as-is.
func (r Report) Text(names map[string]string) string {
	if len(r.Entries) == 0 {
		return "No pending absences."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d pending absence(s), %d conflicting booking(s)\n", len(r.Entries), r.Count())
	for _, e := range r.Entries {
		a := e.Absence
		name := a.ResourceID
		if n, ok := names[a.ResourceID]; ok {
			name = n
		}
		fmt.Fprintf(&sb, "\n%s: %s %s..%s", name, a.Kind, dateutil.Key(a.StartDate), dateutil.Key(a.EndDate))
		if a.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", a.Reason)
		}
		sb.WriteString("\n")
		if len(e.Bookings) == 0 {
			sb.WriteString("  no conflicts\n")
			continue
		}
		for _, b := range e.Bookings {
			fmt.Fprintf(&sb, "  - %s\n", b.Label())
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
