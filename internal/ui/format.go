package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/javiermolinar/skigrid/internal/approval"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

// FormatDuration renders minutes as 1h, 1h30m or 45m.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func kindTag(k schedule.BookingKind) string {
	if k == schedule.BookingGroup {
		return paint(toneGroup, "[G]")
	}
	return paint(tonePrivate, "[P]")
}

func statusTag(s schedule.AbsenceStatus) string {
	switch s {
	case schedule.StatusConfirmed:
		return paint(toneAbsence, "confirmed")
	case schedule.StatusPending:
		return paint(tonePending, "pending")
	default:
		return paint(toneMuted, string(s))
	}
}

// resourceName returns the display name for id, or id itself.
func resourceName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

// printBookingRow prints one booking line under a date header.
func printBookingRow(w io.Writer, b *schedule.Booking, names map[string]string) {
	// Base: "  [P] HH:MM-HH:MM  1h30m  name  " = ~40 chars
	width := termWidth() - 40
	paid := ""
	if b.Paid {
		paid = paint(toneOK, " $")
	}
	participant := b.Participant
	if participant == "" {
		participant = paint(toneMuted, "-")
	}
	fmt.Fprintf(w, "  %s %s-%s  %-6s %-12s %s%s  %s\n",
		kindTag(b.Kind),
		b.Start,
		b.End,
		FormatDuration(b.Duration()),
		truncate(resourceName(names, b.ResourceID), 12),
		truncate(participant, max(width, 10)),
		paid,
		paint(toneMuted, b.ID),
	)
}

// printBookings prints bookings grouped by date.
func printBookings(w io.Writer, bookings []*schedule.Booking, names map[string]string) {
	var currentDate string
	for _, b := range bookings {
		date := dateutil.Key(b.Date)
		if date != currentDate {
			if currentDate != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, paint(toneHeader, fmt.Sprintf("=== %s %s ===", date, b.Date.Weekday().String()[:3])))
			currentDate = date
		}
		printBookingRow(w, b, names)
	}
}

// printAbsenceRow prints one absence line.
func printAbsenceRow(w io.Writer, a *schedule.Absence, names map[string]string) {
	reason := ""
	if a.Reason != "" {
		reason = " (" + a.Reason + ")"
	}
	fmt.Fprintf(w, "  %s..%s  %-12s %-10s %s%s  %s\n",
		dateutil.Key(a.StartDate),
		dateutil.Key(a.EndDate),
		truncate(resourceName(names, a.ResourceID), 12),
		a.Kind,
		statusTag(a.Status),
		reason,
		paint(toneMuted, a.ID),
	)
}

// joinTags renders resource tags as "a, b".
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return paint(toneMuted, "-")
	}
	return strings.Join(tags, ", ")
}

// printReport prints the approval conflict report.
func printReport(w io.Writer, r approval.Report, names map[string]string) {
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "No pending absences.")
		return
	}
	fmt.Fprintln(w, paint(toneHeader, fmt.Sprintf("%d pending absence(s), %d conflicting lesson(s)", len(r.Entries), r.Count())))
	for _, e := range r.Entries {
		fmt.Fprintln(w)
		printAbsenceRow(w, e.Absence, names)
		if len(e.Bookings) == 0 {
			fmt.Fprintln(w, paint(toneOK, "    no conflicts"))
			continue
		}
		for _, b := range e.Bookings {
			fmt.Fprintf(w, "    %s %s\n", paint(tonePending, "!"), b.Label())
		}
	}
}
