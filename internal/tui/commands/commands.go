// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/skigrid/internal/approval"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

// Store is the storage the TUI reads from and writes to.
type Store interface {
	schedule.Provider
	schedule.Mutator
}

// WeekLoadedMsg is sent when the roster and the week's occupancy are loaded.
type WeekLoadedMsg struct {
	Start     time.Time
	Resources []*schedule.Resource
	Facts     schedule.Facts
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
	// Refetch is set when a write failed and the shown week may be stale.
	Refetch bool
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// BookingsCreatedMsg is sent after a selection was booked.
type BookingsCreatedMsg struct {
	Bookings []*schedule.Booking
}

// AbsencesCreatedMsg is sent after a selection was turned into absences.
type AbsencesCreatedMsg struct {
	Absences []*schedule.Absence
}

// BookingMovedMsg is sent after a drag was persisted.
type BookingMovedMsg struct {
	Move schedule.MoveBooking
}

// AbsenceDecidedMsg is sent after an absence was approved or rejected.
type AbsenceDecidedMsg struct {
	AbsenceID string
	Decision  schedule.Decision
}

// ReportLoadedMsg carries the approval conflict report.
type ReportLoadedMsg struct {
	Report approval.Report
}

// LoadWeek loads the roster and the seven days starting at weekStart.
func LoadWeek(store Store, weekStart time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		resources, err := store.ListResources(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		facts, err := store.Occupancy(ctx, schedule.Query{
			Start: weekStart,
			End:   weekStart.AddDate(0, 0, 6),
		})
		if err != nil {
			return ErrMsg{Err: err}
		}
		return WeekLoadedMsg{Start: weekStart, Resources: resources, Facts: facts}
	}
}

// CreateBookings persists booking intents.
func CreateBookings(store Store, intents []schedule.CreateBooking) tea.Cmd {
	return func() tea.Msg {
		created, err := store.CreateBookings(context.Background(), intents)
		if err != nil {
			return ErrMsg{Err: err, Refetch: true}
		}
		return BookingsCreatedMsg{Bookings: created}
	}
}

// CreateAbsences persists absence intents.
func CreateAbsences(store Store, intents []schedule.CreateAbsence) tea.Cmd {
	return func() tea.Msg {
		created, err := store.CreateAbsences(context.Background(), intents)
		if err != nil {
			return ErrMsg{Err: err, Refetch: true}
		}
		return AbsencesCreatedMsg{Absences: created}
	}
}

// MoveBooking persists a drop.
func MoveBooking(store Store, move schedule.MoveBooking) tea.Cmd {
	return func() tea.Msg {
		if err := store.MoveBooking(context.Background(), move); err != nil {
			return ErrMsg{Err: err, Refetch: true}
		}
		return BookingMovedMsg{Move: move}
	}
}

// LoadReport builds the conflict report for every pending absence.
func LoadReport(reviewer *approval.Reviewer) tea.Cmd {
	return func() tea.Msg {
		report, err := reviewer.Report(context.Background(), time.Time{}, time.Time{})
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ReportLoadedMsg{Report: report}
	}
}

// Decide approves or rejects a pending absence.
func Decide(reviewer *approval.Reviewer, absenceID string, d schedule.Decision) tea.Cmd {
	return func() tea.Msg {
		var err error
		if d == schedule.DecisionApprove {
			err = reviewer.Approve(context.Background(), absenceID)
		} else {
			err = reviewer.Reject(context.Background(), absenceID, "")
		}
		if err != nil {
			return ErrMsg{Err: err}
		}
		return AbsenceDecidedMsg{AbsenceID: absenceID, Decision: d}
	}
}

// CopyText copies text to the clipboard.
func CopyText(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsgCmd{Msg: "Copied to clipboard"}
	}
}
