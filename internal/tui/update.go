package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/tui/commands"
)

const (
	statusDuration = 3 * time.Second
	errorDuration  = 5 * time.Second
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		before := m.mode
		updated, cmd := m.handleKeyMsg(msg)
		if model, ok := updated.(Model); ok {
			model.logMode(before, model.mode)
		}
		return updated, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.colWidth = m.calculateColWidth()
		return m, nil

	case commands.WeekLoadedMsg:
		return m.applyWeek(msg)

	case commands.ErrMsg:
		m.err = msg.Err
		m.loading = false
		m.logError(msg.Err)
		m.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
		m.statusTime = time.Now().Add(errorDuration)
		if msg.Refetch {
			return m, commands.LoadWeek(m.store, m.weekStart)
		}
		return m, nil

	case commands.StatusMsgCmd:
		return m, m.flash(msg.Msg)

	case commands.ClearStatusMsg:
		if time.Now().After(m.statusTime) {
			m.statusMsg = ""
			m.err = nil
		}
		return m, nil

	case commands.BookingsCreatedMsg:
		return m, tea.Batch(
			m.flash(fmt.Sprintf("Booked %d lesson(s)", len(msg.Bookings))),
			commands.LoadWeek(m.store, m.weekStart),
		)

	case commands.AbsencesCreatedMsg:
		verb := "Requested"
		if len(msg.Absences) > 0 && !msg.Absences[0].IsPending() {
			verb = "Recorded"
		}
		return m, tea.Batch(
			m.flash(fmt.Sprintf("%s %d absence(s)", verb, len(msg.Absences))),
			commands.LoadWeek(m.store, m.weekStart),
		)

	case commands.BookingMovedMsg:
		return m, tea.Batch(
			m.flash(fmt.Sprintf("Moved lesson to %s %s-%s", dateutil.Key(msg.Move.Date), msg.Move.Start, msg.Move.End)),
			commands.LoadWeek(m.store, m.weekStart),
		)

	case commands.AbsenceDecidedMsg:
		word := "Approved"
		if msg.Decision == schedule.DecisionReject {
			word = "Rejected"
		}
		return m, tea.Batch(
			m.flash(word+" absence"),
			commands.LoadReport(m.reviewer),
			commands.LoadWeek(m.store, m.weekStart),
		)

	case commands.ReportLoadedMsg:
		m.report = msg.Report
		if m.reportIdx >= len(m.report.Entries) {
			m.reportIdx = max(len(m.report.Entries)-1, 0)
		}
		m.mode = ModeModal
		return m, nil
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyWeek installs freshly loaded data. A refetch of the visible week keeps
// the selections that still fit; a different week starts over.
func (m Model) applyWeek(msg commands.WeekLoadedMsg) (Model, tea.Cmd) {
	if !dateutil.SameDay(msg.Start, m.weekStart) {
		return m, nil
	}
	sameWeek := !m.loadedWeek.IsZero() && dateutil.SameDay(msg.Start, m.loadedWeek)
	m.loadedWeek = msg.Start
	m.loading = false

	current := m.currentResourceID()
	m.resources = msg.Resources
	m.resIdx = 0
	for i, r := range m.resources {
		if r.ID == current {
			m.resIdx = i
			break
		}
	}

	m.facts = msg.Facts
	var dropped int
	if sameWeek {
		dropped = len(m.set.Refresh(m.facts))
	} else {
		m.set.Reset(m.facts)
	}
	m.drag.SetFacts(m.facts)
	if m.mode == ModeResize || m.mode == ModeMove {
		m.mode = ModeNormal
	}
	if dropped > 0 {
		return m, m.flash(fmt.Sprintf("%d selection(s) no longer available", dropped))
	}
	return m, nil
}

// flash shows a status message and schedules its removal.
func (m *Model) flash(msg string) tea.Cmd {
	m.err = nil
	m.statusMsg = msg
	m.statusTime = time.Now().Add(statusDuration)
	return m.tick(statusDuration, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}

// fail shows an error in the status line.
func (m *Model) fail(err error) tea.Cmd {
	m.err = err
	m.logError(err)
	m.statusMsg = err.Error()
	m.statusTime = time.Now().Add(errorDuration)
	return m.tick(errorDuration, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}

func (m Model) calculateColWidth() int {
	if m.width <= 0 {
		return defaultColWidth
	}
	w := (m.width - timeColWidth) / 7
	if w < minColWidth {
		return minColWidth
	}
	return w
}
