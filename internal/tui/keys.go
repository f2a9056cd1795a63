package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/drag"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/selection"
	"github.com/javiermolinar/skigrid/internal/tui/commands"
	"github.com/javiermolinar/skigrid/internal/tui/input"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.logKey(msg)

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeResize:
		return m.handleResizeKeys(msg)
	case ModeMove:
		return m.handleMoveKeys(msg)
	case ModeModal:
		return m.handleModalKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	// Navigation
	case "h", "left":
		if m.cursor.Day > 0 {
			m.cursor.Day--
			return m, nil
		}
		m.cursor.Day = 6
		return m.shiftWeek(-1)
	case "l", "right":
		if m.cursor.Day < 6 {
			m.cursor.Day++
			return m, nil
		}
		m.cursor.Day = 0
		return m.shiftWeek(1)
	case "k", "up":
		if m.cursor.Slot > 0 {
			m.cursor.Slot--
		}
	case "j", "down":
		if m.cursor.Slot < len(m.marks)-1 {
			m.cursor.Slot++
		}
	case "H":
		return m.shiftWeek(-1)
	case "L":
		return m.shiftWeek(1)
	case "t":
		today := m.today()
		m.cursor.Day = dateutil.DaysBetween(dateutil.WeekStarting(today, m.config.WeekStart()), today)
		m.cursor.Slot = m.firstOperationalSlot()
		return m.gotoWeek(dateutil.WeekStarting(today, m.config.WeekStart()))
	case "tab":
		m.cycleResource(1)
	case "shift+tab":
		m.cycleResource(-1)

	// Selection
	case " ", "space", "enter":
		return m.click(false)
	case "s":
		return m.click(true)
	case "c", "esc":
		m.set.Clear()

	// Gestures
	case "r":
		return m.beginResize()
	case "m":
		return m.beginMove()

	// Submission and review
	case "b":
		return m.openPrompt(promptBooking)
	case "a":
		return m.openPrompt(promptAbsence)
	case "p":
		if m.reviewer == nil {
			return m, nil
		}
		return m, commands.LoadReport(m.reviewer)
	}
	return m, nil
}

func (m Model) shiftWeek(weeks int) (tea.Model, tea.Cmd) {
	return m.gotoWeek(m.weekStart.AddDate(0, 0, 7*weeks))
}

func (m Model) gotoWeek(start time.Time) (tea.Model, tea.Cmd) {
	if dateutil.SameDay(start, m.weekStart) {
		return m, nil
	}
	m.weekStart = start
	m.loading = true
	// Nothing selected in the old week may be submitted while the new one loads.
	m.facts = schedule.Facts{}
	m.set.Reset(m.facts)
	m.drag.SetFacts(m.facts)
	return m, commands.LoadWeek(m.store, m.weekStart)
}

func (m *Model) cycleResource(delta int) {
	n := len(m.resources)
	if n == 0 {
		return
	}
	m.resIdx = (m.resIdx + delta + n) % n
}

// click toggles a selection at the cursor.
func (m Model) click(shift bool) (tea.Model, tea.Cmd) {
	resourceID := m.currentResourceID()
	if resourceID == "" {
		return m, m.flash("Add an instructor first: skigrid resources add NAME")
	}
	var out selection.Outcome
	if shift {
		out = m.set.ShiftClick(resourceID, m.cursorDate(), m.cursorTime())
	} else {
		out = m.set.Click(resourceID, m.cursorDate(), m.cursorTime())
	}

	switch {
	case out.Action == selection.ActionNone && !out.Result.Valid():
		return m, m.fail(out.Result.Err())
	case out.Action == selection.ActionAdded && out.Result.Warning != conflict.ReasonNone:
		return m, m.flash(out.Result.WarningText())
	}
	return m, nil
}

// beginResize starts stretching the selection under the cursor.
func (m Model) beginResize() (tea.Model, tea.Cmd) {
	sl, ok := m.set.SlotAt(m.currentResourceID(), m.cursorDate(), m.cursorTime())
	if !ok {
		return m, m.flash("Move the cursor onto a selection to resize it")
	}
	// One grid row is the unit of movement.
	rowsPerMinute := 1 / float64(m.grid.SlotMinutes)
	if err := m.set.BeginResize(sl.ID, float64(sl.DurationMinutes)*rowsPerMinute, rowsPerMinute); err != nil {
		return m, m.fail(err)
	}
	m.resizeRows = 0
	m.mode = ModeResize
	return m, nil
}

func (m Model) handleResizeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down", ">":
		return m.resizeBy(1)
	case "k", "up", "<":
		return m.resizeBy(-1)
	case "enter":
		m.mode = ModeNormal
		committed, err := m.set.EndResize()
		if err != nil {
			return m, m.fail(err)
		}
		if !committed {
			return m, m.flash("Resize discarded")
		}
		return m, nil
	case "esc":
		m.set.CancelResize()
		m.mode = ModeNormal
	}
	return m, nil
}

func (m Model) resizeBy(rows int) (tea.Model, tea.Cmd) {
	m.resizeRows += rows
	_, res, err := m.set.ResizeMove(float64(m.resizeRows))
	if err != nil {
		m.mode = ModeNormal
		return m, m.fail(err)
	}
	if !res.Valid() {
		return m, m.fail(res.Err())
	}
	m.statusMsg = ""
	return m, nil
}

// beginMove picks up the booking under the cursor.
func (m Model) beginMove() (tea.Model, tea.Cmd) {
	b := m.bookingAt(m.cursorDate(), m.cursorTime())
	if b == nil {
		return m, m.flash("Move the cursor onto a lesson to move it")
	}
	m.drag.SetSelection(m.set.ResourceID(), m.set.Intervals())
	if err := m.drag.Start(b); err != nil {
		return m, m.fail(err)
	}
	if i := m.slotIndex(b.Start); i >= 0 {
		m.cursor.Slot = i
	}
	m.mode = ModeMove
	return m, m.hover()
}

func (m *Model) hover() tea.Cmd {
	if _, err := m.drag.Hover(m.currentResourceID(), m.cursorDate(), m.cursorTime()); err != nil {
		return m.fail(err)
	}
	return nil
}

func (m Model) handleMoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		if m.cursor.Day > 0 {
			m.cursor.Day--
		}
	case "l", "right":
		if m.cursor.Day < 6 {
			m.cursor.Day++
		}
	case "k", "up":
		if m.cursor.Slot > 0 {
			m.cursor.Slot--
		}
	case "j", "down":
		if m.cursor.Slot < len(m.marks)-1 {
			m.cursor.Slot++
		}
	case "tab":
		m.cycleResource(1)
	case "shift+tab":
		m.cycleResource(-1)
	case "enter":
		m.mode = ModeNormal
		move, err := m.drag.Drop()
		switch {
		case errors.Is(err, drag.ErrUnchanged):
			return m, m.flash("Lesson is already there")
		case err != nil:
			return m, m.fail(err)
		}
		return m, commands.MoveBooking(m.store, move)
	case "esc":
		m.drag.Cancel()
		m.mode = ModeNormal
		return m, nil
	default:
		return m, nil
	}
	return m, m.hover()
}

// moveValid reports whether dropping at the current target would succeed.
func (m Model) moveValid() bool {
	res, ok := m.drag.Check()
	return ok && res.Valid()
}

func (m Model) openPrompt(kind promptKind) (tea.Model, tea.Cmd) {
	if m.set.Len() == 0 {
		return m, m.flash("Select slots first (space)")
	}
	m.promptKind = kind
	m.prompt.Reset()
	switch kind {
	case promptBooking:
		m.prompt.Placeholder = "participant name, /group, /paid"
	case promptAbsence:
		m.prompt.Placeholder = "reason, /sick, /dayoff, /other"
	}
	m.mode = ModePrompt
	return m, m.prompt.Focus()
}

func (m Model) promptCommands() []input.PromptCommand {
	if m.promptKind == promptAbsence {
		return input.AbsenceCommands
	}
	return input.BookingCommands
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "tab":
		if v, ok := input.AutocompleteLast(m.prompt.Value(), m.promptCommands()); ok {
			m.prompt.SetValue(v)
			m.prompt.CursorEnd()
		}
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.prompt.Value())
		kind := m.promptKind
		m.closePrompt()
		if kind == promptAbsence {
			return m.submitAbsence(value)
		}
		return m.submitBooking(value)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.prompt.Reset()
	m.promptKind = promptNone
	m.mode = ModeNormal
}

func (m Model) submitBooking(value string) (tea.Model, tea.Cmd) {
	req, err := input.ParseBooking(value)
	if err != nil {
		return m, m.fail(err)
	}
	intents, err := m.set.BookingIntents(req.Kind, req.Participant, req.Paid)
	if err != nil {
		return m, m.fail(err)
	}
	// Cleared before the write lands; a failed write refetches the week.
	m.set.Clear()
	return m, commands.CreateBookings(m.store, intents)
}

func (m Model) submitAbsence(value string) (tea.Model, tea.Cmd) {
	req, err := input.ParseAbsence(value)
	if err != nil {
		return m, m.fail(err)
	}
	intents, err := m.set.AbsenceIntents(m.role, req.Kind, req.Reason)
	if err != nil {
		return m, m.fail(err)
	}
	m.set.Clear()
	return m, commands.CreateAbsences(m.store, intents)
}

// handleModalKeys handles the approvals modal.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.report.Entries)
	switch msg.String() {
	case "esc", "q", "p":
		m.mode = ModeNormal
	case "j", "down":
		if m.reportIdx < n-1 {
			m.reportIdx++
		}
	case "k", "up":
		if m.reportIdx > 0 {
			m.reportIdx--
		}
	case "y":
		return m.decide(schedule.DecisionApprove)
	case "n":
		return m.decide(schedule.DecisionReject)
	case "c":
		if n == 0 {
			return m, nil
		}
		return m, commands.CopyText(m.report.Text(m.resourceNames()))
	}
	return m, nil
}

func (m Model) decide(d schedule.Decision) (tea.Model, tea.Cmd) {
	if len(m.report.Entries) == 0 {
		return m, nil
	}
	if !m.role.Privileged {
		return m, m.fail(fmt.Errorf("only schedulers can %s absences", d))
	}
	a := m.report.Entries[m.reportIdx].Absence
	return m, commands.Decide(m.reviewer, a.ID, d)
}
