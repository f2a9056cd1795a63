package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
	"github.com/javiermolinar/skigrid/internal/tui/input"
)

// cellKind is what a grid cell shows, in rendering priority order.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellOffHours
	cellAbsence
	cellPending
	cellPrivate
	cellGroup
	cellSelection
	cellPreview
	cellCandidate
	cellCandidateBlocked
)

// View renders the TUI.
func (m Model) View() string {
	if m.loading && m.resources == nil {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.renderDayHeader())
	b.WriteString("\n")
	b.WriteString(m.renderGrid())
	b.WriteString(m.renderFooter())

	out := b.String()
	if m.mode == ModeModal {
		out = overlay(out, m.renderReport(), m.width, m.height)
	}
	return out
}

func (m Model) renderTitle() string {
	weekEnd := m.weekStart.AddDate(0, 0, 6)
	title := m.styles.TitleStyle.Render("skigrid")
	week := fmt.Sprintf("  %s..%s", dateutil.Key(m.weekStart), dateutil.Key(weekEnd))

	res := m.currentResource()
	if res == nil {
		return title + week + "  " + m.styles.HelpStyle.Render("no instructors")
	}
	who := fmt.Sprintf("  %s (%d/%d)", res.Name, m.resIdx+1, len(m.resources))
	return title + m.styles.ResourceStyle.Render(who) + week
}

func (m Model) renderDayHeader() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", timeColWidth))
	today := m.today()
	for d := 0; d < 7; d++ {
		date := m.weekStart.AddDate(0, 0, d)
		label := fitCell(date.Format("Mon 02"), m.colWidth)
		if dateutil.SameDay(date, today) {
			b.WriteString(m.styles.DayHeaderTodayStyle.Render(label))
		} else {
			b.WriteString(m.styles.DayHeaderStyle.Render(label))
		}
	}
	return b.String()
}

// visibleRows returns the first and last mark index that fit on screen,
// keeping the cursor in view.
func (m Model) visibleRows() (int, int) {
	n := len(m.marks)
	avail := m.height - 5
	if m.height <= 0 || avail >= n {
		return 0, n
	}
	avail = max(avail, 1)
	first := m.cursor.Slot - avail/2
	first = max(min(first, n-avail), 0)
	return first, first + avail
}

func (m Model) renderGrid() string {
	var b strings.Builder
	first, last := m.visibleRows()
	for slot := first; slot < last; slot++ {
		t := m.marks[slot]
		if m.grid.IsOperational(t) {
			b.WriteString(m.styles.TimeColumnStyle.Render(t))
		} else {
			b.WriteString(m.styles.TimeColumnOffStyle.Render(t))
		}
		for d := 0; d < 7; d++ {
			date := m.weekStart.AddDate(0, 0, d)
			kind, text, alt := m.cellAt(date, t)
			style := m.cellStyle(kind, alt)
			if d == m.cursor.Day && slot == m.cursor.Slot && m.mode != ModeMove {
				style = m.styles.CursorStyle
				if text == "" {
					text = "▸"
				}
			}
			b.WriteString(style.Render(fitCell(text, m.colWidth)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// cellAt decides what the current resource's cell at date and t shows.
// alt is set for every other booking of a day so adjacent lessons differ.
func (m Model) cellAt(date time.Time, t string) (kind cellKind, text string, alt bool) {
	resourceID := m.currentResourceID()
	minute := timegrid.ToMinutes(t)
	within := func(start, end string) bool {
		return minute >= timegrid.ToMinutes(start) && minute < timegrid.ToMinutes(end)
	}

	if m.mode == ModeMove {
		if target, ok := m.drag.Target(); ok && target.ResourceID == resourceID && dateutil.SameDay(target.Date, date) {
			start, end, _ := m.drag.Candidate()
			if within(start, end) {
				if t == start {
					text = start + "-" + end
				}
				if m.moveValid() {
					return cellCandidate, text, false
				}
				return cellCandidateBlocked, text, false
			}
		}
	}

	// While resizing, the preview replaces the selection it stretches.
	resizing := ""
	if p, ok := m.set.CurrentPreview(); ok {
		if sl, found := m.set.Slot(p.SlotID); found && sl.ResourceID == resourceID && dateutil.SameDay(sl.Date, date) {
			if within(sl.Start, p.End) {
				if t == sl.Start {
					text = "~" + formatMinutes(p.DurationMinutes)
				}
				return cellPreview, text, false
			}
			resizing = sl.ID
		}
	}
	if sl, ok := m.set.SlotAt(resourceID, date, t); ok && sl.ID != resizing {
		if t == sl.Start {
			text = "+" + formatMinutes(sl.DurationMinutes)
		}
		return cellSelection, text, false
	}

	for i, bk := range m.facts.BookingsFor(resourceID, date) {
		if !within(bk.Start, bk.End) {
			continue
		}
		if t == bk.Start {
			text = bookingText(bk)
		}
		if bk.Kind == schedule.BookingGroup {
			return cellGroup, text, i%2 == 1
		}
		return cellPrivate, text, i%2 == 1
	}

	if a := m.facts.AbsenceOn(resourceID, date); a != nil {
		if minute == m.grid.DayStart {
			text = string(a.Kind)
		}
		if a.IsPending() {
			if text != "" {
				text += "?"
			}
			return cellPending, text, false
		}
		return cellAbsence, text, false
	}

	if !m.grid.IsOperational(t) {
		return cellOffHours, "", false
	}
	return cellEmpty, "", false
}

func (m Model) cellStyle(kind cellKind, alt bool) lipgloss.Style {
	s := m.styles
	switch kind {
	case cellOffHours:
		return s.OffHoursStyle
	case cellAbsence:
		return s.AbsenceStyle
	case cellPending:
		return s.PendingStyle
	case cellPrivate:
		if alt {
			return s.PrivateAltStyle
		}
		return s.PrivateStyle
	case cellGroup:
		if alt {
			return s.GroupAltStyle
		}
		return s.GroupStyle
	case cellSelection:
		return s.SelectionStyle
	case cellPreview:
		return s.PreviewStyle
	case cellCandidate:
		return s.CandidateStyle
	case cellCandidateBlocked:
		return s.CandidateBadStyle
	default:
		return s.CellStyle
	}
}

func bookingText(b *schedule.Booking) string {
	label := b.Participant
	if label == "" {
		label = string(b.Kind)
	}
	if b.Paid {
		label = "$" + label
	}
	return label
}

func (m Model) renderFooter() string {
	var b strings.Builder

	b.WriteString(m.styles.ModeStyle.Render(m.mode.String()))
	if n := m.set.Len(); n > 0 {
		fmt.Fprintf(&b, "  %d selected, %sh", n, formatHours(m.set.TotalHours()))
	}
	if m.statusMsg != "" {
		style := m.styles.StatusStyle
		if m.err != nil {
			style = m.styles.ErrorStyle
		}
		b.WriteString("  ")
		b.WriteString(style.Render(m.statusMsg))
	}
	b.WriteString("\n")

	if m.mode == ModePrompt {
		label := "Book: "
		if m.promptKind == promptAbsence {
			label = "Absence: "
		}
		b.WriteString(m.styles.PromptLabelStyle.Render(label))
		b.WriteString(m.prompt.View())
		b.WriteString("\n")
		var hints []string
		for _, c := range input.PromptMatchingCommands(lastWord(m.prompt.Value()), m.promptCommands()) {
			hints = append(hints, c.Name+" "+c.Description)
		}
		if len(hints) > 0 {
			b.WriteString(m.styles.SuggestionStyle.Render(strings.Join(hints, "  ")))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(m.styles.HelpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	switch m.mode {
	case ModeResize:
		return "j/k stretch  enter keep  esc cancel"
	case ModeMove:
		return "h/j/k/l move  tab instructor  enter drop  esc cancel"
	case ModeModal:
		return "j/k select  y approve  n reject  c copy  esc close"
	default:
		return "space select  s same time  r resize  m move  b book  a absence  p approvals  tab instructor  H/L week  q quit"
	}
}

func (m Model) renderReport() string {
	s := m.styles
	var lines []string
	lines = append(lines, s.ModalTitleStyle.Render("Pending absences"))
	if len(m.report.Entries) == 0 {
		lines = append(lines, s.ModalMutedStyle.Render("No pending absences."))
	}
	names := m.resourceNames()
	for i, e := range m.report.Entries {
		a := e.Absence
		name := a.ResourceID
		if n, ok := names[a.ResourceID]; ok {
			name = n
		}
		head := fmt.Sprintf("%s %s %s..%s", name, a.Kind, dateutil.Key(a.StartDate), dateutil.Key(a.EndDate))
		if i == m.reportIdx {
			lines = append(lines, s.ModalHighlightStyle.Render("> "+head))
		} else {
			lines = append(lines, s.ModalTextStyle.Render("  "+head))
		}
		if len(e.Bookings) == 0 {
			lines = append(lines, s.ModalMutedStyle.Render("    no conflicts"))
			continue
		}
		for _, bk := range e.Bookings {
			lines = append(lines, s.ModalWarningStyle.Render("    ! "+bk.Label()))
		}
	}
	lines = append(lines, "", s.ModalMutedStyle.Render(m.helpLine()))
	return s.ModalStyle.Render(strings.Join(lines, "\n"))
}

// fitCell pads or cuts text to exactly width cells.
func fitCell(text string, width int) string {
	if w := lipgloss.Width(text); w > width {
		return ansi.Truncate(text, width, "")
	} else if w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}

func formatMinutes(minutes int) string {
	h, mm := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", mm)
	case mm == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02d", h, mm)
	}
}

func formatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}

func lastWord(s string) string {
	return s[strings.LastIndex(s, " ")+1:]
}
