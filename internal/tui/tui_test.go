package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/config"
	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/db"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/tui/commands"
)

// Wednesday; the Monday week starts on 2025-01-06.
var testNow = time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	store *db.SQLite
	cfg   *config.Config
	ana   *schedule.Resource
	ben   *schedule.Resource
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &harness{t: t, store: store, cfg: config.Default()}
}

func (h *harness) addResources() {
	h.t.Helper()
	for _, name := range []string{"Ana", "Ben"} {
		r, _ := schedule.NewResource(name, nil, "")
		if err := h.store.CreateResource(context.Background(), r); err != nil {
			h.t.Fatalf("CreateResource: %v", err)
		}
		if name == "Ana" {
			h.ana = r
		} else {
			h.ben = r
		}
	}
}

func (h *harness) book(resourceID, date, start, end string, kind schedule.BookingKind, participant string) *schedule.Booking {
	h.t.Helper()
	created, err := h.store.CreateBookings(context.Background(), []schedule.CreateBooking{{
		ResourceID:  resourceID,
		Date:        dateutil.MustParse(date),
		Start:       start,
		End:         end,
		Kind:        kind,
		Participant: participant,
	}})
	if err != nil {
		h.t.Fatalf("CreateBookings: %v", err)
	}
	return created[0]
}

func (h *harness) facts() schedule.Facts {
	h.t.Helper()
	facts, err := h.store.Occupancy(context.Background(), schedule.Query{
		Start: dateutil.MustParse("2025-01-01"),
		End:   dateutil.MustParse("2025-01-31"),
	})
	if err != nil {
		h.t.Fatalf("Occupancy: %v", err)
	}
	return facts
}

// model builds and loads a model acting as role.
func (h *harness) model(role schedule.Role) Model {
	h.t.Helper()
	engine, err := h.cfg.Engine(zap.NewNop())
	if err != nil {
		h.t.Fatalf("Engine: %v", err)
	}
	m := New(Deps{Store: h.store, Config: h.cfg, Engine: engine, Role: role},
		WithNow(func() time.Time { return testNow }))
	m.tick = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }
	return exec(h.t, m, m.Init())
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys in order and returns the last command.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		updated, c := m.Update(key(k))
		m = updated.(Model)
		cmd = c
	}
	return m, cmd
}

// exec runs cmd and feeds its messages back until nothing is left.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = exec(t, m, c)
		}
		return m
	default:
		updated, next := m.Update(msg)
		return exec(t, updated.(Model), next)
	}
}

func at(m Model, day int, t string) Model {
	m.cursor = Position{Day: day, Slot: m.slotIndex(t)}
	return m
}

func date(s string) time.Time {
	return dateutil.MustParse(s)
}

func TestNew_WeekStart(t *testing.T) {
	tests := []struct {
		name      string
		weekStart string
		wantStart string
		wantDay   int
	}{
		{"monday", "monday", "2025-01-06", 2},
		{"sunday", "sunday", "2025-01-05", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.cfg.Schedule.WeekStart = tt.weekStart
			m := h.model(schedule.Role{})
			if got := dateutil.Key(m.weekStart); got != tt.wantStart {
				t.Errorf("weekStart = %s, want %s", got, tt.wantStart)
			}
			if m.cursor.Day != tt.wantDay {
				t.Errorf("cursor day = %d, want %d", m.cursor.Day, tt.wantDay)
			}
			if m.cursorTime() != "09:00" {
				t.Errorf("cursor time = %s, want first operational slot", m.cursorTime())
			}
		})
	}
}

func TestInit_LoadsRoster(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	if m.loading {
		t.Fatal("still loading after Init")
	}
	if m.currentResource().Name != "Ana" {
		t.Errorf("resource = %s, want Ana", m.currentResource().Name)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := updated.(Model).View()
	for _, want := range []string{"Ana (1/2)", "Mon 06", "Sun 12", "08:00", "17:30", "NORMAL"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNoResources(t *testing.T) {
	h := newHarness(t)
	m := h.model(schedule.Role{})

	if !strings.Contains(m.View(), "no instructors") {
		t.Error("expected empty roster hint")
	}
	m, _ = press(t, m, "space")
	if m.set.Len() != 0 || !strings.Contains(m.statusMsg, "Add an instructor") {
		t.Errorf("len = %d status = %q", m.set.Len(), m.statusMsg)
	}
}

func TestSelectAndBook(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m = at(m, 2, "10:00")
	m, _ = press(t, m, "space")
	if m.set.Len() != 1 {
		t.Fatalf("selected = %d, want 1", m.set.Len())
	}
	if kind, text, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellSelection || text != "+1h" {
		t.Errorf("cell = %d %q, want selection +1h", kind, text)
	}
	if kind, _, _ := m.cellAt(date("2025-01-08"), "11:00"); kind != cellEmpty {
		t.Errorf("cell after selection = %d, want empty", kind)
	}

	m, _ = press(t, m, "b")
	if m.mode != ModePrompt {
		t.Fatalf("mode = %s, want prompt", m.mode)
	}
	m, _ = press(t, m, "Lena /paid")
	m, cmd := press(t, m, "enter")
	if m.mode != ModeNormal {
		t.Errorf("mode = %s after submit", m.mode)
	}
	m = exec(t, m, cmd)

	bookings := h.facts().Bookings
	if len(bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(bookings))
	}
	b := bookings[0]
	if b.ResourceID != h.ana.ID || b.Start != "10:00" || b.End != "11:00" || b.Participant != "Lena" || !b.Paid {
		t.Errorf("unexpected booking %+v", b)
	}
	if m.set.Len() != 0 {
		t.Error("selection not cleared after booking")
	}
	if m.statusMsg != "Booked 1 lesson(s)" {
		t.Errorf("status = %q", m.statusMsg)
	}
	if kind, text, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellPrivate || text != "$Lena" {
		t.Errorf("cell = %d %q, want private $Lena", kind, text)
	}
}

func TestSelectAndBook_StaleWrite(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m = at(m, 2, "10:00")
	m, _ = press(t, m, "space")
	// Someone else books the slot after this week was loaded.
	h.book(h.ana.ID, "2025-01-08", "10:00", "11:00", schedule.BookingPrivate, "Max")

	m, _ = press(t, m, "b", "Lena")
	m, cmd := press(t, m, "enter")
	if m.set.Len() != 0 {
		t.Fatal("selection kept while the write is in flight")
	}
	m = exec(t, m, cmd)

	if !errors.Is(m.err, schedule.ErrWriteConflict) {
		t.Errorf("err = %v, want write conflict", m.err)
	}
	if n := len(h.facts().Bookings); n != 1 {
		t.Errorf("bookings = %d, want only the other one", n)
	}
	if kind, text, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellPrivate || text != "Max" {
		t.Errorf("cell = %d %q, want refetched private Max", kind, text)
	}
}

func TestPrompt_RequiresSelection(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	for _, k := range []string{"b", "a"} {
		m, _ = press(t, m, k)
		if m.mode != ModeNormal {
			t.Errorf("%s opened the prompt without a selection", k)
		}
	}

	m, _ = press(t, m, "space", "b", "/plan", "enter")
	if m.err == nil || !strings.Contains(m.statusMsg, "unknown command") {
		t.Errorf("status = %q, want unknown command", m.statusMsg)
	}

	m, _ = press(t, m, "b", "x", "esc")
	if m.mode != ModeNormal || m.prompt.Value() != "" {
		t.Errorf("esc did not close the prompt: mode %s value %q", m.mode, m.prompt.Value())
	}
	if m.set.Len() != 1 {
		t.Error("cancelling the prompt must keep the selection")
	}
}

func TestClick_Rejected(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	h.book(h.ana.ID, "2025-01-08", "10:00", "11:00", schedule.BookingPrivate, "Lena")
	m := h.model(schedule.Role{})

	tests := []struct {
		name    string
		time    string
		wantErr error
	}{
		{"overlap", "10:30", conflict.ErrBookingOverlap},
		{"runs past close", "16:30", conflict.ErrOutOfHours},
		{"lead hour", "08:00", conflict.ErrOutOfHours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := press(t, at(m, 2, tt.time), "space")
			if !errors.Is(got.err, tt.wantErr) {
				t.Errorf("err = %v, want %v", got.err, tt.wantErr)
			}
			if got.set.Len() != 0 {
				t.Error("rejected click changed the selection")
			}
		})
	}
}

func TestClick_TogglesAndShiftCopies(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 0, "10:00"), "space")
	m, _ = press(t, at(m, 3, "10:00"), "s")
	if m.set.Len() != 2 {
		t.Fatalf("selected = %d, want 2", m.set.Len())
	}
	if sl, ok := m.set.SlotAt(h.ana.ID, date("2025-01-09"), "10:30"); !ok || sl.End != "11:00" {
		t.Errorf("copied slot = %+v, %t", sl, ok)
	}

	// Shift at another start time is ignored.
	m, _ = press(t, at(m, 4, "11:00"), "s")
	if m.set.Len() != 2 {
		t.Errorf("selected = %d, want 2", m.set.Len())
	}

	// Clicking inside a selection removes it.
	m, _ = press(t, at(m, 3, "10:30"), "space")
	if m.set.Len() != 1 {
		t.Errorf("selected = %d, want 1", m.set.Len())
	}
	if !strings.Contains(m.View(), "1 selected, 1h") {
		t.Error("footer does not show the selection total")
	}

	m, _ = press(t, m, "c")
	if m.set.Len() != 0 {
		t.Error("c did not clear the selection")
	}
}

func TestClick_OtherResourceStartsOver(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 1, "10:00"), "space")
	m, _ = press(t, m, "tab")
	if m.currentResource().ID != h.ben.ID {
		t.Fatalf("tab did not switch to Ben")
	}
	m, _ = press(t, m, "space")
	if m.set.Len() != 1 || m.set.ResourceID() != h.ben.ID {
		t.Errorf("len = %d resource = %s, want 1 on Ben", m.set.Len(), m.set.ResourceID())
	}

	m, _ = press(t, m, "tab")
	if m.currentResource().ID != h.ana.ID {
		t.Error("tab did not wrap around")
	}
	m, _ = press(t, m, "shift+tab")
	if m.currentResource().ID != h.ben.ID {
		t.Error("shift+tab did not go back")
	}
}

func TestResize(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	h.book(h.ana.ID, "2025-01-08", "12:00", "13:00", schedule.BookingGroup, "")
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 2, "10:00"), "space")
	id := m.set.Slots()[0].ID

	m, _ = press(t, m, "r")
	if m.mode != ModeResize {
		t.Fatalf("mode = %s, want resize", m.mode)
	}
	m, _ = press(t, m, "j")
	if p, _ := m.set.CurrentPreview(); p.DurationMinutes != 90 {
		t.Errorf("preview = %d, want 90", p.DurationMinutes)
	}
	if kind, text, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellPreview || text != "~1h30" {
		t.Errorf("cell = %d %q, want preview ~1h30", kind, text)
	}

	// 150 minutes would run into the group course; the 120 preview stays.
	m, _ = press(t, m, "j", "j")
	if !errors.Is(m.err, conflict.ErrBookingOverlap) {
		t.Errorf("err = %v, want overlap", m.err)
	}
	if p, _ := m.set.CurrentPreview(); p.DurationMinutes != 120 {
		t.Errorf("preview = %d, want 120", p.DurationMinutes)
	}

	m, _ = press(t, m, "enter")
	sl, _ := m.set.Slot(id)
	if m.mode != ModeNormal || sl.End != "12:00" || sl.DurationMinutes != 120 {
		t.Errorf("mode %s slot %+v, want 10:00-12:00", m.mode, sl)
	}

	// Cancelling leaves the selection as it was.
	m, _ = press(t, m, "r", "k", "k", "esc")
	sl, _ = m.set.Slot(id)
	if sl.End != "12:00" {
		t.Errorf("cancelled resize changed the end to %s", sl.End)
	}

	m, _ = press(t, at(m, 5, "10:00"), "r")
	if m.mode != ModeNormal {
		t.Error("r outside a selection must not start a resize")
	}
}

func TestMove(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	lesson := h.book(h.ana.ID, "2025-01-08", "10:00", "11:00", schedule.BookingPrivate, "Lena")
	h.book(h.ana.ID, "2025-01-08", "14:00", "15:00", schedule.BookingGroup, "")
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 2, "10:30"), "m")
	if m.mode != ModeMove {
		t.Fatalf("mode = %s, want move", m.mode)
	}
	if m.cursorTime() != "10:00" {
		t.Errorf("cursor = %s, want snapped to the lesson start", m.cursorTime())
	}

	m, _ = press(t, m, "l")
	if kind, text, _ := m.cellAt(date("2025-01-09"), "10:00"); kind != cellCandidate || text != "10:00-11:00" {
		t.Errorf("cell = %d %q, want candidate", kind, text)
	}
	m, cmd := press(t, m, "enter")
	m = exec(t, m, cmd)

	moved := h.facts().Booking(lesson.ID)
	if dateutil.Key(moved.Date) != "2025-01-09" || moved.Start != "10:00" {
		t.Errorf("lesson not moved: %+v", moved)
	}
	if !strings.Contains(m.statusMsg, "Moved lesson to 2025-01-09 10:00-11:00") {
		t.Errorf("status = %q", m.statusMsg)
	}

	// Dropping onto the group course is refused and shown as blocked.
	m, _ = press(t, at(m, 3, "10:00"), "m", "h", "j", "j", "j", "j", "j", "j", "j", "j")
	if kind, _, _ := m.cellAt(date("2025-01-08"), "14:00"); kind != cellCandidateBlocked {
		t.Errorf("cell = %d, want blocked candidate", kind)
	}
	m, cmd = press(t, m, "enter")
	if cmd != nil || !errors.Is(m.err, conflict.ErrBookingOverlap) {
		t.Errorf("err = %v, want overlap", m.err)
	}

	m, _ = press(t, at(m, 3, "10:00"), "m", "enter")
	if m.statusMsg != "Lesson is already there" {
		t.Errorf("status = %q", m.statusMsg)
	}

	m, _ = press(t, at(m, 2, "14:30"), "m")
	if m.mode != ModeNormal || !errors.Is(m.err, conflict.ErrNotDraggable) {
		t.Errorf("mode %s err %v, want group lessons to stay put", m.mode, m.err)
	}

	m, _ = press(t, at(m, 3, "10:00"), "m", "l", "esc")
	if m.mode != ModeNormal || m.drag.Active() {
		t.Error("esc did not cancel the move")
	}
}

func TestMove_OntoSelectionBlocked(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	lesson := h.book(h.ana.ID, "2025-01-08", "10:00", "11:00", schedule.BookingPrivate, "Lena")
	m := h.model(schedule.Role{})

	// Ben's 10:00 is selected, then Ana's lesson is dragged over it.
	m, _ = press(t, at(m, 2, "10:00"), "tab", "space", "shift+tab", "m", "tab")
	if m.currentResourceID() != h.ben.ID || m.mode != ModeMove {
		t.Fatalf("resource %s mode %s, want Ben in move mode", m.currentResourceID(), m.mode)
	}
	if kind, _, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellCandidateBlocked {
		t.Errorf("cell = %d, want blocked candidate over the selection", kind)
	}

	m, cmd := press(t, m, "enter")
	m = exec(t, m, cmd)
	if !errors.Is(m.err, conflict.ErrBookingOverlap) {
		t.Errorf("err = %v, want overlap", m.err)
	}
	if got := h.facts().Booking(lesson.ID); got.ResourceID != h.ana.ID {
		t.Errorf("lesson moved to %s", got.ResourceID)
	}
	if m.set.Len() != 1 {
		t.Errorf("selected = %d, want the selection kept", m.set.Len())
	}
}

func TestRefetch_DropsStaleSelection(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 2, "10:00"), "space")
	m, _ = press(t, at(m, 2, "14:00"), "space")
	h.book(h.ana.ID, "2025-01-08", "10:00", "11:00", schedule.BookingPrivate, "Max")

	m = exec(t, m, commands.LoadWeek(h.store, m.weekStart))
	if m.set.Len() != 1 {
		t.Fatalf("selected = %d, want only the 14:00 slot", m.set.Len())
	}
	if _, ok := m.set.SlotAt(h.ana.ID, date("2025-01-08"), "14:00"); !ok {
		t.Error("14:00 selection was dropped")
	}
	if m.statusMsg != "1 selection(s) no longer available" {
		t.Errorf("status = %q", m.statusMsg)
	}
	if kind, text, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellPrivate || text != "Max" {
		t.Errorf("cell = %d %q, want the new booking", kind, text)
	}
}

func TestAbsenceRequest(t *testing.T) {
	h := newHarness(t)
	h.addResources()

	m := h.model(schedule.Role{})
	m, _ = press(t, at(m, 0, "10:00"), "space", "a", "flu", "enter")
	if !errors.Is(m.err, conflict.ErrRoleNotPermitted) {
		t.Errorf("err = %v, want role not permitted", m.err)
	}

	m = h.model(schedule.Role{SelfResourceID: h.ana.ID})
	m, _ = press(t, at(m, 0, "10:00"), "space")
	m, _ = press(t, at(m, 1, "10:00"), "space")
	m, _ = press(t, at(m, 3, "10:00"), "space")
	m, cmd := press(t, m, "a", "/sick flu", "enter")
	m = exec(t, m, cmd)

	absences := h.facts().Absences
	if len(absences) != 2 {
		t.Fatalf("absences = %d, want 2", len(absences))
	}
	var ranges []string
	for _, a := range absences {
		if a.Kind != schedule.AbsenceSickLeave || a.Status != schedule.StatusPending || a.Reason != "flu" {
			t.Errorf("unexpected absence %+v", a)
		}
		ranges = append(ranges, dateutil.Key(a.StartDate)+".."+dateutil.Key(a.EndDate))
	}
	if strings.Join(ranges, " ") != "2025-01-06..2025-01-07 2025-01-09..2025-01-09" {
		t.Errorf("ranges = %v", ranges)
	}
	if m.statusMsg != "Requested 2 absence(s)" {
		t.Errorf("status = %q", m.statusMsg)
	}
	if kind, text, _ := m.cellAt(date("2025-01-06"), "09:00"); kind != cellPending || text != "sick_leave?" {
		t.Errorf("cell = %d %q, want pending", kind, text)
	}
}

func TestApprovals(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	h.book(h.ana.ID, "2025-01-08", "10:00", "11:00", schedule.BookingPrivate, "Lena")
	created, err := h.store.CreateAbsences(context.Background(), []schedule.CreateAbsence{{
		ResourceID: h.ana.ID,
		StartDate:  date("2025-01-08"),
		EndDate:    date("2025-01-08"),
		Kind:       schedule.AbsenceVacation,
		Status:     schedule.StatusPending,
	}})
	if err != nil {
		t.Fatalf("CreateAbsences: %v", err)
	}
	absenceID := created[0].ID

	open := func(role schedule.Role) Model {
		m := h.model(role)
		updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
		m, cmd := press(t, updated.(Model), "p")
		return exec(t, m, cmd)
	}

	m := open(schedule.Role{})
	if m.mode != ModeModal || len(m.report.Entries) != 1 || len(m.report.Entries[0].Bookings) != 1 {
		t.Fatalf("mode %s report %+v", m.mode, m.report)
	}
	view := m.View()
	for _, want := range []string{"Pending absences", "Ana vacation 2025-01-08..2025-01-08", "2025-01-08 10:00-11:00 private: Lena"} {
		if !strings.Contains(view, want) {
			t.Errorf("modal missing %q", want)
		}
	}
	m, cmd := press(t, m, "y")
	if cmd != nil || m.err == nil {
		t.Error("unprivileged approval must be refused")
	}

	m = open(schedule.Role{Privileged: true})
	m, cmd = press(t, m, "y")
	m = exec(t, m, cmd)

	a, err := h.store.Absence(context.Background(), absenceID)
	if err != nil {
		t.Fatalf("Absence: %v", err)
	}
	if a.Status != schedule.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", a.Status)
	}
	if len(m.report.Entries) != 0 || !strings.Contains(m.View(), "No pending absences.") {
		t.Error("report not refreshed after the decision")
	}
	if kind, _, _ := m.cellAt(date("2025-01-08"), "10:00"); kind != cellPrivate {
		t.Errorf("booking cell = %d, bookings stay visible over absences", kind)
	}
	if kind, _, _ := m.cellAt(date("2025-01-08"), "12:00"); kind != cellAbsence {
		t.Errorf("free cell = %d, want confirmed absence", kind)
	}

	m, _ = press(t, m, "esc")
	if m.mode != ModeNormal {
		t.Errorf("mode = %s, want normal", m.mode)
	}
}

func TestWeekNavigation(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 2, "10:00"), "space")

	// A refetch of the same week keeps the selection.
	m = exec(t, m, commands.LoadWeek(h.store, m.weekStart))
	if m.set.Len() != 1 {
		t.Fatal("refetch cleared the selection")
	}

	m, cmd := press(t, m, "L")
	if dateutil.Key(m.weekStart) != "2025-01-13" || !m.loading {
		t.Fatalf("weekStart = %s loading = %t", dateutil.Key(m.weekStart), m.loading)
	}
	if m.set.Len() != 0 {
		t.Error("changing week must reset the selection before the load")
	}
	m = exec(t, m, cmd)
	if m.set.Len() != 0 {
		t.Error("changing week must reset the selection")
	}

	m, cmd = press(t, at(m, 0, "10:00"), "h")
	m = exec(t, m, cmd)
	if dateutil.Key(m.weekStart) != "2025-01-06" || m.cursor.Day != 6 {
		t.Errorf("weekStart = %s day = %d", dateutil.Key(m.weekStart), m.cursor.Day)
	}

	m, cmd = press(t, m, "L", "t")
	m = exec(t, m, cmd)
	if dateutil.Key(m.weekStart) != "2025-01-06" || m.cursor.Day != 2 {
		t.Errorf("t: weekStart = %s day = %d", dateutil.Key(m.weekStart), m.cursor.Day)
	}

	// A stale load for another week is ignored.
	stale := commands.WeekLoadedMsg{Start: date("2024-12-30")}
	updated, _ := m.Update(stale)
	if len(updated.(Model).resources) != 2 {
		t.Error("stale week replaced the roster")
	}
}

func TestWeekNavigation_FailedLoad(t *testing.T) {
	h := newHarness(t)
	h.addResources()
	m := h.model(schedule.Role{})

	m, _ = press(t, at(m, 2, "10:00"), "space")
	m, _ = press(t, m, "L")
	updated, _ := m.Update(commands.ErrMsg{Err: errors.New("disk gone")})
	m = updated.(Model)

	if dateutil.Key(m.weekStart) != "2025-01-13" {
		t.Fatalf("weekStart = %s", dateutil.Key(m.weekStart))
	}
	if m.set.Len() != 0 {
		t.Fatalf("selected = %d, old week selection survived a failed load", m.set.Len())
	}
	if len(m.facts.Bookings) != 0 || len(m.facts.Absences) != 0 {
		t.Error("old week facts still shown")
	}
	m, _ = press(t, m, "b")
	if m.mode != ModeNormal || m.statusMsg != "Select slots first (space)" {
		t.Errorf("mode %s status %q, want nothing to book", m.mode, m.statusMsg)
	}
}

func TestErrMsg(t *testing.T) {
	h := newHarness(t)
	m := h.model(schedule.Role{})

	updated, _ := m.Update(commands.ErrMsg{Err: schedule.ErrWriteConflict})
	m = updated.(Model)
	if !errors.Is(m.err, schedule.ErrWriteConflict) || !strings.HasPrefix(m.statusMsg, "Error: ") {
		t.Errorf("err %v status %q", m.err, m.statusMsg)
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	m := h.model(schedule.Role{})

	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
