// Package selection holds the user-local set of slots being built into a
// booking or absence request.
//
// A Set is owned by a single view. Call Reset when the view mounts and
// whenever the visible date range changes; call Clear after a submission or
// when the user cancels.
package selection

import (
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// Set errors.
var (
	ErrSelectionNotFound = errors.New("selection not found")
	ErrResizeActive      = errors.New("another selection is being resized")
	ErrNotResizing       = errors.New("no resize in progress")
	ErrInvalidScale      = errors.New("pixels per minute must be positive")
	ErrEmptySelection    = errors.New("nothing selected")
)

// State is the coarse state of a Set.
type State int

const (
	Idle State = iota
	Building
	Resizing
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Slot is a transient candidate range.
type Slot struct {
	ID              string
	ResourceID      string
	Date            time.Time
	Start           string
	End             string
	DurationMinutes int
}

// Contains reports whether t falls inside the slot on date.
func (s Slot) Contains(date time.Time, t string) bool {
	if !dateutil.SameDay(s.Date, date) {
		return false
	}
	m := timegrid.ToMinutes(t)
	return m >= timegrid.ToMinutes(s.Start) && m < timegrid.ToMinutes(s.End)
}

// Action is what a click did.
type Action int

const (
	ActionNone Action = iota
	ActionAdded
	ActionRemoved
)

// Outcome describes the effect of Click or ShiftClick.
type Outcome struct {
	Action Action
	Slot   Slot
	// Cleared is true when the click started over on another resource.
	Cleared bool
	// Result explains a rejected add.
	Result conflict.Result
}

// Set is the selection state machine. It is not safe for concurrent use.
type Set struct {
	engine *conflict.Engine
	logger *zap.Logger

	facts      schedule.Facts
	resourceID string
	slots      []Slot

	gesture *gesture
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger used for rejected mutations.
func WithLogger(l *zap.Logger) Option {
	return func(s *Set) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSet creates an empty set that validates through engine.
func NewSet(engine *conflict.Engine, opts ...Option) *Set {
	s := &Set{
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset empties the set and replaces the occupancy snapshot.
func (s *Set) Reset(facts schedule.Facts) {
	s.Clear()
	s.facts = facts
}

// Refresh replaces the occupancy snapshot after a refetch of the same date
// range. Selections that no longer fit the new snapshot are dropped and
// returned; the rest are kept. A resize in progress is abandoned since its
// preview was validated against the old snapshot.
func (s *Set) Refresh(facts schedule.Facts) []Slot {
	if s.gesture != nil && s.gesture.state == GestureDragging {
		s.gesture.state = GestureCancelled
	}
	s.facts = facts

	var kept, dropped []Slot
	for _, sl := range s.slots {
		res := s.engine.CanPlace(sl.ResourceID, sl.Date, sl.Start, sl.End, facts,
			conflict.WithOccupied(intervals(kept)))
		if res.Valid() {
			kept = append(kept, sl)
			continue
		}
		s.logger.Debug("selection dropped on refresh",
			zap.String("slot_id", sl.ID),
			zap.String("date", dateutil.Key(sl.Date)),
			zap.String("start", sl.Start),
			zap.String("reason", string(res.Reason)))
		dropped = append(dropped, sl)
	}
	s.slots = kept
	if len(kept) == 0 {
		s.resourceID = ""
	}
	return dropped
}

// Clear empties the set and abandons any resize. Clearing an empty set is a no-op.
func (s *Set) Clear() {
	s.slots = nil
	s.resourceID = ""
	if s.gesture != nil && s.gesture.state == GestureDragging {
		s.gesture.state = GestureCancelled
	}
}

// Facts returns the occupancy snapshot the set validates against.
func (s *Set) Facts() schedule.Facts {
	return s.facts
}

// State returns the coarse state.
func (s *Set) State() State {
	switch {
	case s.resizing():
		return Resizing
	case len(s.slots) > 0:
		return Building
	default:
		return Idle
	}
}

// ResourceID returns the anchor resource, or "" when empty.
func (s *Set) ResourceID() string {
	return s.resourceID
}

// Len returns the number of selections.
func (s *Set) Len() int {
	return len(s.slots)
}

// Slots returns a copy of the selections in insertion order.
func (s *Set) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Slot returns the selection with id.
func (s *Set) Slot(id string) (Slot, bool) {
	if i := s.index(id); i >= 0 {
		return s.slots[i], true
	}
	return Slot{}, false
}

// SlotAt returns the selection covering t on resourceID/date.
func (s *Set) SlotAt(resourceID string, date time.Time, t string) (Slot, bool) {
	if resourceID != s.resourceID {
		return Slot{}, false
	}
	for _, sl := range s.slots {
		if sl.Contains(date, t) {
			return sl, true
		}
	}
	return Slot{}, false
}

// TotalHours returns the summed duration of all selections in hours.
func (s *Set) TotalHours() float64 {
	total := 0
	for _, sl := range s.slots {
		total += sl.DurationMinutes
	}
	return float64(total) / 60
}

// Intervals returns the selections as synthetic occupancy.
func (s *Set) Intervals() []conflict.Interval {
	return intervals(s.slots)
}

func intervals(slots []Slot) []conflict.Interval {
	out := make([]conflict.Interval, 0, len(slots))
	for _, sl := range slots {
		out = append(out, conflict.Interval{ID: sl.ID, Date: sl.Date, Start: sl.Start, End: sl.End})
	}
	return out
}

// CanAdd validates a candidate against the snapshot and the current selections.
// A candidate on another resource is validated against the snapshot alone,
// since selecting it starts a new set.
func (s *Set) CanAdd(resourceID string, date time.Time, start, end string) conflict.Result {
	var opts []conflict.Option
	if resourceID == s.resourceID {
		opts = append(opts, conflict.WithOccupied(s.Intervals()))
	}
	return s.engine.CanPlace(resourceID, date, start, end, s.facts, opts...)
}

// Add appends a selection if it keeps every invariant of the set.
// It returns false and leaves the set unchanged otherwise.
func (s *Set) Add(resourceID string, date time.Time, start, end string) (Slot, bool) {
	if s.resizing() {
		s.logger.Debug("add rejected during resize")
		return Slot{}, false
	}
	if len(s.slots) > 0 && resourceID != s.resourceID {
		s.logger.Debug("add rejected for other resource",
			zap.String("anchor", s.resourceID),
			zap.String("resource_id", resourceID))
		return Slot{}, false
	}
	if res := s.CanAdd(resourceID, date, start, end); !res.Valid() {
		return Slot{}, false
	}

	sl := Slot{
		ID:              schedule.NewID(),
		ResourceID:      resourceID,
		Date:            dateutil.TruncateToDay(date),
		Start:           start,
		End:             end,
		DurationMinutes: timegrid.DurationBetween(start, end),
	}
	s.slots = append(s.slots, sl)
	s.resourceID = resourceID
	return sl, true
}

// Remove drops the selection with id. Removing the selection under resize
// cancels the gesture.
func (s *Set) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	if s.resizing() && s.gesture.slotID == id {
		s.gesture.state = GestureCancelled
	}
	s.slots = append(s.slots[:i], s.slots[i+1:]...)
	if len(s.slots) == 0 {
		s.resourceID = ""
	}
	return true
}

// Click toggles a default-length selection at start.
// Clicking inside an existing selection removes it. Clicking a valid cell
// on another resource clears the set and starts over there.
func (s *Set) Click(resourceID string, date time.Time, start string) Outcome {
	if s.resizing() {
		return Outcome{}
	}
	if sl, ok := s.SlotAt(resourceID, date, start); ok {
		s.Remove(sl.ID)
		return Outcome{Action: ActionRemoved, Slot: sl}
	}

	end := timegrid.AddMinutes(start, s.defaultDuration())
	res := s.CanAdd(resourceID, date, start, end)
	if !res.Valid() {
		return Outcome{Result: res}
	}

	cleared := false
	if len(s.slots) > 0 && resourceID != s.resourceID {
		s.Clear()
		cleared = true
	}
	sl, ok := s.Add(resourceID, date, start, end)
	if !ok {
		return Outcome{Cleared: cleared, Result: res}
	}
	return Outcome{Action: ActionAdded, Slot: sl, Cleared: cleared, Result: res}
}

// ShiftClick copies the first selection onto date when start matches its
// start time. Any other start is ignored. On an empty set it behaves like Click.
func (s *Set) ShiftClick(resourceID string, date time.Time, start string) Outcome {
	if len(s.slots) == 0 {
		return s.Click(resourceID, date, start)
	}
	if s.resizing() {
		return Outcome{}
	}
	first := s.slots[0]
	if resourceID != s.resourceID || start != first.Start {
		return Outcome{}
	}
	res := s.CanAdd(resourceID, date, first.Start, first.End)
	if !res.Valid() {
		return Outcome{Result: res}
	}
	sl, ok := s.Add(resourceID, date, first.Start, first.End)
	if !ok {
		return Outcome{Result: res}
	}
	return Outcome{Action: ActionAdded, Slot: sl, Result: res}
}

// UpdateDuration commits a new end time for the selection with id.
func (s *Set) UpdateDuration(id, newEnd string, newDuration int) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	sl := s.slots[i]
	if timegrid.DurationBetween(sl.Start, newEnd) != newDuration {
		return false
	}
	res := s.engine.CanPlace(sl.ResourceID, sl.Date, sl.Start, newEnd, s.facts,
		conflict.WithOccupied(s.Intervals()), conflict.Excluding(id))
	if !res.Valid() {
		return false
	}
	s.slots[i].End = newEnd
	s.slots[i].DurationMinutes = newDuration
	return true
}

// BookingIntents converts every selection into a booking request.
func (s *Set) BookingIntents(kind schedule.BookingKind, participant string, paid bool) ([]schedule.CreateBooking, error) {
	if len(s.slots) == 0 {
		return nil, ErrEmptySelection
	}
	out := make([]schedule.CreateBooking, 0, len(s.slots))
	for _, sl := range s.slots {
		out = append(out, schedule.CreateBooking{
			ResourceID:  sl.ResourceID,
			Date:        sl.Date,
			Start:       sl.Start,
			End:         sl.End,
			Kind:        kind,
			Paid:        paid && kind == schedule.BookingPrivate,
			Participant: participant,
		})
	}
	return out, nil
}

// AbsenceIntents converts the selected days into absence requests.
// Consecutive days collapse into one inclusive range.
func (s *Set) AbsenceIntents(role schedule.Role, kind schedule.AbsenceKind, reason string) ([]schedule.CreateAbsence, error) {
	if len(s.slots) == 0 {
		return nil, ErrEmptySelection
	}
	if res := s.engine.CheckAbsenceRequest(role, s.resourceID); !res.Valid() {
		return nil, res.Err()
	}

	seen := make(map[string]bool)
	var days []time.Time
	for _, sl := range s.slots {
		k := dateutil.Key(sl.Date)
		if !seen[k] {
			seen[k] = true
			days = append(days, dateutil.TruncateToDay(sl.Date))
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var out []schedule.CreateAbsence
	runStart, prev := days[0], days[0]
	flush := func(end time.Time) {
		out = append(out, schedule.CreateAbsence{
			ResourceID: s.resourceID,
			StartDate:  runStart,
			EndDate:    end,
			Kind:       kind,
			Reason:     reason,
			Status:     role.DefaultAbsenceStatus(),
		})
	}
	for _, d := range days[1:] {
		if dateutil.DaysBetween(prev, d) == 1 {
			prev = d
			continue
		}
		flush(prev)
		runStart, prev = d, d
	}
	flush(prev)
	return out, nil
}

func (s *Set) index(id string) int {
	for i, sl := range s.slots {
		if sl.ID == id {
			return i
		}
	}
	return -1
}

func (s *Set) defaultDuration() int {
	g := s.engine.Grid()
	return min(max(timegrid.DefaultSelection, g.MinDuration), g.MaxDuration)
}
