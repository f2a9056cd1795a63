// Package drag implements picking up an existing booking and dropping it on
// another resource, day or start time.
package drag

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// Manager errors.
var (
	ErrDragActive  = errors.New("a booking is already being moved")
	ErrNotDragging = errors.New("no booking is being moved")
	ErrNoTarget    = errors.New("dropped outside any target")
	ErrUnchanged   = errors.New("booking dropped on its own slot")
)

// Target is the hovered drop cell.
type Target struct {
	ResourceID     string
	Date           time.Time
	Start          string
	AbsenceBlocked bool
}

// Manager holds at most one drag session. It is not safe for concurrent use.
type Manager struct {
	engine *conflict.Engine
	logger *zap.Logger
	facts  schedule.Facts

	booking *schedule.Booking
	target  *Target

	// The user's selection; drops on that resource must not cover it.
	selResource string
	selection   []conflict.Interval
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for rejected drops.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an idle manager.
func NewManager(engine *conflict.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetFacts replaces the occupancy snapshot. Any active session is cancelled.
func (m *Manager) SetFacts(facts schedule.Facts) {
	m.Cancel()
	m.facts = facts
}

// SetSelection records the in-progress selection of resourceID so a drop
// cannot land on a slot the user has selected.
func (m *Manager) SetSelection(resourceID string, intervals []conflict.Interval) {
	m.selResource = resourceID
	m.selection = intervals
}

// Active reports whether a booking is being dragged.
func (m *Manager) Active() bool {
	return m.booking != nil
}

// Booking returns the dragged booking, or nil.
func (m *Manager) Booking() *schedule.Booking {
	return m.booking
}

// Target returns the hovered target, if any.
func (m *Manager) Target() (Target, bool) {
	if m.target == nil {
		return Target{}, false
	}
	return *m.target, true
}

// Start picks up b. Only private bookings can be dragged.
func (m *Manager) Start(b *schedule.Booking) error {
	if m.booking != nil {
		return ErrDragActive
	}
	if res := m.engine.CheckDraggable(b); !res.Valid() {
		m.logger.Debug("drag rejected", zap.String("reason", string(res.Reason)))
		return res.Err()
	}
	m.booking = b
	m.target = nil
	return nil
}

// Hover records the cell under the cursor and whether an absence blocks it.
func (m *Manager) Hover(resourceID string, date time.Time, start string) (Target, error) {
	if m.booking == nil {
		return Target{}, ErrNotDragging
	}
	t := Target{
		ResourceID:     resourceID,
		Date:           dateutil.TruncateToDay(date),
		Start:          start,
		AbsenceBlocked: m.absenceBlocked(resourceID, date),
	}
	m.target = &t
	return t, nil
}

func (m *Manager) absenceBlocked(resourceID string, date time.Time) bool {
	a := m.facts.AbsenceOn(resourceID, date)
	if a == nil {
		return false
	}
	return !a.IsPending() || m.engine.PendingPolicy() == conflict.PendingBlock
}

// Candidate returns the end time the booking would get at the current target.
func (m *Manager) Candidate() (start, end string, ok bool) {
	if m.booking == nil || m.target == nil {
		return "", "", false
	}
	return m.target.Start, timegrid.AddMinutes(m.target.Start, m.booking.Duration()), true
}

// Drop ends the session and returns the move to persist.
// Any failure leaves the booking untouched; the session ends either way.
// Dropping without a target behaves like Cancel and returns ErrNoTarget.
func (m *Manager) Drop() (schedule.MoveBooking, error) {
	if m.booking == nil {
		return schedule.MoveBooking{}, ErrNotDragging
	}
	b, t := m.booking, m.target
	m.Cancel()

	if t == nil {
		return schedule.MoveBooking{}, ErrNoTarget
	}

	if !b.IsPrivate() {
		return schedule.MoveBooking{}, conflict.ErrNotDraggable
	}
	if res := m.check(b, *t); !res.Valid() {
		m.logDrop(b, *t, res)
		return schedule.MoveBooking{}, res.Err()
	}

	if t.ResourceID == b.ResourceID && dateutil.SameDay(t.Date, b.Date) && t.Start == b.Start {
		return schedule.MoveBooking{}, ErrUnchanged
	}

	return schedule.MoveBooking{
		BookingID:  b.ID,
		ResourceID: t.ResourceID,
		Date:       t.Date,
		Start:      t.Start,
		End:        timegrid.AddMinutes(t.Start, b.Duration()),
	}, nil
}

// Check validates a drop at the current target without ending the session.
// ok is false when nothing is being dragged or nothing is hovered.
func (m *Manager) Check() (res conflict.Result, ok bool) {
	if m.booking == nil || m.target == nil {
		return conflict.Result{}, false
	}
	return m.check(m.booking, *m.target), true
}

func (m *Manager) check(b *schedule.Booking, t Target) conflict.Result {
	if t.AbsenceBlocked {
		return conflict.Result{Reason: conflict.ReasonAbsenceBlocked, Absence: m.facts.AbsenceOn(t.ResourceID, t.Date)}
	}
	if timegrid.ToMinutes(t.Start)+b.Duration() >= timegrid.MinutesPerDay {
		return conflict.Result{Reason: conflict.ReasonOutOfHours}
	}

	opts := []conflict.Option{conflict.Excluding(b.ID), conflict.SkipDurationCheck()}
	if t.ResourceID == m.selResource {
		opts = append(opts, conflict.WithOccupied(m.selection))
	}
	end := timegrid.AddMinutes(t.Start, b.Duration())
	return m.engine.CanPlace(t.ResourceID, t.Date, t.Start, end, m.facts, opts...)
}

// Cancel discards the session. It has no other effect.
func (m *Manager) Cancel() {
	m.booking = nil
	m.target = nil
}

func (m *Manager) logDrop(b *schedule.Booking, t Target, res conflict.Result) {
	m.logger.Debug("drop rejected",
		zap.String("booking_id", b.ID),
		zap.String("resource_id", t.ResourceID),
		zap.String("date", dateutil.Key(t.Date)),
		zap.String("start", t.Start),
		zap.String("reason", string(res.Reason)))
}
