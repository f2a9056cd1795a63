// Package conflict decides whether a candidate interval may be placed on a
// resource's timeline, and why not when it may not.
package conflict

import (
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// PendingPolicy controls how pending absences affect placement.
type PendingPolicy string

const (
	// PendingBlock treats pending absences like confirmed ones.
	PendingBlock PendingPolicy = "block"
	// PendingWarn lets placement succeed over a pending absence with a warning.
	PendingWarn PendingPolicy = "warn"
)

// ParsePendingPolicy parses a policy name. Empty means PendingBlock.
func ParsePendingPolicy(s string) (PendingPolicy, bool) {
	switch PendingPolicy(s) {
	case "", PendingBlock:
		return PendingBlock, true
	case PendingWarn:
		return PendingWarn, true
	default:
		return "", false
	}
}

// Interval is an occupied span that is not a stored booking, such as an
// in-progress selection.
type Interval struct {
	ID    string
	Date  time.Time
	Start string
	End   string
}

// Engine validates placements against a grid and occupancy facts.
// It holds no mutable state and may be shared.
type Engine struct {
	grid    timegrid.Grid
	pending PendingPolicy
	logger  *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPendingPolicy sets the pending absence policy.
func WithPendingPolicy(p PendingPolicy) EngineOption {
	return func(e *Engine) {
		if p != "" {
			e.pending = p
		}
	}
}

// WithLogger sets the logger used for rejected placements.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine for grid.
func NewEngine(grid timegrid.Grid, opts ...EngineOption) *Engine {
	e := &Engine{
		grid:    grid,
		pending: PendingBlock,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Grid returns the grid the engine validates against.
func (e *Engine) Grid() timegrid.Grid {
	return e.grid
}

// PendingPolicy returns the configured pending absence policy.
func (e *Engine) PendingPolicy() PendingPolicy {
	return e.pending
}

type placeOptions struct {
	exclude      map[string]bool
	occupied     []Interval
	skipDuration bool
}

// Option adjusts a single CanPlace call.
type Option func(*placeOptions)

// Excluding leaves the given booking or interval ids out of the overlap check.
func Excluding(ids ...string) Option {
	return func(o *placeOptions) {
		for _, id := range ids {
			o.exclude[id] = true
		}
	}
}

// WithOccupied adds synthetic occupied intervals to the overlap check.
func WithOccupied(intervals []Interval) Option {
	return func(o *placeOptions) {
		o.occupied = append(o.occupied, intervals...)
	}
}

// SkipDurationCheck disables the duration bounds check.
func SkipDurationCheck() Option {
	return func(o *placeOptions) {
		o.skipDuration = true
	}
}

// CanPlace validates [start, end) on resourceID's timeline for date.
// Checks run in order and the first failure wins: duration, operational
// hours, absence, overlap.
func (e *Engine) CanPlace(resourceID string, date time.Time, start, end string, facts schedule.Facts, opts ...Option) Result {
	o := placeOptions{exclude: make(map[string]bool)}
	for _, opt := range opts {
		opt(&o)
	}

	res := e.check(resourceID, date, start, end, facts, o)
	if !res.Valid() {
		e.logger.Debug("placement rejected",
			zap.String("resource_id", resourceID),
			zap.String("date", dateutil.Key(date)),
			zap.String("start", start),
			zap.String("end", end),
			zap.String("reason", string(res.Reason)))
	}
	return res
}

func (e *Engine) check(resourceID string, date time.Time, start, end string, facts schedule.Facts, o placeOptions) Result {
	s, errS := timegrid.ParseClock(start)
	en, errE := timegrid.ParseClock(end)
	if errS != nil || errE != nil {
		return Result{Reason: ReasonInvalidDuration}
	}

	if !o.skipDuration && !e.grid.ValidDuration(en-s) {
		return Result{Reason: ReasonInvalidDuration}
	}

	if !e.grid.WithinOperationalHours(start, end) {
		return Result{Reason: ReasonOutOfHours}
	}

	var res Result
	if a := facts.AbsenceOn(resourceID, date); a != nil {
		if a.IsPending() && e.pending == PendingWarn {
			res.Warning = ReasonAbsenceBlocked
			res.Absence = a
		} else {
			return Result{Reason: ReasonAbsenceBlocked, Absence: a}
		}
	}

	for _, b := range facts.BookingsFor(resourceID, date) {
		if o.exclude[b.ID] {
			continue
		}
		if timegrid.OverlapsMinutes(s, en, timegrid.ToMinutes(b.Start), timegrid.ToMinutes(b.End)) {
			res.Reason = ReasonBookingOverlap
			res.Booking = b
			return res
		}
	}

	for i := range o.occupied {
		iv := o.occupied[i]
		if o.exclude[iv.ID] || !dateutil.SameDay(iv.Date, date) {
			continue
		}
		if timegrid.OverlapsMinutes(s, en, timegrid.ToMinutes(iv.Start), timegrid.ToMinutes(iv.End)) {
			res.Reason = ReasonBookingOverlap
			res.Occupied = &iv
			return res
		}
	}

	return res
}

// CheckAbsenceRequest validates that role may create an absence for resourceID.
func (e *Engine) CheckAbsenceRequest(role schedule.Role, resourceID string) Result {
	if !role.CanRequestAbsenceFor(resourceID) {
		e.logger.Debug("absence request rejected",
			zap.String("resource_id", resourceID),
			zap.String("self_resource_id", role.SelfResourceID))
		return Result{Reason: ReasonRoleNotPermitted}
	}
	return Result{}
}

// CheckDraggable validates that b may be picked up for a move.
func (e *Engine) CheckDraggable(b *schedule.Booking) Result {
	if b == nil || !b.IsPrivate() {
		return Result{Reason: ReasonNotDraggable, Booking: b}
	}
	return Result{}
}
