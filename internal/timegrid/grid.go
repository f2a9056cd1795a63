// Package timegrid models the bookable timeline: operational hours, slot
// granularity and the interval arithmetic every other package builds on.
package timegrid

import (
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/skigrid/internal/dateutil"
)

// Grid errors.
var (
	ErrInvalidHours      = errors.New("day start must be before day end")
	ErrInvalidSlotLength = errors.New("slot length must divide the operational window")
	ErrInvalidDurations  = errors.New("duration bounds must be positive multiples of the step with min <= max")
)

// Defaults for a ski-school day.
const (
	DefaultDayStart     = "09:00"
	DefaultDayEnd       = "17:00"
	DefaultSlotMinutes  = 30
	DefaultLeadMinutes  = 60
	DefaultTrailMinutes = 60
	DefaultMinDuration  = 60
	DefaultMaxDuration  = 240
	DefaultDurationStep = 30
	// DefaultSelection is the duration of a selection created by a single click.
	DefaultSelection = 60
)

// Config describes a grid in config-file terms.
type Config struct {
	DayStart     string // "HH:MM"
	DayEnd       string // "HH:MM"
	SlotMinutes  int
	LeadMinutes  int // non-bookable hours rendered before DayStart
	TrailMinutes int // non-bookable hours rendered after DayEnd
	MinDuration  int
	MaxDuration  int
	DurationStep int
}

// Grid is the discretized timeline. All times are minutes since midnight.
type Grid struct {
	DayStart     int
	DayEnd       int
	SlotMinutes  int
	LeadMinutes  int
	TrailMinutes int
	MinDuration  int
	MaxDuration  int
	DurationStep int
}

// Default returns the default grid.
func Default() Grid {
	g, _ := New(Config{
		DayStart:     DefaultDayStart,
		DayEnd:       DefaultDayEnd,
		SlotMinutes:  DefaultSlotMinutes,
		LeadMinutes:  DefaultLeadMinutes,
		TrailMinutes: DefaultTrailMinutes,
		MinDuration:  DefaultMinDuration,
		MaxDuration:  DefaultMaxDuration,
		DurationStep: DefaultDurationStep,
	})
	return g
}

// New validates cfg and builds a Grid.
func New(cfg Config) (Grid, error) {
	start, err := ParseClock(cfg.DayStart)
	if err != nil {
		return Grid{}, fmt.Errorf("day start: %w", err)
	}
	end, err := ParseClock(cfg.DayEnd)
	if err != nil {
		return Grid{}, fmt.Errorf("day end: %w", err)
	}
	if start >= end {
		return Grid{}, ErrInvalidHours
	}
	if cfg.SlotMinutes <= 0 || (end-start)%cfg.SlotMinutes != 0 {
		return Grid{}, ErrInvalidSlotLength
	}
	step := cfg.DurationStep
	if step <= 0 || cfg.MinDuration <= 0 || cfg.MinDuration > cfg.MaxDuration ||
		cfg.MinDuration%step != 0 || cfg.MaxDuration%step != 0 {
		return Grid{}, ErrInvalidDurations
	}

	g := Grid{
		DayStart:     start,
		DayEnd:       end,
		SlotMinutes:  cfg.SlotMinutes,
		LeadMinutes:  max(cfg.LeadMinutes, 0),
		TrailMinutes: max(cfg.TrailMinutes, 0),
		MinDuration:  cfg.MinDuration,
		MaxDuration:  cfg.MaxDuration,
		DurationStep: step,
	}
	// Lead/trail rendering cannot leave the day.
	g.LeadMinutes = min(g.LeadMinutes, g.DayStart)
	g.TrailMinutes = min(g.TrailMinutes, MinutesPerDay-g.DayEnd)
	return g, nil
}

// Marks returns the slot start times inside the operational window.
func (g Grid) Marks() []string {
	return g.marks(g.DayStart, g.DayEnd)
}

// DisplayMarks returns slot start times including the non-bookable lead and trail.
func (g Grid) DisplayMarks() []string {
	return g.marks(g.DayStart-g.LeadMinutes, g.DayEnd+g.TrailMinutes)
}

func (g Grid) marks(from, to int) []string {
	if g.SlotMinutes <= 0 {
		return nil
	}
	var out []string
	for m := from; m < to; m += g.SlotMinutes {
		out = append(out, FromMinutes(m))
	}
	return out
}

// IsOperational reports whether the slot starting at t is bookable.
func (g Grid) IsOperational(t string) bool {
	m := ToMinutes(t)
	return m >= g.DayStart && m < g.DayEnd
}

// WithinOperationalHours reports whether [start, end) lies inside the operational window.
func (g Grid) WithinOperationalHours(start, end string) bool {
	s, err := ParseClock(start)
	if err != nil {
		return false
	}
	e, err := ParseClock(end)
	if err != nil {
		return false
	}
	return s < e && s >= g.DayStart && e <= g.DayEnd
}

// ValidDuration reports whether minutes is a positive step multiple within bounds.
func (g Grid) ValidDuration(minutes int) bool {
	return minutes >= g.MinDuration && minutes <= g.MaxDuration && minutes%g.DurationStep == 0
}

// SnapDuration rounds raw minutes to the nearest step and clamps to the bounds.
func (g Grid) SnapDuration(raw float64) int {
	step := float64(g.DurationStep)
	snapped := int(roundHalfUp(raw/step)) * g.DurationStep
	if snapped < g.MinDuration {
		return g.MinDuration
	}
	if snapped > g.MaxDuration {
		return g.MaxDuration
	}
	return snapped
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return float64(int(v + 0.5))
}

// Overlaps reports half-open interval overlap of [aStart, aEnd) and [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return OverlapsMinutes(ToMinutes(aStart), ToMinutes(aEnd), ToMinutes(bStart), ToMinutes(bEnd))
}

// OverlapsMinutes is Overlaps on minutes since midnight.
func OverlapsMinutes(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// CoversDate reports whether date falls inside the inclusive day range.
func CoversDate(rangeStart, rangeEnd, date time.Time) bool {
	d := dateutil.Key(date)
	return dateutil.Key(rangeStart) <= d && d <= dateutil.Key(rangeEnd)
}
